package service

import "errors"

var (
	// ErrCouponExists is returned when attempting to create a coupon that already exists
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrProductNotFound is returned when an order references a product that does not exist or is not for sale
	ErrProductNotFound = errors.New("product not found")

	// ErrFormatUnavailable is returned when a product is ordered in a format it is not sold in
	ErrFormatUnavailable = errors.New("format unavailable")

	// ErrOrderNotFound is returned when an order cannot be found for the requesting user
	ErrOrderNotFound = errors.New("order not found")
)
