package service

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/studymart-checkout/internal/model"
)

// DefaultNotificationLimit caps how many notifications are returned at once.
const DefaultNotificationLimit = 50

// ReferralReader lists referrals credited to a user.
type ReferralReader interface {
	ListByReferrer(ctx context.Context, userID string) ([]*model.Referral, error)
}

// NotificationReader lists a user's notifications.
type NotificationReader interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
}

// AccountService exposes the per-user side effects of checkout.
type AccountService struct {
	referrals     ReferralReader
	notifications NotificationReader
}

// NewAccountService creates a new AccountService.
func NewAccountService(referrals ReferralReader, notifications NotificationReader) *AccountService {
	return &AccountService{referrals: referrals, notifications: notifications}
}

// ListReferrals returns the orders placed with the user's referral codes.
func (s *AccountService) ListReferrals(ctx context.Context, userID string) ([]*model.Referral, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	referrals, err := s.referrals.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	return referrals, nil
}

// ListNotifications returns the user's latest notifications.
func (s *AccountService) ListNotifications(ctx context.Context, userID string) ([]*model.Notification, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	notifications, err := s.notifications.ListForUser(ctx, userID, DefaultNotificationLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}
