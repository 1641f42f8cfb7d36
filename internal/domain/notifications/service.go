package notifications

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("notification not found")

type Service struct {
	store StoreAPI
}

func New(store StoreAPI) *Service {
	return &Service{store: store}
}

// Create stores an in-app notification for one user.
func (s *Service) Create(ctx context.Context, orgID, userID, ntype, title, body string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("notification recipient is required")
	}
	return s.store.CreateNotification(ctx, orgID, userID, ntype, title, body)
}

func (s *Service) List(ctx context.Context, orgID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, orgID, userID, unreadOnly, limit, offset)
}

func (s *Service) Count(ctx context.Context, orgID, userID string, unreadOnly bool) (int, error) {
	return s.store.CountNotifications(ctx, orgID, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, orgID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, orgID, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, orgID, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, orgID, userID)
}
