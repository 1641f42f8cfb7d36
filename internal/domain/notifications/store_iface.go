package notifications

import "context"

type StoreAPI interface {
	CreateNotification(ctx context.Context, orgID, userID, ntype, title, body string) error
	ListNotifications(ctx context.Context, orgID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	CountNotifications(ctx context.Context, orgID, userID string, unreadOnly bool) (int, error)
	MarkRead(ctx context.Context, orgID, userID, notificationID string) error
	MarkAllRead(ctx context.Context, orgID, userID string) (int64, error)
}
