package notifications

import "context"

func (s *Store) CreateNotification(ctx context.Context, orgID, userID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (org_id, user_id, type, title, body)
    VALUES ($1,$2,$3,$4,$5)
  `, orgID, userID, ntype, title, body)
	return err
}

func (s *Store) ListNotifications(ctx context.Context, orgID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE org_id = $1 AND user_id = $2 AND (NOT $3 OR read_at IS NULL)
    ORDER BY created_at DESC
    LIMIT $4 OFFSET $5
  `, orgID, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountNotifications(ctx context.Context, orgID, userID string, unreadOnly bool) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications
    WHERE org_id = $1 AND user_id = $2 AND (NOT $3 OR read_at IS NULL)
  `, orgID, userID, unreadOnly).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, orgID, userID, notificationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE org_id = $1 AND user_id = $2 AND id = $3
  `, orgID, userID, notificationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, orgID, userID string) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE org_id = $1 AND user_id = $2 AND read_at IS NULL
  `, orgID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
