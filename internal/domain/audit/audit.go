package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"appraisal/internal/platform/querier"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorUser  string
}

// Recorder is what handlers need to write events.
type Recorder interface {
	Record(ctx context.Context, orgID, actorID, action, entityType, entityID, requestID, ip string, before, after any)
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

// Record writes one event. Failures are logged and never reach the caller,
// the write it describes has already happened.
func (s *Service) Record(ctx context.Context, orgID, actorID, action, entityType, entityID, requestID, ip string, before, after any) {
	if err := s.Insert(ctx, orgID, actorID, action, entityType, entityID, requestID, ip, before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}

func (s *Service) Insert(ctx context.Context, orgID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, err := marshal(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return err
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (org_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, orgID, nullable(actorID), action, entityType, entityID, beforeJSON, afterJSON, requestID, ip)
	return err
}

func (s *Service) Count(ctx context.Context, orgID string, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", orgID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, orgID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	selectCols := "id, COALESCE(actor_user_id::text, ''), action, entity_type, COALESCE(entity_id, ''), COALESCE(request_id, ''), COALESCE(ip, ''), created_at"
	if includeDetails {
		selectCols += ", before_json, after_json"
	}
	query, args := buildBaseQuery("SELECT "+selectCols, orgID, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix, orgID string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE org_id = $1"
	args := []any{orgID}
	add := func(clause, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}
	add(" AND action = $%d", filter.Action)
	add(" AND entity_type = $%d", filter.EntityType)
	add(" AND entity_id = $%d", filter.EntityID)
	add(" AND actor_user_id::text = $%d", filter.ActorUser)
	return query, args
}

func marshal(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
