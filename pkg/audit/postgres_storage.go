package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditColumns = "id, tenant_id, actor, session_id, action, resource, resource_id, result, error, request_id, ip, metadata, checksum, created_at"

// PostgresStorage persists audit events in the audit_events table. It is the
// primary queryable store; the billing audit-log endpoint reads from it.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a PostgreSQL-backed audit storage.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	if pool == nil {
		panic("audit: pgx pool cannot be nil")
	}
	return &PostgresStorage{pool: pool}
}

func (s *PostgresStorage) Store(ctx context.Context, event Event) error {
	meta, err := marshalMetadata(event.Metadata)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO audit_events (`+auditColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		event.ID, event.TenantID, event.Actor, event.SessionID, event.Action,
		event.Resource, event.ResourceID, string(event.Result), event.Error,
		event.RequestID, event.IP, meta, event.Checksum, event.CreatedAt)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

// StoreBatch inserts all events in one round trip.
func (s *PostgresStorage) StoreBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, event := range events {
		meta, err := marshalMetadata(event.Metadata)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO audit_events (`+auditColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			event.ID, event.TenantID, event.Actor, event.SessionID, event.Action,
			event.Resource, event.ResourceID, string(event.Result), event.Error,
			event.RequestID, event.IP, meta, event.Checksum, event.CreatedAt)
	}

	results := s.pool.SendBatch(ctx, batch)
	for range events {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return errors.Join(ErrStorageUnavailable, err)
		}
	}
	if err := results.Close(); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	where, args := whereClause(criteria)
	args = append(args, criteria.limit(), criteria.Offset)
	query := fmt.Sprintf(`
		SELECT `+auditColumns+`
		FROM audit_events%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return events, nil
}

func (s *PostgresStorage) Count(ctx context.Context, criteria Criteria) (int64, error) {
	where, args := whereClause(criteria)

	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM audit_events"+where, args...).Scan(&count); err != nil {
		return 0, errors.Join(ErrQueryFailed, err)
	}
	return count, nil
}

// whereClause builds the WHERE fragment for the set criteria fields.
// Placeholder numbering starts at $1 so pagination args append cleanly.
func whereClause(c Criteria) (string, []any) {
	var conds []string
	var args []any
	add := func(expr string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if c.TenantID != "" {
		add("tenant_id = $%d", c.TenantID)
	}
	if c.Actor != "" {
		add("actor = $%d", c.Actor)
	}
	if c.Action != "" {
		add("action = $%d", c.Action)
	}
	if c.Resource != "" {
		add("resource = $%d", c.Resource)
	}
	if c.Result != "" {
		add("result = $%d", string(c.Result))
	}
	if !c.Since.IsZero() {
		add("created_at >= $%d", c.Since)
	}
	if !c.Until.IsZero() {
		add("created_at < $%d", c.Until)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEvent(row pgx.Row) (*Event, error) {
	var event Event
	var result string
	var meta []byte
	if err := row.Scan(&event.ID, &event.TenantID, &event.Actor, &event.SessionID,
		&event.Action, &event.Resource, &event.ResourceID, &result, &event.Error,
		&event.RequestID, &event.IP, &meta, &event.Checksum, &event.CreatedAt); err != nil {
		return nil, err
	}
	event.Result = Result(result)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &event.Metadata); err != nil {
			return nil, err
		}
	}
	return &event, nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.Join(ErrInvalidEvent, err)
	}
	return meta, nil
}
