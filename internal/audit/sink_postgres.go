package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver for the audit outbox
)

// PostgresSink writes audit events to an outbox table. A separate relay (or
// the Kafka sink running alongside) ships them downstream; keeping the write
// relational makes the trail queryable in place.
type PostgresSink struct {
	db *sql.DB
}

// OpenPostgresSink connects with the lib/pq driver and ensures the outbox
// table exists.
func OpenPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	sink := &PostgresSink{db: db}
	if err := sink.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id         UUID PRIMARY KEY,
			occurred_at TIMESTAMPTZ NOT NULL,
			client_id  TEXT NOT NULL,
			entity_key TEXT NOT NULL,
			role       TEXT NOT NULL,
			action     TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresSink) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, occurred_at, client_id, entity_key, role, action, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), event.Timestamp, event.ClientID, event.EntityKey,
		event.Role, string(event.Action), event.Reason)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
