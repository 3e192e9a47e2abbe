package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "github.com/WestCoastInformatics/snowstorm-1/pkg/platform/audit"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/audit/outbox"
	txcontext "github.com/WestCoastInformatics/snowstorm-1/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table inside the commit transaction, so an aborted
// commit leaves no audit trail, and are published to Kafka by the outbox relay.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	Branch    string `json:"branch"`
	CommitID  string `json:"commit_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	Changes   int    `json:"changes"`
	RequestID string `json:"request_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing. The outbox row
// and the published payload share one id.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Always derive category from action - eventCategories map is the source of truth
	category := audit.AuditEvent(event.Action).Category()

	payload := outboxPayload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Branch:    event.Branch,
		CommitID:  event.CommitID,
		Subject:   event.Subject,
		Action:    event.Action,
		Reason:    event.Reason,
		Changes:   event.Changes,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	args := []any{
		eventID,
		"branch",
		event.Branch,
		event.Action,
		string(payloadBytes),
		time.Now().UTC(),
	}

	sqlTx, ok := txcontext.From(ctx)
	if !ok {
		if _, err := s.db.ExecContext(ctx, insertOutboxEntry, args...); err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
		return nil
	}

	// A failed INSERT aborts the whole transaction in PostgreSQL. The savepoint keeps
	// the caller's transaction usable when the audit write is rejected.
	if _, err := sqlTx.ExecContext(ctx, "SAVEPOINT audit_outbox"); err != nil {
		return fmt.Errorf("create outbox savepoint: %w", err)
	}
	if _, err := sqlTx.ExecContext(ctx, insertOutboxEntry, args...); err != nil {
		if _, rbErr := sqlTx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT audit_outbox"); rbErr != nil {
			return errors.Join(fmt.Errorf("insert outbox entry: %w", err), fmt.Errorf("rollback outbox savepoint: %w", rbErr))
		}
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	if _, err := sqlTx.ExecContext(ctx, "RELEASE SAVEPOINT audit_outbox"); err != nil {
		return fmt.Errorf("release outbox savepoint: %w", err)
	}
	return nil
}

const insertOutboxEntry = `
	INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

// FetchUnpublished returns up to limit outbox entries not yet published, oldest first.
// Rows are locked for the surrounding transaction so concurrent relays skip them.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]outbox.Entry, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []outbox.Entry
	for rows.Next() {
		var (
			entry   outbox.Entry
			payload string
		)
		if err := rows.Scan(&entry.ID, &entry.AggregateType, &entry.AggregateID, &entry.EventType, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entry.Payload = []byte(payload)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps the given outbox entries as published.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}
	_, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE outbox SET published_at = $2 WHERE id = ANY($1::uuid[])
	`, pq.Array(values), publishedAt)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// InTx runs fn inside a transaction carried in context.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outbox transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()
	if err := fn(txcontext.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit outbox transaction: %w", err)
	}
	return nil
}
