package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"presence-chat/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository abstracts the append-only chat event log.
type MessageRepository interface {
	Insert(ctx context.Context, event models.ChatEvent) (models.ChatEvent, error)
	InsertMany(ctx context.Context, events []models.ChatEvent) error
	ListVisibleTo(ctx context.Context, user string, limit int) ([]models.ChatEvent, error)
	Get(ctx context.Context, id int) (models.ChatEvent, error)
	UpdateText(ctx context.Context, id int, text string) error
	Delete(ctx context.Context, id int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert appends a single event and returns it with its assigned id.
func (r *MessageRepo) Insert(ctx context.Context, event models.ChatEvent) (models.ChatEvent, error) {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (from_name, to_name, text, kind, time) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		event.From, event.To, event.Text, event.Kind, event.Time).
		Scan(&event.ID)
	return event, err
}

// InsertMany appends a batch of events in one statement.
func (r *MessageRepo) InsertMany(ctx context.Context, events []models.ChatEvent) error {
	if len(events) == 0 {
		return nil
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO messages (from_name, to_name, text, kind, time)
         VALUES (:from_name, :to_name, :text, :kind, :time)`, events)
	return err
}

// ListVisibleTo returns up to limit most-recent events visible to user, in
// ascending insertion order. Selection is by recency, display is
// chronological: the inner select takes the newest rows, the outer select
// restores log order.
func (r *MessageRepo) ListVisibleTo(ctx context.Context, user string, limit int) ([]models.ChatEvent, error) {
	query := `SELECT id, from_name, to_name, text, kind, time FROM (
            SELECT id, from_name, to_name, text, kind, time FROM messages
            WHERE from_name=$1 OR to_name=$1 OR to_name=$2 OR kind=$3
            ORDER BY id DESC
            LIMIT $4
        ) recent ORDER BY id ASC`
	var events []models.ChatEvent
	err := r.db.SelectContext(ctx, &events, query,
		user, models.BroadcastTarget, models.KindMessage, limit)
	return events, err
}

// Get retrieves a single event by id.
func (r *MessageRepo) Get(ctx context.Context, id int) (models.ChatEvent, error) {
	var event models.ChatEvent
	err := r.db.GetContext(ctx, &event,
		`SELECT id, from_name, to_name, text, kind, time FROM messages WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatEvent{}, ErrMessageNotFound
	}
	return event, err
}

// UpdateText replaces the text of an event; from, to, and kind never change.
func (r *MessageRepo) UpdateText(ctx context.Context, id int, text string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET text=$2 WHERE id=$1`, id, text)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Delete removes an event permanently.
func (r *MessageRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
