package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"presence-chat/internal/models"
)

var (
	ErrNameTaken           = errors.New("participant name already taken")
	ErrParticipantNotFound = errors.New("participant not found")
)

// ParticipantRepository abstracts the participant registry.
type ParticipantRepository interface {
	Create(ctx context.Context, name string, lastSeen int64) error
	List(ctx context.Context) ([]models.Participant, error)
	Touch(ctx context.Context, name string, lastSeen int64) error
	Exists(ctx context.Context, name string) (bool, error)
	RemoveStale(ctx context.Context, cutoff int64) ([]string, error)
}

// ParticipantRepo is a sqlx implementation of ParticipantRepository.
type ParticipantRepo struct {
	db *sqlx.DB
}

// NewParticipantRepo constructs a ParticipantRepo.
func NewParticipantRepo(db *sqlx.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Create inserts a new participant. The check-and-insert is a single
// statement guarded by the primary key, so two concurrent registrations of
// one name can never both succeed.
func (r *ParticipantRepo) Create(ctx context.Context, name string, lastSeen int64) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO participants (name, last_seen) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, lastSeen)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNameTaken
	}
	return nil
}

// List returns every currently-registered participant.
func (r *ParticipantRepo) List(ctx context.Context) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.SelectContext(ctx, &participants,
		`SELECT name, last_seen FROM participants`)
	return participants, err
}

// Touch advances the participant's last-seen timestamp.
func (r *ParticipantRepo) Touch(ctx context.Context, name string, lastSeen int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE participants SET last_seen=$2 WHERE name=$1`, name, lastSeen)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// Exists reports whether a participant with the exact name is registered.
func (r *ParticipantRepo) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE name=$1)`, name)
	return exists, err
}

// RemoveStale deletes every participant whose last_seen is at or before
// cutoff and returns the removed names. The delete is one statement, so a
// sweep can never leave a partial or duplicate eviction behind.
func (r *ParticipantRepo) RemoveStale(ctx context.Context, cutoff int64) ([]string, error) {
	rows, err := r.db.QueryxContext(ctx,
		`DELETE FROM participants WHERE last_seen <= $1 RETURNING name`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
