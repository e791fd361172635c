package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-event-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ParticipantStore persists participants in the participants table.
type ParticipantStore struct {
	pool *pgxpool.Pool
}

func NewParticipantStore(pool *pgxpool.Pool) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

// Resolve looks the identity up first and inserts on a miss. The unique
// identity constraint turns a concurrent duplicate insert into a no-op, in
// which case the winner's id is returned as a login.
func (s *ParticipantStore) Resolve(ctx context.Context, identity domain.Identity) (domain.Resolution, error) {
	id, err := s.lookup(ctx, identity)
	if err == nil {
		return domain.Resolution{ParticipantID: id, Outcome: domain.OutcomeLogin}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Resolution{}, fmt.Errorf("lookup participant: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO participants (name, class_name, mobile, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name, class_name, mobile, email) DO NOTHING
		RETURNING id`,
		identity.Name, identity.ClassName, identity.Mobile, identity.Email,
	).Scan(&id)
	if err == nil {
		return domain.Resolution{ParticipantID: id, Outcome: domain.OutcomeRegister}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Resolution{}, fmt.Errorf("insert participant: %w", err)
	}

	id, err = s.lookup(ctx, identity)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("lookup participant after conflict: %w", err)
	}
	return domain.Resolution{ParticipantID: id, Outcome: domain.OutcomeLogin}, nil
}

func (s *ParticipantStore) lookup(ctx context.Context, identity domain.Identity) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM participants
		WHERE name = $1 AND class_name = $2 AND mobile = $3 AND email = $4`,
		identity.Name, identity.ClassName, identity.Mobile, identity.Email,
	).Scan(&id)
	return id, err
}

// RecordScore locks the participant row, then updates score and time_of_play
// in the same transaction.
func (s *ParticipantStore) RecordScore(ctx context.Context, id int64, score int, at time.Time) (domain.Participant, error) {
	p := domain.Participant{ID: id}
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT name, class_name, mobile, email FROM participants
			WHERE id = $1 FOR UPDATE`, id,
		).Scan(&p.Identity.Name, &p.Identity.ClassName, &p.Identity.Mobile, &p.Identity.Email)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrParticipantNotFound
		}
		if err != nil {
			return fmt.Errorf("load participant: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE participants SET score = $1, time_of_play = $2 WHERE id = $3`,
			score, at, id,
		); err != nil {
			return fmt.Errorf("update score: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Participant{}, err
	}
	submitted := at
	p.Score = &score
	p.SubmittedAt = &submitted
	return p, nil
}

// ListParticipants returns every participant, best score first and
// participants without a score last.
func (s *ParticipantStore) ListParticipants(ctx context.Context) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, class_name, mobile, email, score, time_of_play
		FROM participants
		ORDER BY score DESC NULLS LAST, time_of_play ASC NULLS LAST, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.Identity.Name, &p.Identity.ClassName, &p.Identity.Mobile, &p.Identity.Email, &p.Score, &p.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
