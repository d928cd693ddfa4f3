package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barakahq/authkit/pkg/pg"
)

// PostgresStore persists profiles in the profiles table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GenerationsLeft(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT generations_left FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, ErrProfileNotFound
		}
		return 0, errors.Join(ErrStoreUnavailable, err)
	}
	return count, nil
}

func (s *PostgresStore) SetGenerationsLeft(ctx context.Context, userID uuid.UUID, count int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, generations_left, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id)
		 DO UPDATE SET generations_left = EXCLUDED.generations_left, updated_at = now()`,
		userID, count,
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
