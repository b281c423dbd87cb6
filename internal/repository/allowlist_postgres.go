package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/imei-service/internal/domain"
)

type postgresAllowListRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAllowListRepository returns a Postgres-backed implementation.
func NewPostgresAllowListRepository(pool *pgxpool.Pool) AllowListRepository {
	return &postgresAllowListRepository{pool: pool}
}

func (r *postgresAllowListRepository) Add(ctx context.Context, user domain.AuthorizedUser) error {
	const query = `
        INSERT INTO authorized_users (user_id, username, added_date)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username, added_date = EXCLUDED.added_date`

	_, err := r.pool.Exec(ctx, query, user.UserID, user.Username, formatAddedDate(user.AddedDate))
	return storeErr("add authorized user", err)
}

func (r *postgresAllowListRepository) Remove(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM authorized_users WHERE user_id=$1`, userID)
	return storeErr("remove authorized user", err)
}

func (r *postgresAllowListRepository) Contains(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM authorized_users WHERE user_id=$1`, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("check authorized user", err)
	}
	return true, nil
}

func (r *postgresAllowListRepository) List(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM authorized_users`)
	if err != nil {
		return nil, storeErr("list authorized users", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, storeErr("list authorized users", err)
	}
	return ids, nil
}

func (r *postgresAllowListRepository) Ping(ctx context.Context) error {
	return storeErr("ping postgres", r.pool.Ping(ctx))
}
