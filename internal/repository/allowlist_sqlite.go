package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spec-kit/imei-service/internal/domain"
)

type sqliteAllowListRepository struct {
	db *sql.DB
}

// NewSQLiteAllowListRepository returns a repository over an opened sqlite database.
func NewSQLiteAllowListRepository(db *sql.DB) AllowListRepository {
	return &sqliteAllowListRepository{db: db}
}

func (r *sqliteAllowListRepository) Add(ctx context.Context, user domain.AuthorizedUser) error {
	const query = `
		INSERT INTO authorized_users(user_id, username, added_date)
		VALUES(?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET username = excluded.username, added_date = excluded.added_date`

	_, err := r.db.ExecContext(ctx, query, user.UserID, user.Username, formatAddedDate(user.AddedDate))
	return storeErr("add authorized user", err)
}

func (r *sqliteAllowListRepository) Remove(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM authorized_users WHERE user_id = ?`, userID)
	return storeErr("remove authorized user", err)
}

func (r *sqliteAllowListRepository) Contains(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM authorized_users WHERE user_id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("check authorized user", err)
	}
	return true, nil
}

func (r *sqliteAllowListRepository) List(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM authorized_users`)
	if err != nil {
		return nil, storeErr("list authorized users", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("list authorized users", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list authorized users", err)
	}
	return ids, nil
}

func (r *sqliteAllowListRepository) Ping(ctx context.Context) error {
	return storeErr("ping sqlite", r.db.PingContext(ctx))
}
