package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/imei-service/internal/domain"
	"github.com/spec-kit/imei-service/internal/persistence"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := persistence.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "users.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRepository(t *testing.T) AllowListRepository {
	t.Helper()
	return NewSQLiteAllowListRepository(newTestDB(t))
}

func TestAddContainsRemove(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Add(ctx, domain.AuthorizedUser{UserID: 5, AddedDate: time.Now()}); err != nil {
		t.Fatalf("add: %v", err)
	}
	ok, err := repo.Contains(ctx, 5)
	if err != nil || !ok {
		t.Fatalf("expected 5 to be authorized, ok=%v err=%v", ok, err)
	}

	if err := repo.Remove(ctx, 5); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ok, err = repo.Contains(ctx, 5)
	if err != nil || ok {
		t.Fatalf("expected 5 to be gone, ok=%v err=%v", ok, err)
	}
}

func TestRemoveAbsentUserIsNotAnError(t *testing.T) {
	t.Parallel()

	if err := newTestRepository(t).Remove(context.Background(), 404); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestAddReplacesExistingRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewSQLiteAllowListRepository(db)
	ctx := context.Background()
	name := "alice"
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)

	if err := repo.Add(ctx, domain.AuthorizedUser{UserID: 5, Username: &name, AddedDate: t1}); err != nil {
		t.Fatalf("add t1: %v", err)
	}
	if err := repo.Add(ctx, domain.AuthorizedUser{UserID: 5, AddedDate: t2}); err != nil {
		t.Fatalf("add t2: %v", err)
	}

	ids, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != 5 {
		t.Fatalf("expected exactly one record for 5, got %v", ids)
	}

	var (
		username  sql.NullString
		addedDate string
	)
	err = db.QueryRowContext(ctx,
		`SELECT username, added_date FROM authorized_users WHERE user_id = 5`,
	).Scan(&username, &addedDate)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if addedDate != t2.Format(time.RFC3339Nano) {
		t.Fatalf("expected added date %v, got %q", t2, addedDate)
	}
	if username.Valid {
		t.Fatalf("expected username to be replaced, got %q", username.String)
	}
}

func TestListReturnsAllUsers(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()
	for _, id := range []int64{30, 10, 20} {
		if err := repo.Add(ctx, domain.AuthorizedUser{UserID: id}); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}

	ids, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	seen := map[int64]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if len(ids) != 3 || !seen[10] || !seen[20] || !seen[30] {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestConcurrentAddsOfSameIdentity(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Add(ctx, domain.AuthorizedUser{UserID: 7, AddedDate: time.Now()})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	ids, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected one record, got %v", ids)
	}
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	t.Parallel()

	db, err := persistence.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "closed.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	repo := NewSQLiteAllowListRepository(db)
	_ = db.Close()

	_, err = repo.Contains(context.Background(), 1)
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}
