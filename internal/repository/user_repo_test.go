package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"jobportal/internal/domain"
)

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// failingDB responde a todo con el mismo error de postgres.
type failingDB struct{ err error }

func (db failingDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, db.err
}

func (db failingDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, db.err
}

func (db failingDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{err: db.err}
}

func TestBuildUserFilter_Empty(t *testing.T) {
	where, args := buildUserFilter(domain.UserListOptions{Search: "   "})
	if where != "" || len(args) != 0 {
		t.Fatalf("expected no filter, got %q %v", where, args)
	}
}

func TestBuildUserFilter_AllFilters(t *testing.T) {
	role := domain.RoleCompany
	blocked := true
	where, args := buildUserFilter(domain.UserListOptions{
		Search:    "acme",
		Role:      &role,
		IsBlocked: &blocked,
	})

	want := ` WHERE (email ILIKE $1 ESCAPE '\' OR role ILIKE $1 ESCAPE '\') AND role = $2 AND is_blocked = $3`
	if where != want {
		t.Fatalf("unexpected where:\n got %q\nwant %q", where, want)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if args[0] != "%acme%" || args[1] != "company" || args[2] != true {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestBuildUserFilter_BlockedFalseIsApplied(t *testing.T) {
	blocked := false
	where, args := buildUserFilter(domain.UserListOptions{IsBlocked: &blocked})
	if where != " WHERE is_blocked = $1" {
		t.Fatalf("unexpected where %q", where)
	}
	if len(args) != 1 || args[0] != false {
		t.Fatalf("unexpected args %+v", args)
	}
}

func TestBuildUserFilter_EscapesWildcards(t *testing.T) {
	_, args := buildUserFilter(domain.UserListOptions{Search: `50%_off\`})
	if len(args) != 1 || args[0] != `%50\%\_off\\%` {
		t.Fatalf("unexpected escaped search %+v", args)
	}
}

func TestUserRepository_MalformedIDIsNotFound(t *testing.T) {
	repo := &PgUserRepository{pool: failingDB{err: &pgconn.PgError{Code: "22P02"}}}
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "not-a-uuid"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("GetByID: expected ErrNoRows, got %v", err)
	}
	if err := repo.UpdateBlockStatus(ctx, "not-a-uuid", true); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("UpdateBlockStatus: expected ErrNoRows, got %v", err)
	}
	if err := repo.UpdatePassword(ctx, "not-a-uuid", "hash"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("UpdatePassword: expected ErrNoRows, got %v", err)
	}
	if err := repo.UpdateRefreshToken(ctx, "not-a-uuid", nil); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("UpdateRefreshToken: expected ErrNoRows, got %v", err)
	}
}

func TestUserRepository_OtherErrorsPassThrough(t *testing.T) {
	dbErr := &pgconn.PgError{Code: "57P01"}
	repo := &PgUserRepository{pool: failingDB{err: dbErr}}

	_, err := repo.GetByID(context.Background(), "11111111-1111-1111-1111-111111111111")
	if errors.Is(err, pgx.ErrNoRows) || !errors.Is(err, dbErr) {
		t.Fatalf("expected original error, got %v", err)
	}
}
