package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobportal/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
// Las busquedas sin resultado devuelven pgx.ErrNoRows.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateRefreshToken(ctx context.Context, id string, hash *string) error
	UpdateVerificationStatus(ctx context.Context, email string, verified bool) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateBlockStatus(ctx context.Context, id string, blocked bool) error
	List(ctx context.Context, opts domain.UserListOptions) ([]domain.User, int, error)
}

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const userColumns = `id, name, email, password_hash, role, is_verified, is_blocked, refresh_token_hash, created_at, updated_at`

// dbtx es el subconjunto de pgxpool.Pool que usa el repositorio.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool dbtx
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, name, email, password_hash, role, is_verified, is_blocked, refresh_token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		string(user.Role),
		user.IsVerified,
		user.IsBlocked,
		user.RefreshTokenHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	return user, notFoundOnInvalidID(err)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) UpdateRefreshToken(ctx context.Context, id string, hash *string) error {
	const query = `UPDATE users SET refresh_token_hash = $1, updated_at = NOW() WHERE id = $2`
	return r.execOne(ctx, query, hash, id)
}

func (r *PgUserRepository) UpdateVerificationStatus(ctx context.Context, email string, verified bool) error {
	const query = `UPDATE users SET is_verified = $1, updated_at = NOW() WHERE LOWER(email) = LOWER($2)`
	return r.execOne(ctx, query, verified, email)
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	return r.execOne(ctx, query, passwordHash, id)
}

func (r *PgUserRepository) UpdateBlockStatus(ctx context.Context, id string, blocked bool) error {
	const query = `UPDATE users SET is_blocked = $1, updated_at = NOW() WHERE id = $2`
	return r.execOne(ctx, query, blocked, id)
}

func (r *PgUserRepository) List(ctx context.Context, opts domain.UserListOptions) ([]domain.User, int, error) {
	opts = opts.Normalize()
	where, args := buildUserFilter(opts)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0, opts.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *PgUserRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return notFoundOnInvalidID(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// buildUserFilter arma la clausula WHERE del listado administrativo.
func buildUserFilter(opts domain.UserListOptions) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if search := strings.TrimSpace(opts.Search); search != "" {
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
		conds = append(conds, fmt.Sprintf(`(email ILIKE $%d ESCAPE '\' OR role ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}
	if opts.Role != nil {
		args = append(args, string(*opts.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if opts.IsBlocked != nil {
		args = append(args, *opts.IsBlocked)
		conds = append(conds, fmt.Sprintf("is_blocked = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// notFoundOnInvalidID traduce un id que postgres no puede convertir a UUID
// en pgx.ErrNoRows: ese usuario no existe.
func notFoundOnInvalidID(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return pgx.ErrNoRows
	}
	return err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.IsVerified,
		&u.IsBlocked,
		&u.RefreshTokenHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	return u, nil
}
