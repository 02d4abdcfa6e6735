package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"jobportal/internal/domain"
	"jobportal/internal/repository"
)

// AdminService expone la moderacion de usuarios para administradores.
type AdminService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

func NewAdminService(logger *zap.Logger, users repository.UserRepository) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{logger: logger, users: users}
}

func (s *AdminService) ListUsers(ctx context.Context, opts domain.UserListOptions) (domain.UserPage, error) {
	opts = opts.Normalize()
	users, total, err := s.users.List(ctx, opts)
	if err != nil {
		return domain.UserPage{}, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return domain.UserPage{Users: users, Pagination: domain.NewPagination(opts, total)}, nil
}

func (s *AdminService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// SetBlocked bloquea o desbloquea una cuenta. Bloquear tambien cierra la
// sesion activa; los administradores no se pueden bloquear.
func (s *AdminService) SetBlocked(ctx context.Context, id string, blocked bool) (domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if blocked && user.Role == domain.RoleAdmin {
		return domain.User{}, domain.ErrCannotBlockAdmin
	}

	if err := s.users.UpdateBlockStatus(ctx, id, blocked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("update block status: %w", err)
	}
	user.IsBlocked = blocked

	if blocked {
		if err := s.users.UpdateRefreshToken(ctx, id, nil); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, fmt.Errorf("revoke session: %w", err)
		}
		user.RefreshTokenHash = nil
	}

	s.logger.Info("user block status changed", zap.String("user_id", id), zap.Bool("blocked", blocked))
	return user, nil
}
