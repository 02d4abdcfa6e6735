package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jobportal/internal/cache"
)

const (
	resetTokenTTL    = 15 * time.Minute
	resetTokenBytes  = 32
	resetTokenPrefix = "password_reset:"
)

// ResetEngine administra tokens de reseteo de contraseña de un solo uso.
type ResetEngine interface {
	GenerateResetToken(ctx context.Context, userID, email string) (string, error)
	GetResetToken(ctx context.Context, token string) (*ResetTicket, error)
	InvalidateToken(ctx context.Context, token string) error
	ResetLink(token string) string
}

// ResetTicket identifica a quien pertenece un token de reseteo valido.
type ResetTicket struct {
	UserID string
	Email  string
}

type resetRecord struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PasswordResetService guarda los tokens en el SecretCache.
type PasswordResetService struct {
	cache       cache.SecretCache
	frontendURL string
	now         func() time.Time
}

func NewPasswordResetService(secrets cache.SecretCache, frontendURL string) *PasswordResetService {
	return &PasswordResetService{
		cache:       secrets,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

func (s *PasswordResetService) GenerateResetToken(ctx context.Context, userID, email string) (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	record := resetRecord{
		UserID:    userID,
		Email:     email,
		Token:     token,
		ExpiresAt: s.now().UTC().Add(resetTokenTTL),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, resetTokenPrefix+token, string(payload), resetTokenTTL); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// GetResetToken devuelve nil si el token no existe, esta corrupto o vencio.
// Un token vencido se borra en el acto aunque el cache aun lo conserve.
func (s *PasswordResetService) GetResetToken(ctx context.Context, token string) (*ResetTicket, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, ok, err := s.cache.Get(ctx, resetTokenPrefix+token)
	if err != nil {
		return nil, fmt.Errorf("read reset token: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var record resetRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, nil
	}
	if s.now().After(record.ExpiresAt) {
		if err := s.InvalidateToken(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &ResetTicket{UserID: record.UserID, Email: record.Email}, nil
}

func (s *PasswordResetService) InvalidateToken(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, resetTokenPrefix+token); err != nil {
		return fmt.Errorf("invalidate reset token: %w", err)
	}
	return nil
}

// ResetLink arma la URL del frontend que recibe el token.
func (s *PasswordResetService) ResetLink(token string) string {
	return s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
}
