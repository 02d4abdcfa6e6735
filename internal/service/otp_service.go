package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"jobportal/internal/cache"
	"jobportal/internal/domain"
)

const (
	defaultOTPTTL     = 5 * time.Minute
	otpCooldown       = 30 * time.Second
	otpLastSentTTL    = 60 * time.Second
	otpKeyPrefix      = "otp:"
	otpLastSentPrefix = "otp_last_sent:"
	otpMin            = 100000
	otpRange          = 900000
)

// OTPEngine genera y verifica codigos de un solo uso por identificador.
type OTPEngine interface {
	GenerateAndStore(ctx context.Context, identifier string, ttl time.Duration) (string, error)
	Verify(ctx context.Context, identifier, code string) (bool, error)
}

// OTPService guarda codigos de 6 digitos en el SecretCache.
type OTPService struct {
	cache cache.SecretCache
	now   func() time.Time
}

func NewOTPService(secrets cache.SecretCache) *OTPService {
	return &OTPService{cache: secrets, now: time.Now}
}

// GenerateAndStore emite un codigo nuevo. Falla con domain.ErrOTPCooldown si
// ya hay un codigo vivo enviado hace menos de 30 segundos.
func (s *OTPService) GenerateAndStore(ctx context.Context, identifier string, ttl time.Duration) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", errors.New("otp identifier is required")
	}
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}

	_, hasCode, err := s.cache.Get(ctx, otpKeyPrefix+identifier)
	if err != nil {
		return "", fmt.Errorf("read otp: %w", err)
	}
	if hasCode {
		lastSent, ok, err := s.cache.Get(ctx, otpLastSentPrefix+identifier)
		if err != nil {
			return "", fmt.Errorf("read otp last sent: %w", err)
		}
		if ok {
			if ms, err := strconv.ParseInt(lastSent, 10, 64); err == nil {
				if s.now().Sub(time.UnixMilli(ms)) < otpCooldown {
					return "", domain.ErrOTPCooldown
				}
			}
		}
	}

	code, err := generateOTPCode()
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, otpKeyPrefix+identifier, code, ttl); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.cache.Set(ctx, otpLastSentPrefix+identifier, stamp, otpLastSentTTL); err != nil {
		return "", fmt.Errorf("store otp last sent: %w", err)
	}
	return code, nil
}

// Verify consume el codigo si coincide. Un codigo incorrecto sigue vigente.
func (s *OTPService) Verify(ctx context.Context, identifier, code string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	code = strings.TrimSpace(code)
	if identifier == "" || !isValidOTPCode(code) {
		return false, nil
	}
	return s.cache.CompareAndDelete(ctx, otpKeyPrefix+identifier, code)
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
