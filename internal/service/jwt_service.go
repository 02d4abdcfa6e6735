package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"jobportal/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenIssuer firma y valida los dos tipos de bearer token.
type TokenIssuer interface {
	SignAccess(payload TokenPayload) (string, error)
	SignRefresh(payload TokenPayload) (string, error)
	VerifyAccess(token string) (TokenPayload, error)
	VerifyRefresh(token string) (TokenPayload, error)
}

// TokenPayload es el contenido util de un token.
type TokenPayload struct {
	Sub   string      `json:"sub"`
	Role  domain.Role `json:"role,omitempty"`
	Email string      `json:"email,omitempty"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Claims struct {
	Role      domain.Role `json:"role,omitempty"`
	Email     string      `json:"email,omitempty"`
	TokenType string      `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

// JWTService emite y valida tokens JWT sin estado.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

func NewJWTService(cfg JWTConfig) *JWTService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		cfg.Issuer = "jobportal"
	}
	return &JWTService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
}

// AccessTTL expone la vida util de los access tokens.
func (s *JWTService) AccessTTL() time.Duration { return s.accessTTL }

func (s *JWTService) SignAccess(payload TokenPayload) (string, error) {
	return s.sign(payload, s.accessSecret, s.accessTTL, tokenTypeAccess)
}

func (s *JWTService) SignRefresh(payload TokenPayload) (string, error) {
	return s.sign(payload, s.refreshSecret, s.refreshTTL, tokenTypeRefresh)
}

func (s *JWTService) VerifyAccess(token string) (TokenPayload, error) {
	return s.verify(token, s.accessSecret, tokenTypeAccess)
}

func (s *JWTService) VerifyRefresh(token string) (TokenPayload, error) {
	return s.verify(token, s.refreshSecret, tokenTypeRefresh)
}

func (s *JWTService) sign(payload TokenPayload, secret []byte, ttl time.Duration, tokenType string) (string, error) {
	if len(secret) == 0 || strings.TrimSpace(payload.Sub) == "" {
		return "", ErrJWTInvalid
	}
	now := s.now().UTC()
	claims := Claims{
		Role:      payload.Role,
		Email:     payload.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   payload.Sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *JWTService) verify(tokenString string, secret []byte, tokenType string) (TokenPayload, error) {
	if len(secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return TokenPayload{}, ErrJWTInvalid
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenPayload{}, ErrJWTExpired
		}
		return TokenPayload{}, ErrJWTInvalid
	}
	if claims.TokenType != tokenType || strings.TrimSpace(claims.Subject) == "" {
		return TokenPayload{}, ErrJWTInvalid
	}
	return TokenPayload{
		Sub:   claims.Subject,
		Role:  claims.Role,
		Email: claims.Email,
	}, nil
}
