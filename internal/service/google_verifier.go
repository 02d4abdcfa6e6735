package service

import (
	"context"
	"strings"

	"google.golang.org/api/idtoken"

	"jobportal/internal/domain"
)

// IdentityProfile son los datos de identidad que confiamos de un ID token.
type IdentityProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// IdentityVerifier valida ID tokens de un proveedor externo.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (IdentityProfile, error)
}

type idTokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier verifica firma, emisor y audiencia contra las claves de Google.
type GoogleVerifier struct {
	validator idTokenValidator
	clientID  string
}

func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleVerifier{validator: v, clientID: clientID}, nil
}

func (g *GoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (IdentityProfile, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" || g.clientID == "" {
		return IdentityProfile{}, domain.ErrInvalidIdentityToken
	}
	payload, err := g.validator.Validate(ctx, idToken, g.clientID)
	if err != nil {
		return IdentityProfile{}, domain.ErrInvalidIdentityToken
	}

	profile := IdentityProfile{
		Subject:       payload.Subject,
		Email:         claimString(payload.Claims, "email"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
		Name:          claimString(payload.Claims, "name"),
		Picture:       claimString(payload.Claims, "picture"),
	}
	if profile.Email == "" {
		return IdentityProfile{}, domain.ErrInvalidIdentityToken
	}
	return profile, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// email_verified llega como bool o como string segun el cliente.
func claimBool(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}
