package service

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/idtoken"

	"jobportal/internal/domain"
)

type stubIDTokenValidator struct {
	payload  *idtoken.Payload
	err      error
	audience string
}

func (s *stubIDTokenValidator) Validate(_ context.Context, _ string, audience string) (*idtoken.Payload, error) {
	s.audience = audience
	return s.payload, s.err
}

func TestGoogleVerifier_ExtractsProfile(t *testing.T) {
	stub := &stubIDTokenValidator{payload: &idtoken.Payload{
		Subject: "g-123",
		Claims: map[string]interface{}{
			"email":          "ana@gmail.com",
			"email_verified": "true",
			"name":           "Ana",
			"picture":        "https://img/ana.png",
		},
	}}
	v := &GoogleVerifier{validator: stub, clientID: "client-1"}

	profile, err := v.VerifyIDToken(context.Background(), "token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if stub.audience != "client-1" {
		t.Fatalf("expected audience to be client id, got %q", stub.audience)
	}
	if profile.Email != "ana@gmail.com" || !profile.EmailVerified || profile.Name != "Ana" || profile.Subject != "g-123" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestGoogleVerifier_Rejections(t *testing.T) {
	cases := []struct {
		name     string
		clientID string
		token    string
		stub     *stubIDTokenValidator
	}{
		{"empty token", "client-1", " ", &stubIDTokenValidator{}},
		{"missing client id", "", "token", &stubIDTokenValidator{}},
		{"validator error", "client-1", "token", &stubIDTokenValidator{err: errors.New("bad signature")}},
		{"no email claim", "client-1", "token", &stubIDTokenValidator{payload: &idtoken.Payload{Claims: map[string]interface{}{}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &GoogleVerifier{validator: tc.stub, clientID: tc.clientID}
			_, err := v.VerifyIDToken(context.Background(), tc.token)
			if !errors.Is(err, domain.ErrInvalidIdentityToken) || !errors.Is(err, domain.ErrAuthentication) {
				t.Fatalf("expected invalid identity token, got %v", err)
			}
		})
	}
}
