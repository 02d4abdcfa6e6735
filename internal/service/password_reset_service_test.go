package service

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"jobportal/internal/cache"
)

func newRedisResetService(t *testing.T) (*PasswordResetService, *testClock) {
	t.Helper()
	_, client := newTestRedis(t)
	clock := newTestClock()
	svc := NewPasswordResetService(cache.NewRedis(client, ""), "https://app.example.com/")
	svc.now = clock.Now
	return svc, clock
}

func TestPasswordResetService_GenerateAndGet(t *testing.T) {
	svc, _ := newRedisResetService(t)
	ctx := context.Background()

	token, err := svc.GenerateResetToken(ctx, "u1", "a@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	raw, err := hex.DecodeString(token)
	if err != nil || len(raw) != 32 {
		t.Fatalf("expected 32 random bytes hex encoded, got %q", token)
	}

	ticket, err := svc.GetResetToken(ctx, token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ticket == nil || ticket.UserID != "u1" || ticket.Email != "a@x.com" {
		t.Fatalf("unexpected ticket: %+v", ticket)
	}
}

func TestPasswordResetService_StoredWithMatchingTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	svc := NewPasswordResetService(cache.NewRedis(client, ""), "")

	token, err := svc.GenerateResetToken(context.Background(), "u1", "a@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if ttl := mr.TTL("password_reset:" + token); ttl != 15*time.Minute {
		t.Fatalf("expected 15m ttl, got %v", ttl)
	}
}

func TestPasswordResetService_ExpiredByWallClock(t *testing.T) {
	svc, clock := newRedisResetService(t)
	ctx := context.Background()

	token, err := svc.GenerateResetToken(ctx, "u1", "a@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	clock.Advance(16 * time.Minute)
	ticket, err := svc.GetResetToken(ctx, token)
	if err != nil || ticket != nil {
		t.Fatalf("expected expired token nil,nil; got %+v,%v", ticket, err)
	}

	clock.t = clock.t.Add(-16 * time.Minute)
	if ticket, _ := svc.GetResetToken(ctx, token); ticket != nil {
		t.Fatalf("expected expired token to be deleted on detection")
	}
}

func TestPasswordResetService_InvalidateIsIdempotent(t *testing.T) {
	svc, _ := newRedisResetService(t)
	ctx := context.Background()

	token, err := svc.GenerateResetToken(ctx, "u1", "a@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := svc.InvalidateToken(ctx, token); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := svc.InvalidateToken(ctx, token); err != nil {
		t.Fatalf("second invalidate should succeed, got %v", err)
	}
	if ticket, _ := svc.GetResetToken(ctx, token); ticket != nil {
		t.Fatalf("expected invalidated token to be gone")
	}
}

func TestPasswordResetService_UnknownAndCorruptTokens(t *testing.T) {
	secrets := cache.NewMemory()
	svc := NewPasswordResetService(secrets, "")
	ctx := context.Background()

	if ticket, err := svc.GetResetToken(ctx, "nope"); err != nil || ticket != nil {
		t.Fatalf("expected unknown token nil,nil; got %+v,%v", ticket, err)
	}
	if ticket, err := svc.GetResetToken(ctx, "  "); err != nil || ticket != nil {
		t.Fatalf("expected blank token nil,nil; got %+v,%v", ticket, err)
	}
	if err := secrets.Set(ctx, "password_reset:bad", "{not json", time.Minute); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ticket, err := svc.GetResetToken(ctx, "bad"); err != nil || ticket != nil {
		t.Fatalf("expected corrupt record nil,nil; got %+v,%v", ticket, err)
	}
}

func TestPasswordResetService_ResetLink(t *testing.T) {
	svc := NewPasswordResetService(cache.NewMemory(), "https://app.example.com/")
	got := svc.ResetLink("abc123")
	if got != "https://app.example.com/reset-password?token=abc123" {
		t.Fatalf("unexpected link %q", got)
	}
}
