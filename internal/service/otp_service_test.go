package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"jobportal/internal/cache"
	"jobportal/internal/domain"
)

type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newRedisOTPService(t *testing.T) (*OTPService, *miniredis.Miniredis, *testClock) {
	t.Helper()
	mr, client := newTestRedis(t)
	clock := newTestClock()
	svc := NewOTPService(cache.NewRedis(client, ""))
	svc.now = clock.Now
	return svc, mr, clock
}

func TestOTPService_GenerateStoresSixDigitCode(t *testing.T) {
	svc, mr, _ := newRedisOTPService(t)

	code, err := svc.GenerateAndStore(context.Background(), "a@x.com", 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	n, err := strconv.Atoi(code)
	if err != nil || len(code) != 6 || n < 100000 || n > 999999 {
		t.Fatalf("expected 6 digit code in range, got %q", code)
	}
	if got, _ := mr.Get("otp:a@x.com"); got != code {
		t.Fatalf("expected code stored under otp key, got %q", got)
	}
	if ttl := mr.TTL("otp:a@x.com"); ttl != 5*time.Minute {
		t.Fatalf("expected default ttl 5m, got %v", ttl)
	}
	if ttl := mr.TTL("otp_last_sent:a@x.com"); ttl != 60*time.Second {
		t.Fatalf("expected last-sent ttl 60s, got %v", ttl)
	}
}

func TestOTPService_CooldownBetweenIssuances(t *testing.T) {
	svc, _, clock := newRedisOTPService(t)
	ctx := context.Background()

	if _, err := svc.GenerateAndStore(ctx, "a@x.com", 0); err != nil {
		t.Fatalf("first generate: %v", err)
	}

	clock.Advance(10 * time.Second)
	_, err := svc.GenerateAndStore(ctx, "a@x.com", 0)
	if !errors.Is(err, domain.ErrOTPCooldown) {
		t.Fatalf("expected ErrOTPCooldown, got %v", err)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected cooldown to be a rate-limit error")
	}

	clock.Advance(21 * time.Second)
	if _, err := svc.GenerateAndStore(ctx, "a@x.com", 0); err != nil {
		t.Fatalf("expected generate after cooldown to succeed, got %v", err)
	}
}

func TestOTPService_CooldownIsPerIdentifier(t *testing.T) {
	svc, _, _ := newRedisOTPService(t)
	ctx := context.Background()

	if _, err := svc.GenerateAndStore(ctx, "a@x.com", 0); err != nil {
		t.Fatalf("generate a: %v", err)
	}
	if _, err := svc.GenerateAndStore(ctx, "b@x.com", 0); err != nil {
		t.Fatalf("generate b should not be throttled by a: %v", err)
	}
}

func TestOTPService_NoCooldownWhenCodeConsumed(t *testing.T) {
	svc, _, _ := newRedisOTPService(t)
	ctx := context.Background()

	code, err := svc.GenerateAndStore(ctx, "a@x.com", 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if ok, err := svc.Verify(ctx, "a@x.com", code); err != nil || !ok {
		t.Fatalf("verify: %v,%v", ok, err)
	}
	if _, err := svc.GenerateAndStore(ctx, "a@x.com", 0); err != nil {
		t.Fatalf("expected new code once previous was consumed, got %v", err)
	}
}

func TestOTPService_VerifyIsSingleUse(t *testing.T) {
	svc, _, _ := newRedisOTPService(t)
	ctx := context.Background()

	code, err := svc.GenerateAndStore(ctx, "a@x.com", 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	ok, err := svc.Verify(ctx, "a@x.com", code)
	if err != nil || !ok {
		t.Fatalf("expected first verify true, got %v,%v", ok, err)
	}
	ok, err = svc.Verify(ctx, "a@x.com", code)
	if err != nil || ok {
		t.Fatalf("expected second verify false, got %v,%v", ok, err)
	}
}

func TestOTPService_WrongCodeKeepsCodeValid(t *testing.T) {
	svc, _, _ := newRedisOTPService(t)
	ctx := context.Background()

	code, err := svc.GenerateAndStore(ctx, "a@x.com", 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	wrong := "000000"
	if code == wrong {
		wrong = "999999"
	}
	if ok, _ := svc.Verify(ctx, "a@x.com", wrong); ok {
		t.Fatalf("expected wrong code rejected")
	}
	if ok, _ := svc.Verify(ctx, "a@x.com", code); !ok {
		t.Fatalf("expected right code to still verify after a miss")
	}
}

func TestOTPService_VerifyAfterExpiry(t *testing.T) {
	svc, mr, _ := newRedisOTPService(t)
	ctx := context.Background()

	code, err := svc.GenerateAndStore(ctx, "a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	mr.FastForward(time.Minute)
	if ok, err := svc.Verify(ctx, "a@x.com", code); err != nil || ok {
		t.Fatalf("expected expired code false,nil; got %v,%v", ok, err)
	}
}

func TestOTPService_VerifyRejectsMalformedCode(t *testing.T) {
	svc := NewOTPService(cache.NewMemory())
	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		if ok, err := svc.Verify(context.Background(), "a@x.com", code); err != nil || ok {
			t.Fatalf("expected malformed code %q rejected, got %v,%v", code, ok, err)
		}
	}
}
