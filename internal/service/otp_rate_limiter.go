package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPRateLimiter acota cuantas veces se puede pedir un OTP por identificador
// dentro de una ventana. Es complementario al cooldown del OTPEngine.
type OTPRateLimiter interface {
	Allow(ctx context.Context, identifier string) bool
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

type otpWindow struct {
	count   int
	resetAt time.Time
}

type memoryOTPRateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	hits      map[string]*otpWindow
	nextSweep time.Time
	now       func() time.Time
}

// NewMemoryOTPRateLimiter crea un limiter de ventana fija en memoria, con la
// misma semantica que la version redis.
func NewMemoryOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	return newMemoryOTPRateLimiter(window, max, time.Now)
}

func newMemoryOTPRateLimiter(window time.Duration, max int, now func() time.Time) *memoryOTPRateLimiter {
	if window <= 0 {
		window = 10 * time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &memoryOTPRateLimiter{
		window:    window,
		max:       max,
		hits:      make(map[string]*otpWindow),
		nextSweep: now().Add(window),
		now:       now,
	}
}

func (l *memoryOTPRateLimiter) Allow(_ context.Context, identifier string) bool {
	key := normalizeIdentifier(identifier)
	if key == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		l.sweep(now)
	}

	w, ok := l.hits[key]
	if !ok || !now.Before(w.resetAt) {
		w = &otpWindow{resetAt: now.Add(l.window)}
		l.hits[key] = w
	}
	w.count++
	return w.count <= l.max
}

// sweep descarta las ventanas vencidas. Se llama con el mutex tomado.
func (l *memoryOTPRateLimiter) sweep(now time.Time) {
	for key, w := range l.hits {
		if !now.Before(w.resetAt) {
			delete(l.hits, key)
		}
	}
	l.nextSweep = now.Add(l.window)
}

const otpRequestCountScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisOTPRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
}

// NewRedisOTPRateLimiter cuenta solicitudes con INCR + EXPIRE. Si redis falla
// deja pasar la solicitud: el cooldown del OTPEngine sigue aplicando.
func NewRedisOTPRateLimiter(client *redis.Client, window time.Duration, max int) OTPRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = 10 * time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisOTPRateLimiter{client: client, window: window, max: max}
}

func (l *redisOTPRateLimiter) Allow(ctx context.Context, identifier string) bool {
	key := normalizeIdentifier(identifier)
	if key == "" {
		return false
	}
	if l == nil || l.client == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window / time.Second)
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, otpRequestCountScript, []string{"otp_requests:" + key}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}
