package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by Acquire when a request exceeds either
// the shared or the per-caller budget.
var ErrRateLimited = errors.New("rate limited")

// Limits describes the request budgets for the sanitize API.
type Limits struct {
	// GlobalRPM bounds all callers together.
	GlobalRPM int
	// CallerRPM bounds each caller key (API key or remote address).
	CallerRPM int
	// CallerBurst is the per-caller bucket depth; zero derives it from
	// CallerRPM.
	CallerBurst int
	// IdleEviction drops a caller's bucket after this much inactivity
	// so one-off clients do not accumulate. Zero uses a default.
	IdleEviction time.Duration
}

const defaultIdleEviction = 10 * time.Minute

func (l Limits) withDefaults() Limits {
	if l.GlobalRPM < 1 {
		l.GlobalRPM = 1
	}
	if l.CallerRPM < 1 {
		l.CallerRPM = 1
	}
	if l.CallerBurst < 1 {
		l.CallerBurst = l.CallerRPM
	}
	if l.IdleEviction <= 0 {
		l.IdleEviction = defaultIdleEviction
	}
	return l
}

type callerBucket struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// Limiter enforces the configured Limits over a shared bucket plus one
// bucket per caller key, evicting callers that have gone idle.
type Limiter struct {
	mu      sync.Mutex
	limits  Limits
	shared  *rate.Limiter
	callers map[string]*callerBucket
	now     func() time.Time
}

// NewLimiter builds a limiter from the given budgets.
func NewLimiter(limits Limits) *Limiter {
	limits = limits.withDefaults()
	return &Limiter{
		limits:  limits,
		shared:  rate.NewLimiter(rate.Limit(float64(limits.GlobalRPM)/60.0), limits.GlobalRPM),
		callers: make(map[string]*callerBucket),
		now:     time.Now,
	}
}

// Acquire consumes one request slot for caller, or reports why it was
// refused.
func (l *Limiter) Acquire(caller string) error {
	if !l.shared.Allow() {
		log.Warn().Str("caller", caller).Msg("shared rate budget exhausted")
		return fmt.Errorf("%w: shared budget exhausted", ErrRateLimited)
	}

	l.mu.Lock()
	now := l.now()
	l.evictIdle(now)
	cb, ok := l.callers[caller]
	if !ok {
		cb = &callerBucket{
			bucket: rate.NewLimiter(rate.Limit(float64(l.limits.CallerRPM)/60.0), l.limits.CallerBurst),
		}
		l.callers[caller] = cb
	}
	cb.lastSeen = now
	l.mu.Unlock()

	if !cb.bucket.Allow() {
		log.Warn().Str("caller", caller).Msg("caller rate budget exhausted")
		return fmt.Errorf("%w: caller budget exhausted", ErrRateLimited)
	}
	return nil
}

// evictIdle removes buckets not seen within the eviction window. Caller
// holds l.mu.
func (l *Limiter) evictIdle(now time.Time) {
	for key, cb := range l.callers {
		if now.Sub(cb.lastSeen) > l.limits.IdleEviction {
			delete(l.callers, key)
		}
	}
}
