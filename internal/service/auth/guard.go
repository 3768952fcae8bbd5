package auth

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Jawadyyy/healthmate-portal/pkg/metrics"
)

const (
	defaultMaxLoginAttempts = 5
	defaultLockoutDuration  = 15 * time.Minute
)

// GuardConfig bounds admin login attempts per client.
type GuardConfig struct {
	MaxAttempts int
	Lockout     time.Duration
}

// Guard counts failed admin logins per client in process memory. It is a
// courtesy lock for the login form; the backend's own rate limit is the real
// one, and a restart clears every counter.
type Guard struct {
	mu      sync.Mutex
	entries *cache.Cache
	max     int
	lockout time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

type guardEntry struct {
	Attempts    int
	LockedUntil time.Time
}

// GuardStatus is the view of one client's counter.
type GuardStatus struct {
	Attempts    int
	Remaining   int
	Locked      bool
	LockedUntil time.Time
}

func NewGuard(cfg GuardConfig, m *metrics.Metrics) *Guard {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxLoginAttempts
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = defaultLockoutDuration
	}
	return &Guard{
		entries: cache.New(cfg.Lockout, 2*cfg.Lockout),
		max:     cfg.MaxAttempts,
		lockout: cfg.Lockout,
		now:     time.Now,
		metrics: m,
	}
}

// Check returns the current status for key, releasing a lock whose time is up.
func (g *Guard) Check(key string) GuardStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status(g.load(key))
}

// Fail records a failed attempt and locks the client once the limit is hit.
func (g *Guard) Fail(key string) GuardStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.load(key)
	if !e.LockedUntil.IsZero() {
		return g.status(e)
	}
	e.Attempts++
	if e.Attempts >= g.max {
		e.LockedUntil = g.now().Add(g.lockout)
		if g.metrics != nil {
			g.metrics.LoginLockouts.Inc()
		}
	}
	g.entries.Set(key, e, cache.DefaultExpiration)
	return g.status(e)
}

// Reset clears the counter after a successful login.
func (g *Guard) Reset(key string) {
	g.entries.Delete(key)
}

func (g *Guard) load(key string) guardEntry {
	v, ok := g.entries.Get(key)
	if !ok {
		return guardEntry{}
	}
	e := v.(guardEntry)
	if !e.LockedUntil.IsZero() && !g.now().Before(e.LockedUntil) {
		g.entries.Delete(key)
		return guardEntry{}
	}
	return e
}

func (g *Guard) status(e guardEntry) GuardStatus {
	remaining := g.max - e.Attempts
	if remaining < 0 {
		remaining = 0
	}
	return GuardStatus{
		Attempts:    e.Attempts,
		Remaining:   remaining,
		Locked:      !e.LockedUntil.IsZero(),
		LockedUntil: e.LockedUntil,
	}
}
