package session

import (
	"context"
	"sync"
	"time"

	"storefront-bot/internal/promo"
	"storefront-bot/internal/util"
	"storefront-bot/internal/wizard"

	"go.uber.org/zap"
)

// Session is the conversational state of one user
type Session struct {
	mu       sync.Mutex
	lastSeen time.Time
	evicted  bool

	UserID int64
	Wizard *wizard.Wizard
	Promo  *promo.Cursor
}

// Registry owns sessions keyed by user id. Events for one user run one at a
// time; events for different users do not block each other.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	catalog  wizard.Catalog
	carousel *promo.Carousel
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewRegistry creates a registry that expires sessions idle for longer than ttl.
// A zero ttl disables expiry.
func NewRegistry(catalog wizard.Catalog, carousel *promo.Carousel, ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		catalog:  catalog,
		carousel: carousel,
		ttl:      ttl,
		now:      time.Now,
		logger:   util.GetLogger(),
	}
}

// With runs fn while holding the user's session exclusively
func (r *Registry) With(userID int64, fn func(*Session) error) error {
	for {
		s := r.getOrCreate(userID)
		s.mu.Lock()
		if s.evicted {
			// swept between lookup and lock
			s.mu.Unlock()
			continue
		}

		err := fn(s)
		s.lastSeen = r.now()
		s.mu.Unlock()
		return err
	}
}

func (r *Registry) getOrCreate(userID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		return s
	}

	s := &Session{
		UserID:   userID,
		Wizard:   wizard.New(r.catalog),
		Promo:    r.carousel.NewCursor(),
		lastSeen: r.now(),
	}
	r.sessions[userID] = s
	util.ActiveSessions.Set(float64(len(r.sessions)))
	return s
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for at least the ttl. Sessions currently in use
// are skipped. It returns the number of evicted sessions.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	evicted := 0
	for userID, s := range r.sessions {
		if !s.mu.TryLock() {
			continue
		}
		if now.Sub(s.lastSeen) >= r.ttl {
			s.evicted = true
			delete(r.sessions, userID)
			evicted++
		}
		s.mu.Unlock()
	}

	util.ActiveSessions.Set(float64(len(r.sessions)))
	return evicted
}

// Run sweeps every interval until ctx is cancelled
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("Expired idle sessions", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}
