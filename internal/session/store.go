// Package session keeps the per-visitor map and contact form state that the
// browser renders.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/courier-site/internal/contact"
	"github.com/evcraddock/courier-site/internal/locator"
	"github.com/evcraddock/courier-site/internal/mapsession"
	"github.com/evcraddock/courier-site/internal/office"
)

// CookieName is the cookie carrying the visitor id.
const CookieName = "courier_sid"

// Visitor is one browser's state: its office locator and its contact form.
type Visitor struct {
	ID      string
	Planner *locator.Planner
	Form    *contact.Form

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns when the visitor was last active.
func (v *Visitor) LastSeen() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

func (v *Visitor) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

// Store holds visitors in memory.
type Store struct {
	provider mapsession.Provider
	registry *office.Registry
	relay    contact.Relay
	log      *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	visitors map[string]*Visitor
}

// NewStore creates an empty store. provider may be nil when no map provider
// is configured; visitors then get a map that never goes live.
func NewStore(provider mapsession.Provider, registry *office.Registry, relay contact.Relay, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		provider: provider,
		registry: registry,
		relay:    relay,
		log:      log,
		now:      time.Now,
		visitors: make(map[string]*Visitor),
	}
}

// Create starts a new visitor with a fresh planner and form.
func (s *Store) Create() *Visitor {
	v := &Visitor{
		ID:       uuid.NewString(),
		Planner:  locator.NewPlanner(s.provider, s.registry, s.log),
		Form:     contact.NewForm(s.relay, s.log),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.visitors[v.ID] = v
	s.mu.Unlock()

	s.log.Debug("visitor session created", "visitor", v.ID)
	return v
}

// Get returns the visitor with the given id.
func (s *Store) Get(id string) (*Visitor, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	s.mu.RLock()
	v, ok := s.visitors[id]
	s.mu.RUnlock()
	return v, ok
}

// Touch marks the visitor as active now.
func (s *Store) Touch(v *Visitor) {
	v.touch(s.now())
}

// Prune tears down visitors idle for longer than ttl and returns how many
// were removed.
func (s *Store) Prune(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, v := range s.visitors {
		if v.LastSeen().Before(cutoff) {
			delete(s.visitors, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live visitors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visitors)
}
