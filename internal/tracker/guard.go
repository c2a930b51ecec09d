// Package tracker holds the client-side aggregators that mirror the remote
// record store: work logs, tasks and lock-in sessions.
package tracker

import (
	"errors"
	"sync"
)

var (
	// ErrStale is returned when a remote result arrived after the aggregator
	// was reset or rebound to another owner. The result is discarded.
	ErrStale = errors.New("result discarded: owner changed")
	// ErrEmptyTitle rejects a task whose title is blank.
	ErrEmptyTitle = errors.New("task title must not be empty")
	// ErrInvalidHours rejects hours outside [0, 24].
	ErrInvalidHours = errors.New("hours must be between 0 and 24")
	// ErrInvalidDate rejects dates that are not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be formatted YYYY-MM-DD")
	// ErrTaskNotFound is returned for ids missing from the local cache.
	ErrTaskNotFound = errors.New("task not found")
)

// guard tracks the owner a cache belongs to and a generation that changes
// whenever that cache is invalidated. mu also guards the embedding
// aggregator's cache and is never held across a remote call.
type guard struct {
	mu    sync.Mutex
	gen   uint64
	owner string
}

// bindLocked switches the owner, invalidating in-flight results for the
// previous one. It reports whether the owner changed. Callers hold mu.
func (g *guard) bindLocked(owner string) bool {
	if g.owner == owner {
		return false
	}
	g.owner = owner
	g.gen++
	return true
}

// invalidateLocked drops the owner and bumps the generation.
func (g *guard) invalidateLocked() {
	g.owner = ""
	g.gen++
}

// currentLocked reports whether gen is still the live generation.
func (g *guard) currentLocked(gen uint64) bool {
	return g.gen == gen
}

// Owner returns the owner the cache is bound to, or "" when unbound.
func (g *guard) Owner() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.owner
}

// Resetter is implemented by every aggregator.
type Resetter interface {
	Reset()
}

// Bind resets each aggregator whenever the current user of state changes.
func Bind(state *AppState, aggregators ...Resetter) (unsubscribe func()) {
	return state.Subscribe(func(_ string) {
		for _, a := range aggregators {
			a.Reset()
		}
	})
}
