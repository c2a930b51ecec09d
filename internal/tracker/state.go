package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/benvon/lockin/internal/heatmap"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/store"
)

// ErrUnknownTheme rejects theme names without a palette.
var ErrUnknownTheme = errors.New("unknown theme")

// AppState is the process-wide current user and theme. It is created at
// startup, updated when the identity changes and closed on exit.
type AppState struct {
	mu     sync.Mutex
	user   *models.User
	theme  string
	subs   map[int]func(owner string)
	nextID int
	closed bool
}

// NewAppState creates state with no user. Unknown themes fall back to dark.
func NewAppState(theme string) *AppState {
	s := &AppState{theme: "dark", subs: make(map[int]func(string))}
	_ = s.SetTheme(theme)
	return s
}

// User returns the current user or nil.
func (s *AppState) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Owner returns the current user id, or "" when signed out.
func (s *AppState) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ownerOf(s.user)
}

// Theme returns the selected theme.
func (s *AppState) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// SetTheme selects one of heatmap.Themes.
func (s *AppState) SetTheme(theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if !slices.Contains(heatmap.Themes(), theme) {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return nil
}

// SetUser replaces the current user. Subscribers are notified only when the
// identity actually changes. Calls after Close are ignored.
func (s *AppState) SetUser(u *models.User) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	before := ownerOf(s.user)
	if u != nil {
		c := *u
		s.user = &c
	} else {
		s.user = nil
	}
	after := ownerOf(s.user)
	subs := s.snapshotLocked()
	s.mu.Unlock()

	if before == after {
		return
	}
	for _, fn := range subs {
		fn(after)
	}
}

// Refresh asks identity for the current user and returns what it said. A
// rejected credential signs the user out and yields nil.
func (s *AppState) Refresh(ctx context.Context, identity store.Identity) (*models.Me, error) {
	me, err := identity.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}
	if me == nil || me.User == nil {
		s.SetUser(nil)
		return nil, nil
	}
	s.SetUser(me.User)
	return me, nil
}

// Subscribe registers fn for identity changes. fn receives the new owner,
// "" on sign-out.
func (s *AppState) Subscribe(fn func(owner string)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close signs out, notifies subscribers and drops them.
func (s *AppState) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.user = nil
	subs := s.snapshotLocked()
	s.subs = make(map[int]func(string))
	s.mu.Unlock()

	for _, fn := range subs {
		fn("")
	}
}

func (s *AppState) snapshotLocked() []func(string) {
	out := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func ownerOf(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.ID.String()
}
