package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/lockin/internal/services/hype"
	"github.com/benvon/lockin/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultIdleTick     = time.Second
	DefaultHypeEvery    = 3500 * time.Millisecond
	DefaultEmpowerEvery = 7 * time.Second
)

var (
	ErrAlreadyActive = errors.New("focus mode is already active")
	ErrNotActive     = errors.New("focus mode is not active")
)

// MessageKind tells hype lines from empowerment lines.
type MessageKind int

const (
	MessageHype MessageKind = iota
	MessageEmpowerment
)

// Message is one rotating line shown while locked in.
type Message struct {
	Kind MessageKind
	Text string
}

// Ticker is the part of time.Ticker the tracker uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

// FocusResult describes a finished lock-in session.
type FocusResult struct {
	SessionID   *uuid.UUID
	StartedAt   time.Time
	EndedAt     time.Time
	IdleSeconds int
}

// Duration is the wall time spent locked in.
func (r FocusResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// FocusOption configures a FocusTracker.
type FocusOption func(*FocusTracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) FocusOption {
	return func(f *FocusTracker) { f.now = now }
}

// WithTickers replaces the ticker constructor.
func WithTickers(newTicker func(time.Duration) Ticker) FocusOption {
	return func(f *FocusTracker) { f.newTicker = newTicker }
}

// WithMessages sets the callback for rotating lines. It runs on the
// tracker's timer goroutine.
func WithMessages(fn func(Message)) FocusOption {
	return func(f *FocusTracker) { f.onMessage = fn }
}

// FocusTracker runs one lock-in session at a time: it records the session
// remotely and counts idle time between Enter and Exit.
type FocusTracker struct {
	sessions  store.SessionStore
	logger    *zap.Logger
	now       func() time.Time
	newTicker func(time.Duration) Ticker
	onMessage func(Message)

	idleTick     time.Duration
	hypeEvery    time.Duration
	empowerEvery time.Duration

	// op serializes Enter and Exit, including their remote calls.
	op sync.Mutex

	mu           sync.Mutex
	active       bool
	sessionID    *uuid.UUID
	startedAt    time.Time
	lastActivity time.Time
	idle         time.Duration
	stop         chan struct{}
	done         chan struct{}
}

// NewFocusTracker creates an inactive tracker.
func NewFocusTracker(sessions store.SessionStore, logger *zap.Logger, opts ...FocusOption) *FocusTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &FocusTracker{
		sessions:     sessions,
		logger:       logger,
		now:          time.Now,
		newTicker:    newRealTicker,
		idleTick:     DefaultIdleTick,
		hypeEvery:    DefaultHypeEvery,
		empowerEvery: DefaultEmpowerEvery,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Enter starts a session. A failed remote create is logged and the tracker
// still goes active without a session id. An empty owner is a no-op.
func (f *FocusTracker) Enter(ctx context.Context, owner string) error {
	if owner == "" {
		return nil
	}
	f.op.Lock()
	defer f.op.Unlock()

	f.mu.Lock()
	if f.active {
		f.mu.Unlock()
		return ErrAlreadyActive
	}
	f.mu.Unlock()

	started := f.now()
	var sessionID *uuid.UUID
	session, err := f.sessions.StartSession(ctx, started)
	if err != nil {
		f.logger.Warn("failed_to_start_focus_session", zap.Error(err))
	} else if session != nil {
		id := session.ID
		sessionID = &id
	}

	idle := f.newTicker(f.idleTick)
	hypeT := f.newTicker(f.hypeEvery)
	empower := f.newTicker(f.empowerEvery)

	f.mu.Lock()
	f.active = true
	f.sessionID = sessionID
	f.startedAt = started
	f.lastActivity = started
	f.idle = 0
	f.stop = make(chan struct{})
	f.done = make(chan struct{})
	stop, done := f.stop, f.done
	f.mu.Unlock()

	go f.run(stop, done, idle, hypeT, empower)
	return nil
}

// Activity records user input.
func (f *FocusTracker) Activity() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active {
		f.lastActivity = f.now()
	}
}

// Active reports whether a session is running.
func (f *FocusTracker) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// IdleSeconds returns the idle time accumulated so far.
func (f *FocusTracker) IdleSeconds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int(f.idle / time.Second)
}

// Exit stops the timers and finalizes the session when one was recorded.
// The result is returned even when finalizing fails.
func (f *FocusTracker) Exit(ctx context.Context) (FocusResult, error) {
	f.op.Lock()
	defer f.op.Unlock()

	f.mu.Lock()
	if !f.active {
		f.mu.Unlock()
		return FocusResult{}, ErrNotActive
	}
	close(f.stop)
	done := f.done
	f.mu.Unlock()

	<-done

	f.mu.Lock()
	f.active = false
	res := FocusResult{
		SessionID:   f.sessionID,
		StartedAt:   f.startedAt,
		EndedAt:     f.now(),
		IdleSeconds: int(f.idle / time.Second),
	}
	f.sessionID = nil
	f.mu.Unlock()

	if res.SessionID == nil {
		return res, nil
	}
	if _, err := f.sessions.FinishSession(ctx, *res.SessionID, res.EndedAt, res.IdleSeconds); err != nil {
		f.logger.Warn("failed_to_finish_focus_session",
			zap.String("session_id", res.SessionID.String()),
			zap.Error(err),
		)
		return res, fmt.Errorf("failed to finish session: %w", err)
	}
	return res, nil
}

func (f *FocusTracker) run(stop <-chan struct{}, done chan<- struct{}, idle, hypeT, empower Ticker) {
	defer close(done)
	defer idle.Stop()
	defer hypeT.Stop()
	defer empower.Stop()

	hypeIdx, empowerIdx := 0, 0
	for {
		select {
		case <-stop:
			return
		case <-idle.C():
			f.tick()
		case <-hypeT.C():
			f.emit(Message{Kind: MessageHype, Text: hype.LockInWords[hypeIdx%len(hype.LockInWords)]})
			hypeIdx++
		case <-empower.C():
			f.emit(Message{Kind: MessageEmpowerment, Text: hype.EmpowermentWords[empowerIdx%len(hype.EmpowermentWords)]})
			empowerIdx++
		}
	}
}

func (f *FocusTracker) tick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.now().Sub(f.lastActivity) > f.idleTick {
		f.idle += f.idleTick
	}
}

func (f *FocusTracker) emit(m Message) {
	if f.onMessage != nil {
		f.onMessage(m)
	}
}
