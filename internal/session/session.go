// Package session keeps one view-state controller per browser session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kalambet/haiku/internal/auth"
	"github.com/kalambet/haiku/internal/controller"
	"github.com/kalambet/haiku/internal/storage"
)

const (
	defaultIdleTTL  = 24 * time.Hour
	defaultInterval = time.Minute
)

// Config carries the shared collaborators every session is built from.
type Config struct {
	Generator controller.Generator
	Store     storage.Gateway
	// Auth signs each new session in before its first store call.
	Auth auth.Authenticator
	// IdleTTL is how long an untouched session survives. <= 0 means 24h.
	IdleTTL time.Duration
	// SweepInterval is how often Run evicts idle sessions. <= 0 means 1m.
	SweepInterval time.Duration
	MergeLocally  bool
	Logger        *zap.Logger
	Now           func() time.Time
}

type entry struct {
	ctrl     *controller.Controller
	gate     *storage.GatedGateway
	lastSeen time.Time
}

// Manager creates sessions on first use and forgets them after IdleTTL.
type Manager struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager returns an empty Manager.
func NewManager(cfg Config) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultInterval
	}
	if cfg.Auth == nil {
		cfg.Auth = auth.Anonymous{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{cfg: cfg, log: log, sessions: make(map[string]*entry)}
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.New().String()
}

// Get returns the controller for id, creating and initializing it when the
// session is new. A failed initial load is recorded in the controller's
// error state; the session is still returned.
func (m *Manager) Get(ctx context.Context, id string) *controller.Controller {
	now := m.cfg.Now()

	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		e.lastSeen = now
		m.mu.Unlock()
		return e.ctrl
	}
	log := m.log.With(zap.String("session", id))
	gate := storage.Gated(m.cfg.Store, m.cfg.Auth, log)
	ctrl := controller.New(m.cfg.Generator, gate, controller.Options{
		MergeLocally: m.cfg.MergeLocally,
		Now:          m.cfg.Now,
		Logger:       log,
	})
	e = &entry{ctrl: ctrl, gate: gate, lastSeen: now}
	m.sessions[id] = e
	m.mu.Unlock()

	m.log.Debug("session created", zap.String("session", id))
	// Init errors are already reflected in the controller state.
	_ = ctrl.Init(ctx)
	return ctrl
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle since before now-IdleTTL and returns how many
// were removed. Sessions with a generation in flight are kept.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.cfg.IdleTTL)
	var evicted []*entry
	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) && !e.ctrl.Loading() {
			delete(m.sessions, id)
			evicted = append(evicted, e)
		}
	}
	m.mu.Unlock()

	m.closeAll(evicted)
	return len(evicted)
}

// Close forgets every session and releases the stores bound to them.
func (m *Manager) Close() {
	m.mu.Lock()
	all := make([]*entry, 0, len(m.sessions))
	for id, e := range m.sessions {
		delete(m.sessions, id)
		all = append(all, e)
	}
	m.mu.Unlock()

	m.closeAll(all)
}

func (m *Manager) closeAll(entries []*entry) {
	for _, e := range entries {
		if err := e.gate.Close(); err != nil {
			m.log.Warn("closing session store", zap.Error(err))
		}
	}
}

// Run sweeps idle sessions every SweepInterval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.SweepInterval):
		}
		if n := m.Sweep(m.cfg.Now()); n > 0 {
			m.log.Info("evicted idle sessions", zap.Int("count", n))
		}
	}
}
