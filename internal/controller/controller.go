// Package controller owns the view state of one haiku session: the theme
// input, the current poem, the history list, the loading flag and the
// error message. Generate is the single user action that moves it between
// states.
package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kalambet/haiku/internal/haiku"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gateway persists and lists records.
type Gateway interface {
	Append(ctx context.Context, rec haiku.Record) (haiku.Record, error)
	ListAll(ctx context.Context) ([]haiku.Record, error)
}

// Options tune a Controller. The zero value is valid.
type Options struct {
	// MergeLocally inserts a freshly persisted record into the in-memory
	// history instead of re-reading the whole history from the store.
	MergeLocally bool
	Now          func() time.Time
	Logger       *zap.Logger
}

// State is a point-in-time copy of the controller's view state.
type State struct {
	Theme   string         `json:"theme"`
	Current *haiku.Record  `json:"current"`
	History []haiku.Record `json:"history"`
	Loading bool           `json:"loading"`
	Error   string         `json:"error,omitempty"`
}

// Controller is safe for concurrent use. Its mutex guards memory only and is
// never held while waiting on the generator or the store, so two concurrent
// Generate calls both run to completion.
type Controller struct {
	gen   Generator
	store Gateway
	opts  Options
	log   *zap.Logger

	mu      sync.Mutex
	theme   string
	current *haiku.Record
	history []haiku.Record
	loading bool
	err     string
}

// New returns a controller with empty state. Call Init to load history.
func New(gen Generator, store Gateway, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		gen:     gen,
		store:   store,
		opts:    opts,
		log:     log,
		history: []haiku.Record{},
	}
}

// Init performs the initial history load. A failure is reported to the user
// as LoadErrorMessage and leaves history empty.
func (c *Controller) Init(ctx context.Context) error {
	if err := c.Reload(ctx); err != nil {
		c.log.Warn("initial history load failed", zap.Error(err))
		c.setError(haiku.LoadErrorMessage)
		return err
	}
	return nil
}

// SetTheme updates the theme input as typed.
func (c *Controller) SetTheme(theme string) {
	c.mu.Lock()
	c.theme = theme
	c.mu.Unlock()
}

// Generate asks for a poem about theme, shows it, persists it and refreshes
// the history. A theme that is blank after trimming is ignored. Every failure
// sets the generic error message and is returned wrapped for logging.
// Generate does not guard against re-entry; callers check Loading first.
func (c *Controller) Generate(ctx context.Context, theme string) (err error) {
	trimmed := haiku.NormalizeTheme(theme)
	if trimmed == "" {
		return nil
	}

	c.mu.Lock()
	c.theme = theme
	c.loading = true
	c.err = ""
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		if err != nil {
			c.err = haiku.GenericErrorMessage
		}
		c.mu.Unlock()
		if err != nil {
			c.log.Warn("generation failed", zap.String("theme", trimmed), zap.Error(err))
		}
	}()

	text, err := c.gen.Generate(ctx, haiku.Prompt(trimmed))
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return haiku.ErrGenerationEmpty
	}

	rec := haiku.Record{Theme: trimmed, Text: text, CreatedAt: c.opts.Now()}
	c.setCurrent(rec)

	saved, err := c.store.Append(ctx, rec)
	if err != nil {
		return fmt.Errorf("saving haiku: %w", err)
	}

	c.mu.Lock()
	c.current = &saved
	c.theme = ""
	if c.opts.MergeLocally {
		c.history = haiku.InsertNewestFirst(c.history, saved)
	}
	c.mu.Unlock()
	c.log.Debug("haiku saved", zap.String("id", saved.ID), zap.String("theme", saved.Theme))

	if c.opts.MergeLocally {
		return nil
	}
	if err := c.Reload(ctx); err != nil {
		return fmt.Errorf("reloading history: %w", err)
	}
	return nil
}

// Reload replaces the history with the store's full, newest-first listing.
func (c *Controller) Reload(ctx context.Context) error {
	records, err := c.store.ListAll(ctx)
	if err != nil {
		return err
	}
	if records == nil {
		records = []haiku.Record{}
	}
	c.mu.Lock()
	c.history = records
	c.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		Theme:   c.theme,
		History: append([]haiku.Record(nil), c.history...),
		Loading: c.loading,
		Error:   c.err,
	}
	if s.History == nil {
		s.History = []haiku.Record{}
	}
	if c.current != nil {
		cur := *c.current
		s.Current = &cur
	}
	return s
}

// Loading reports whether a Generate call is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) setCurrent(rec haiku.Record) {
	c.mu.Lock()
	c.current = &rec
	c.mu.Unlock()
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	c.err = msg
	c.mu.Unlock()
}
