// Package crew keeps one tracker per persona on top of a shared store and id
// sequence, so the CLI, the MCP server and the dashboard see the same state.
package crew

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"agentcrew/internal/domain"
	"agentcrew/internal/idgen"
	"agentcrew/internal/persona"
	"agentcrew/internal/tracker"
)

// Publisher receives every activity entry after the store accepted it.
type Publisher interface {
	Publish(a domain.Activity) error
}

type Options struct {
	IDs    idgen.Generator
	Now    func() time.Time
	Logger *zap.Logger
	Events Publisher
}

type Summary struct {
	ID             string `json:"id" yaml:"id"`
	Role           string `json:"role" yaml:"role"`
	Phase          int    `json:"phase" yaml:"phase"`
	CurrentTasks   int    `json:"currentTasks" yaml:"currentTasks"`
	CompletedTasks int    `json:"completedTasks" yaml:"completedTasks"`
	Improvements   int    `json:"improvements" yaml:"improvements"`
}

type Crew struct {
	mu       sync.Mutex
	registry *persona.Registry
	store    tracker.Store
	ids      idgen.Generator
	now      func() time.Time
	logger   *zap.Logger
	trackers map[string]*tracker.Tracker
}

func New(reg *persona.Registry, store tracker.Store, opts Options) (*Crew, error) {
	if reg == nil {
		return nil, fmt.Errorf("crew registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("crew store is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IDs == nil {
		opts.IDs = idgen.NewSequence(opts.Now)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Events != nil {
		store = &publishingStore{Store: store, events: opts.Events, logger: opts.Logger}
	}
	return &Crew{
		registry: reg,
		store:    store,
		ids:      opts.IDs,
		now:      opts.Now,
		logger:   opts.Logger,
		trackers: make(map[string]*tracker.Tracker),
	}, nil
}

func (c *Crew) Registry() *persona.Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry
}

func (c *Crew) Personas() []persona.Persona {
	return c.Registry().All()
}

func (c *Crew) Persona(id string) (persona.Persona, error) {
	return c.Registry().Get(id)
}

// Tracker returns the tracker for personaID, loading it from the store on
// first use.
func (c *Crew) Tracker(ctx context.Context, personaID string) (*tracker.Tracker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.registry.Get(personaID)
	if err != nil {
		return nil, err
	}
	if tr, ok := c.trackers[p.ID]; ok {
		return tr, nil
	}
	tr, err := tracker.New(ctx, p, c.store, c.ids, c.now, c.logger)
	if err != nil {
		return nil, err
	}
	c.trackers[p.ID] = tr
	return tr, nil
}

// ReplaceRegistry swaps the persona definitions. Loaded trackers keep their
// state and pick up the new rules; trackers of removed personas are dropped.
func (c *Crew) ReplaceRegistry(reg *persona.Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registry = reg
	for id, tr := range c.trackers {
		p, err := reg.Get(id)
		if err != nil {
			c.logger.Info("dropping tracker of removed persona", zap.String("persona", id))
			delete(c.trackers, id)
			continue
		}
		tr.SetPersona(p)
	}
}

// Summaries loads every persona and reports its collection sizes in
// registry order.
func (c *Crew) Summaries(ctx context.Context) ([]Summary, error) {
	personas := c.Personas()
	out := make([]Summary, 0, len(personas))
	for _, p := range personas {
		tr, err := c.Tracker(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		snap := tr.Snapshot()
		out = append(out, Summary{
			ID:             p.ID,
			Role:           p.Role,
			Phase:          p.Phase,
			CurrentTasks:   len(snap.Current),
			CompletedTasks: len(snap.Completed),
			Improvements:   len(snap.Improvements),
		})
	}
	return out, nil
}

type publishingStore struct {
	tracker.Store
	events Publisher
	logger *zap.Logger
}

func (s *publishingStore) LogActivity(ctx context.Context, a domain.Activity) error {
	if err := s.Store.LogActivity(ctx, a); err != nil {
		return err
	}
	if err := s.events.Publish(a); err != nil {
		s.logger.Debug("activity not delivered", zap.String("activity", a.ID), zap.Error(err))
	}
	return nil
}
