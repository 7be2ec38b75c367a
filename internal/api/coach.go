package api

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kalambet/fitai/internal/composer"
	"github.com/kalambet/fitai/internal/intent"
	"github.com/kalambet/fitai/internal/plan"
	"github.com/kalambet/fitai/internal/profile"
	"github.com/kalambet/fitai/internal/reconcile"
	"github.com/kalambet/fitai/internal/session"
	"github.com/kalambet/fitai/internal/storage"
)

// Store is the persistence the remote surfaces need.
type Store interface {
	profile.Gateway
	Turns(ctx context.Context, profileID string, limit int) ([]profile.Turn, error)
	ListProfiles(ctx context.Context) ([]storage.ProfileRef, error)
}

// CoachDeps wires a Coach.
type CoachDeps struct {
	Store     Store
	Extractor intent.Extractor
	Generator plan.Generator
	Responder session.Responder
	Composer  *composer.Composer
	Clock     profile.Clock
}

// Coach runs profile operations for HTTP and MCP callers. Every mutation
// of a profile, including its save, runs under that profile's lock so
// concurrent requests for the same user apply one after another.
type Coach struct {
	store      Store
	profiles   *profile.Manager
	extractor  intent.Extractor
	reconciler *reconcile.Reconciler
	plans      *plan.Service
	responder  session.Responder
	composer   *composer.Composer
	clock      profile.Clock
	locks      profileLocks
}

func NewCoach(d CoachDeps) *Coach {
	if d.Clock == nil {
		d.Clock = profile.RealClock()
	}
	if d.Composer == nil {
		d.Composer = composer.New(0, 0)
	}
	mgr := profile.NewManager(d.Store)
	return &Coach{
		store:      d.Store,
		profiles:   mgr,
		extractor:  d.Extractor,
		reconciler: reconcile.New(mgr),
		plans:      plan.NewService(d.Generator, mgr).WithClock(d.Clock),
		responder:  d.Responder,
		composer:   d.Composer,
		clock:      d.Clock,
	}
}

// Profile returns the current profile.
func (c *Coach) Profile(ctx context.Context, id string) (profile.Profile, error) {
	return c.profiles.Load(ctx, id)
}

// Profiles lists stored profiles.
func (c *Coach) Profiles(ctx context.Context) ([]storage.ProfileRef, error) {
	return c.store.ListProfiles(ctx)
}

// History returns up to limit recent turns, oldest first.
func (c *Coach) History(ctx context.Context, id string, limit int) ([]profile.Turn, error) {
	if _, err := c.profiles.Load(ctx, id); err != nil {
		return nil, err
	}
	return c.store.Turns(ctx, id, limit)
}

// UpdateResult is the outcome of a profile mutation.
type UpdateResult struct {
	Reconciled  reconcile.Result
	Regenerated bool
	RegenErr    error
	Profile     profile.Profile
}

// SetFields validates and applies raw field values, as from a form.
func (c *Coach) SetFields(ctx context.Context, id string, raw map[string]string, regenerate bool) (UpdateResult, error) {
	updates := intent.Updates{}
	for name, v := range raw {
		f, ok := profile.ParseField(name)
		if !ok {
			return UpdateResult{}, fmt.Errorf("%w: %q", reconcile.ErrUnknownField, name)
		}
		updates[f] = intent.Candidate{Value: v}
	}
	return c.apply(ctx, id, updates, regenerate)
}

// UpdateFromText extracts profile updates from free text and applies them
// without producing a reply.
func (c *Coach) UpdateFromText(ctx context.Context, id, text string, regenerate bool) (UpdateResult, error) {
	return c.apply(ctx, id, c.extractor.Extract(ctx, text), regenerate)
}

func (c *Coach) apply(ctx context.Context, id string, updates intent.Updates, regenerate bool) (UpdateResult, error) {
	unlock := c.locks.lock(id)
	defer unlock()

	p, err := c.profiles.Load(ctx, id)
	if err != nil {
		return UpdateResult{}, err
	}
	res, err := c.reconciler.Reconcile(ctx, &p, updates)
	out := UpdateResult{Reconciled: res, Profile: p}
	if err != nil {
		return out, err
	}
	if res.Changed() && regenerate {
		if err := c.plans.Regenerate(ctx, &p); err != nil {
			if !errors.Is(err, plan.ErrRegeneration) {
				return out, err
			}
			out.RegenErr = err
		} else {
			out.Regenerated = true
		}
		out.Profile = p
	}
	return out, nil
}

// Message runs one conversational turn for the profile.
func (c *Coach) Message(ctx context.Context, id, text string, regenerate bool) (session.Outcome, error) {
	unlock := c.locks.lock(id)
	defer unlock()

	p, err := c.profiles.Load(ctx, id)
	if err != nil {
		return session.Outcome{}, err
	}
	policy := session.RegenNever
	if regenerate {
		policy = session.RegenAlways
	}
	s := session.New(session.Config{
		Store:      c.profiles,
		Extractor:  c.extractor,
		Reconciler: c.reconciler,
		Plans:      c.plans,
		Responder:  c.responder,
		Composer:   c.composer,
		Policy:     policy,
		Clock:      c.clock,
	}, session.NopIO{}, p)
	return s.ProcessMessage(ctx, text)
}

// Regenerate replaces both plans.
func (c *Coach) Regenerate(ctx context.Context, id string) (profile.Profile, error) {
	unlock := c.locks.lock(id)
	defer unlock()

	p, err := c.profiles.Load(ctx, id)
	if err != nil {
		return profile.Profile{}, err
	}
	if err := c.plans.Regenerate(ctx, &p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

// profileLocks hands out one mutex per profile id.
type profileLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *profileLocks) lock(id string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	m, ok := l.m[id]
	if !ok {
		m = &sync.Mutex{}
		l.m[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
