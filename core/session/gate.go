package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/apoiopedagogico/portal/core"
)

type transition struct {
	identity *Identity // nil: signed out
	seq      uint64
}

// Gate holds the authoritative State of one client. Provider transitions are handled one at a time by
// a single worker; transitions queued while a lookup is running are coalesced so that only the most
// recent one is resolved and published.
type Gate struct {
	provider IdentityProvider
	resolver *Resolver
	hints    HintStore
	logger   core.Logger

	transitions chan transition
	enqMu       sync.Mutex // keeps the queue in seq order
	queued      atomic.Uint64

	mu    sync.RWMutex
	state State

	pubMu     sync.Mutex // serializes deliveries to subscribers
	subs      map[int]func(State)
	nextSubID int

	startOnce   sync.Once
	stopOnce    sync.Once
	running     bool
	cancel      context.CancelFunc
	stopped     chan struct{}
	wg          sync.WaitGroup
	unsubscribe func()
}

func NewGate(provider IdentityProvider, profiles ProfileStore, hints HintStore, logger core.Logger) *Gate {
	return &Gate{
		provider:    provider,
		resolver:    NewResolver(profiles),
		hints:       hints,
		logger:      logger,
		transitions: make(chan transition, 16),
		state:       State{Loading: true},
		subs:        make(map[int]func(State)),
		stopped:     make(chan struct{}),
	}
}

// Start subscribes to the identity provider and runs the transition worker until Stop is called or ctx
// is done.
func (g *Gate) Start(ctx context.Context) {
	g.startOnce.Do(func() {
		ctx, g.cancel = context.WithCancel(ctx)

		g.mu.Lock()
		g.running = true
		g.mu.Unlock()

		g.wg.Add(1)
		go g.run(ctx)

		g.unsubscribe = g.provider.OnAuthStateChanged(g.enqueue)
	})
}

// Stop unsubscribes from the provider and waits for the worker to exit.
func (g *Gate) Stop() {
	g.stopOnce.Do(func() {
		if g.unsubscribe != nil {
			g.unsubscribe()
		}
		close(g.stopped)
		if g.cancel != nil {
			g.cancel()
		}
		g.wg.Wait()

		g.mu.Lock()
		g.running = false
		g.mu.Unlock()
	})
}

func (g *Gate) isRunning() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.running
}

func (g *Gate) enqueue(id *Identity) {
	var t transition
	if id != nil {
		cp := *id
		t.identity = &cp
	}

	g.enqMu.Lock()
	defer g.enqMu.Unlock()
	t.seq = g.queued.Add(1)
	select {
	case g.transitions <- t:
	case <-g.stopped:
	}
}

func (g *Gate) run(ctx context.Context) {
	defer g.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-g.transitions:
			g.apply(ctx, g.latest(t))
		}
	}
}

// latest drains the queue and returns the most recent transition.
func (g *Gate) latest(t transition) transition {
	for {
		select {
		case next := <-g.transitions:
			t = next
		default:
			return t
		}
	}
}

func (g *Gate) apply(ctx context.Context, t transition) {
	if t.identity == nil {
		if err := g.hints.ClearRoleHint(ctx); err != nil {
			g.logger.Warn(fmt.Sprintf("clearing role hint: %v", err), err)
		}
		g.publish(State{Seq: t.seq})
		return
	}

	hint, err := g.hints.LoadRoleHint(ctx)
	if err != nil {
		g.logger.Warn(fmt.Sprintf("loading role hint: %v", err), err)
		hint = ""
	}

	s, err := g.resolver.Resolve(ctx, *t.identity, hint)
	if err != nil {
		g.logger.Error(fmt.Sprintf("resolving session: %v", err), err, core.LogPerson{ID: t.identity.UID, Email: t.identity.Email})
		g.publish(State{Loading: true, Err: err, Seq: t.seq})
		return
	}
	g.publish(State{Session: s, Seq: t.seq})
}

func (g *Gate) publish(st State) {
	g.pubMu.Lock()
	defer g.pubMu.Unlock()

	g.mu.Lock()
	g.state = st
	subs := make([]func(State), 0, len(g.subs))
	for _, fn := range g.subs {
		subs = append(subs, fn)
	}
	g.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Current returns the signed-in Session, or nil.
func (g *Gate) Current() *Session {
	st := g.State()
	if st.Session == nil {
		return nil
	}
	s := *st.Session
	return &s
}

// Subscribe calls fn with the current state, then on every publication until unsubscribe is called.
// fn must not call Subscribe.
func (g *Gate) Subscribe(fn func(State)) (unsubscribe func()) {
	g.pubMu.Lock()
	defer g.pubMu.Unlock()

	g.mu.Lock()
	id := g.nextSubID
	g.nextSubID++
	g.subs[id] = fn
	st := g.state
	g.mu.Unlock()

	fn(st)

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

// Login signs in with the identity provider. It returns the provider identity; the role is resolved
// asynchronously and published to subscribers (see WaitForSession).
func (g *Gate) Login(ctx context.Context, email, password string) (Identity, error) {
	id, err := g.provider.SignIn(ctx, core.CleanString(email, true /* lower */), password)
	if err != nil {
		if errors.Cause(err) == ErrInvalidCredentials {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, errors.Wrap(err, "signing in")
	}
	return id, nil
}

// Logout signs out of the identity provider. The session and the role hint are always cleared, even
// when nobody was signed in.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.provider.SignOut(ctx); err != nil {
		return errors.Wrap(err, "signing out")
	}
	// cleared here too, so that the hint is gone when Logout returns
	if err := g.hints.ClearRoleHint(ctx); err != nil {
		return errors.Wrap(err, "clearing role hint")
	}
	if g.isRunning() {
		g.enqueue(nil)
	} else {
		g.apply(ctx, transition{})
	}
	return nil
}

// AssignRole stores the local role hint. It never overrides a profile record.
func (g *Gate) AssignRole(ctx context.Context, role Role) error {
	r, ok := ParseRole(string(role))
	if !ok {
		return errors.Wrapf(ErrInvalidRole, "%q", role)
	}
	return errors.Wrap(g.hints.SaveRoleHint(ctx, r), "saving role hint")
}

// WaitForSession blocks until the Session of uid is published, or, when uid is empty, until the first
// state that is not loading. A profile lookup failure is returned as an error. States resolved from
// transitions older than the last one queued before the call are skipped, so that a failure left over
// from a previous sign-in is not mistaken for the result of a new one.
func (g *Gate) WaitForSession(ctx context.Context, uid string) (*Session, error) {
	if !g.isRunning() {
		return nil, ErrNotStarted
	}
	after := g.queued.Load()

	type result struct {
		s   *Session
		err error
	}
	ch := make(chan result, 1)
	deliver := func(r result) {
		select {
		case ch <- r:
		default:
		}
	}

	unsubscribe := g.Subscribe(func(st State) {
		switch {
		case st.Seq < after:
		case st.Err != nil:
			deliver(result{err: st.Err})
		case st.Loading:
		case uid == "":
			deliver(result{s: st.Session})
		case st.Session != nil && st.Session.UID == uid:
			deliver(result{s: st.Session})
		}
	})
	defer unsubscribe()

	select {
	case r := <-ch:
		return r.s, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
