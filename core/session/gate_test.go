package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/storage/clientstore"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// fakeProvider signs in against a fixed set of accounts and notifies listeners synchronously.
type fakeProvider struct {
	mu        sync.Mutex
	accounts  map[string]session.Identity // email -> identity
	passwords map[string]string
	current   *session.Identity
	listeners map[int]func(*session.Identity)
	nextID    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts:  make(map[string]session.Identity),
		passwords: make(map[string]string),
		listeners: make(map[int]func(*session.Identity)),
	}
}

func (p *fakeProvider) add(id session.Identity, pwd string) {
	p.accounts[id.Email] = id
	p.passwords[id.Email] = pwd
}

func (p *fakeProvider) emit(id *session.Identity) {
	p.mu.Lock()
	p.current = id
	fns := make([]func(*session.Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

func (p *fakeProvider) SignIn(_ context.Context, email, password string) (session.Identity, error) {
	id, ok := p.accounts[email]
	if !ok || p.passwords[email] != password {
		return session.Identity{}, session.ErrInvalidCredentials
	}
	p.emit(&id)
	return id, nil
}

func (p *fakeProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	signedIn := p.current != nil
	p.mu.Unlock()
	if signedIn {
		p.emit(nil)
	}
	return nil
}

func (p *fakeProvider) OnAuthStateChanged(fn func(*session.Identity)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(current)
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// fakeProfiles serves profile records; block, when set, holds every lookup until it is closed.
type fakeProfiles struct {
	mu      sync.Mutex
	records map[string]session.Profile
	err     error
	block   chan struct{}
	started chan struct{}
	lookups int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{records: make(map[string]session.Profile)}
}

func (f *fakeProfiles) LookupProfile(_ context.Context, uid string) (*session.Profile, error) {
	f.mu.Lock()
	f.lookups++
	block, started, err := f.block, f.started, f.err
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[uid]; ok {
		return &rec, nil
	}
	return nil, nil
}

func newTestGate(t *testing.T, prov *fakeProvider, profiles *fakeProfiles, hints session.HintStore) *session.Gate {
	t.Helper()
	g := session.NewGate(prov, profiles, hints, nopLogger{})
	g.Start(context.Background())
	t.Cleanup(g.Stop)

	// the provider reports "signed out" on subscription
	if _, err := g.WaitForSession(waitCtx(t), ""); err != nil {
		t.Fatalf("WaitForSession() failed: %v", err)
	}
	return g
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGate_Login(t *testing.T) {
	admin := session.Identity{UID: "u-admin", Email: "admin@apoio.pt", DisplayName: "Ana"}
	anon := session.Identity{UID: "u-anon", Email: "anon@apoio.pt"}
	hinted := session.Identity{UID: "u-hint", Email: "hint@apoio.pt", DisplayName: "Hugo"}
	nameless := session.Identity{UID: "u-nameless", Email: "nameless@apoio.pt"}

	tests := []struct {
		name     string
		identity session.Identity
		profile  *session.Profile
		hint     session.Role
		want     session.Session
	}{
		{
			name:     "profile role wins over hint",
			identity: admin,
			profile:  &session.Profile{Role: "administrator", DisplayName: "Ana Admin"},
			hint:     session.RoleTrainer,
			want:     session.Session{UID: admin.UID, Email: admin.Email, DisplayName: "Ana Admin", Role: session.RoleAdministrator},
		},
		{
			name:     "no profile no hint",
			identity: anon,
			want:     session.Session{UID: anon.UID, Email: anon.Email, DisplayName: "Formador", Role: session.RoleTrainer},
		},
		{
			name:     "no profile uses hint",
			identity: hinted,
			hint:     session.RoleAdministrator,
			want:     session.Session{UID: hinted.UID, Email: hinted.Email, DisplayName: "Hugo", Role: session.RoleAdministrator},
		},
		{
			name:     "profile without role defaults to trainer and ignores hint",
			identity: nameless,
			profile:  &session.Profile{},
			hint:     session.RoleAdministrator,
			want:     session.Session{UID: nameless.UID, Email: nameless.Email, DisplayName: "Formador", Role: session.RoleTrainer},
		},
		{
			name:     "profile name absent falls back to provider name",
			identity: hinted,
			profile:  &session.Profile{Role: "administrator"},
			want:     session.Session{UID: hinted.UID, Email: hinted.Email, DisplayName: "Hugo", Role: session.RoleAdministrator},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prov := newFakeProvider()
			prov.add(tt.identity, "Secr3t!pwd")
			profiles := newFakeProfiles()
			if tt.profile != nil {
				profiles.records[tt.identity.UID] = *tt.profile
			}
			hints := clientstore.NewMemoryStore()
			g := newTestGate(t, prov, profiles, hints)
			if tt.hint != "" {
				require.NoError(t, g.AssignRole(context.Background(), tt.hint))
			}

			id, err := g.Login(context.Background(), tt.identity.Email, "Secr3t!pwd")
			require.NoError(t, err)
			assert.Equal(t, tt.identity.UID, id.UID)

			got, err := g.WaitForSession(waitCtx(t), id.UID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
			assert.Equal(t, tt.want, *g.Current())
			assert.False(t, g.State().Loading)
		})
	}
}

func TestGate_LoginInvalidCredentials(t *testing.T) {
	prov := newFakeProvider()
	prov.add(session.Identity{UID: "u1", Email: "a@apoio.pt"}, "right")
	g := newTestGate(t, prov, newFakeProfiles(), clientstore.NewMemoryStore())

	_, err := g.Login(context.Background(), "a@apoio.pt", "wrong")
	assert.Equal(t, session.ErrInvalidCredentials, err)

	_, err = g.Login(context.Background(), "nobody@apoio.pt", "right")
	assert.Equal(t, session.ErrInvalidCredentials, err)

	st, err := g.WaitForSession(waitCtx(t), "")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestGate_LogoutClearsSessionAndHint(t *testing.T) {
	prov := newFakeProvider()
	id := session.Identity{UID: "u1", Email: "a@apoio.pt", DisplayName: "A"}
	prov.add(id, "pwd")
	hints := clientstore.NewMemoryStore()
	g := newTestGate(t, prov, newFakeProfiles(), hints)
	ctx := context.Background()

	require.NoError(t, g.AssignRole(ctx, session.RoleAdministrator))
	_, err := g.Login(ctx, id.Email, "pwd")
	require.NoError(t, err)
	s, err := g.WaitForSession(waitCtx(t), id.UID)
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdministrator, s.Role)

	require.NoError(t, g.Logout(ctx))
	require.Eventually(t, func() bool {
		st := g.State()
		return st.Session == nil && !st.Loading
	}, 2*time.Second, 10*time.Millisecond)

	hint, err := hints.LoadRoleHint(ctx)
	require.NoError(t, err)
	assert.Empty(t, hint)

	// idempotent
	require.NoError(t, g.Logout(ctx))
	require.NoError(t, g.Logout(ctx))
	assert.Nil(t, g.Current())
}

func TestGate_LogoutWithoutStart(t *testing.T) {
	hints := clientstore.NewMemoryStore()
	require.NoError(t, hints.SaveRoleHint(context.Background(), session.RoleAdministrator))
	g := session.NewGate(newFakeProvider(), newFakeProfiles(), hints, nopLogger{})

	require.NoError(t, g.Logout(context.Background()))
	hint, _ := hints.LoadRoleHint(context.Background())
	assert.Empty(t, hint)
	assert.Equal(t, session.State{}, g.State())

	_, err := g.WaitForSession(context.Background(), "")
	assert.Equal(t, session.ErrNotStarted, err)
}

func TestGate_ProfileLookupFailure(t *testing.T) {
	prov := newFakeProvider()
	id := session.Identity{UID: "u1", Email: "a@apoio.pt"}
	prov.add(id, "pwd")
	profiles := newFakeProfiles()
	profiles.err = errors.New("connection refused")
	g := newTestGate(t, prov, profiles, clientstore.NewMemoryStore())

	_, err := g.Login(context.Background(), id.Email, "pwd")
	require.NoError(t, err)

	_, err = g.WaitForSession(waitCtx(t), id.UID)
	require.Error(t, err)
	assert.Equal(t, session.ErrProfileLookup, errors.Cause(err))

	st := g.State()
	assert.True(t, st.Loading)
	assert.Nil(t, st.Session)
	assert.Equal(t, 1, profiles.lookups) // not retried
}

func TestGate_RetryAfterProfileLookupFailure(t *testing.T) {
	prov := newFakeProvider()
	id := session.Identity{UID: "u1", Email: "a@apoio.pt", DisplayName: "A"}
	prov.add(id, "pwd")
	profiles := newFakeProfiles()
	profiles.err = errors.New("connection refused")
	profiles.records[id.UID] = session.Profile{Role: "administrator"}
	g := newTestGate(t, prov, profiles, clientstore.NewMemoryStore())
	ctx := context.Background()

	_, err := g.Login(ctx, id.Email, "pwd")
	require.NoError(t, err)
	_, err = g.WaitForSession(waitCtx(t), id.UID)
	require.Error(t, err)

	// the failed state stays current until the next sign-in is resolved
	block := make(chan struct{})
	profiles.mu.Lock()
	profiles.err, profiles.block = nil, block
	profiles.mu.Unlock()

	_, err = g.Login(ctx, id.Email, "pwd")
	require.NoError(t, err)
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(block)
	}()

	s, err := g.WaitForSession(waitCtx(t), id.UID)
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdministrator, s.Role)

	st := g.State()
	assert.False(t, st.Loading)
	assert.NoError(t, st.Err)
	assert.Equal(t, uint64(3), st.Seq) // signed out, failed sign-in, retry
}

func TestGate_LastTransitionWins(t *testing.T) {
	prov := newFakeProvider()
	a := session.Identity{UID: "ua", Email: "a@apoio.pt"}
	b := session.Identity{UID: "ub", Email: "b@apoio.pt"}
	prov.add(a, "pwd")
	prov.add(b, "pwd")

	profiles := newFakeProfiles()
	g := newTestGate(t, prov, profiles, clientstore.NewMemoryStore())

	var mu sync.Mutex
	var published []session.State
	unsubscribe := g.Subscribe(func(st session.State) {
		mu.Lock()
		published = append(published, st)
		mu.Unlock()
	})
	defer unsubscribe()

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	profiles.mu.Lock()
	profiles.block, profiles.started = block, started
	profiles.mu.Unlock()

	ctx := context.Background()
	_, err := g.Login(ctx, a.Email, "pwd")
	require.NoError(t, err)
	<-started // the worker is resolving a

	// queued while a is being resolved
	_, err = g.Login(ctx, b.Email, "pwd")
	require.NoError(t, err)
	require.NoError(t, g.Logout(ctx))
	close(block)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(published) == 3 // current state on subscription, a, signed out
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, published[1].Session)
	assert.Equal(t, a.UID, published[1].Session.UID)
	assert.Nil(t, published[2].Session)
	assert.False(t, published[2].Loading)
	assert.Nil(t, g.Current())

	profiles.mu.Lock()
	assert.Equal(t, 1, profiles.lookups, "b is superseded before being resolved")
	profiles.mu.Unlock()
}

func TestGate_Subscribe(t *testing.T) {
	prov := newFakeProvider()
	id := session.Identity{UID: "u1", Email: "a@apoio.pt", DisplayName: "A"}
	prov.add(id, "pwd")
	g := session.NewGate(prov, newFakeProfiles(), clientstore.NewMemoryStore(), nopLogger{})

	var mu sync.Mutex
	var states []session.State
	unsubscribe := g.Subscribe(func(st session.State) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	})

	g.Start(context.Background())
	defer g.Stop()

	_, err := g.Login(context.Background(), id.Email, "pwd")
	require.NoError(t, err)
	_, err = g.WaitForSession(waitCtx(t), id.UID)
	require.NoError(t, err)
	unsubscribe()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.True(t, states[0].Loading, "initial state is loading")
	last := states[len(states)-1]
	require.NotNil(t, last.Session)
	assert.Equal(t, id.UID, last.Session.UID)
}

func TestGate_AssignRole(t *testing.T) {
	hints := clientstore.NewMemoryStore()
	g := session.NewGate(newFakeProvider(), newFakeProfiles(), hints, nopLogger{})
	ctx := context.Background()

	require.NoError(t, g.AssignRole(ctx, session.RoleAdministrator))
	hint, _ := hints.LoadRoleHint(ctx)
	assert.Equal(t, "administrator", hint)

	err := g.AssignRole(ctx, session.Role("owner"))
	assert.Equal(t, session.ErrInvalidRole, errors.Cause(err))
	hint, _ = hints.LoadRoleHint(ctx)
	assert.Equal(t, "administrator", hint)
}
