package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/skins-market-client/credentials"
	credentialfakerepo "github.com/jrsteele09/skins-market-client/credentials/repofake"
	"github.com/jrsteele09/skins-market-client/gateway"
	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
	"github.com/jrsteele09/skins-market-client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = session.User{ID: 1, SteamID: "76561198000000001", Nickname: "alice", Role: session.RoleUser, Balance: 100}

type fakeAuthAPI struct {
	login    func(context.Context, session.LoginRequest) (*session.AuthResponse, error)
	register func(context.Context, session.RegisterRequest) (*session.AuthResponse, error)
	me       func(context.Context) (*session.User, error)
	logout   func(context.Context) error

	meCalls     atomic.Int32
	logoutCalls atomic.Int32
}

func (f *fakeAuthAPI) Login(ctx context.Context, req session.LoginRequest) (*session.AuthResponse, error) {
	return f.login(ctx, req)
}

func (f *fakeAuthAPI) Register(ctx context.Context, req session.RegisterRequest) (*session.AuthResponse, error) {
	return f.register(ctx, req)
}

func (f *fakeAuthAPI) Me(ctx context.Context) (*session.User, error) {
	f.meCalls.Add(1)
	if f.me == nil {
		u := alice
		return &u, nil
	}
	return f.me(ctx)
}

func (f *fakeAuthAPI) Logout(ctx context.Context) error {
	f.logoutCalls.Add(1)
	if f.logout == nil {
		return nil
	}
	return f.logout(ctx)
}

// blockingStore holds Clear until release is closed.
type blockingStore struct {
	*credentialfakerepo.FakeStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Clear(ctx context.Context) error {
	close(s.entered)
	<-s.release
	return s.FakeStore.Clear(ctx)
}

type testFixture struct {
	store   *credentialfakerepo.FakeStore
	holder  *credentials.Holder
	api     *fakeAuthAPI
	manager *session.Manager
}

// setupTestFixture builds a manager over a store that optionally already holds token.
func setupTestFixture(t *testing.T, token string) *testFixture {
	t.Helper()
	store := credentialfakerepo.NewFakeStore()
	if token != "" {
		store = credentialfakerepo.NewFakeStoreWith(token)
	}
	holder := credentials.NewHolder(store)
	_, err := holder.Load(context.Background())
	require.NoError(t, err)

	api := &fakeAuthAPI{}
	return &testFixture{
		store:   store,
		holder:  holder,
		api:     api,
		manager: session.NewManager(holder, api),
	}
}

func TestNewManagerInitializingOnlyWithCredential(t *testing.T) {
	f := setupTestFixture(t, "")
	require.False(t, f.manager.Current().Initializing)
	_, err := f.manager.RequireUser()
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	f = setupTestFixture(t, "tok")
	require.True(t, f.manager.Current().Initializing)
	_, err = f.manager.RequireUser()
	require.ErrorIs(t, err, apperrors.ErrSessionInitializing)
}

func TestBootstrapWithoutCredential(t *testing.T) {
	f := setupTestFixture(t, "")
	require.NoError(t, f.manager.Bootstrap(context.Background()))
	require.Zero(t, f.api.meCalls.Load())
	require.False(t, f.manager.Current().Initializing)
	require.False(t, f.manager.Current().Authenticated())
}

func TestBootstrapRestoresSession(t *testing.T) {
	f := setupTestFixture(t, "tok")
	require.NoError(t, f.manager.Bootstrap(context.Background()))

	s := f.manager.Current()
	require.False(t, s.Initializing)
	require.True(t, s.Authenticated())
	require.Equal(t, alice, *s.User)

	u, err := f.manager.RequireUser()
	require.NoError(t, err)
	require.Equal(t, "alice", u.Nickname)
}

func TestBootstrapFailureClearsCredential(t *testing.T) {
	f := setupTestFixture(t, "tok")
	f.api.me = func(context.Context) (*session.User, error) {
		return nil, errors.New("no connection to server")
	}

	require.Error(t, f.manager.Bootstrap(context.Background()))
	s := f.manager.Current()
	require.False(t, s.Initializing)
	require.Nil(t, s.User)

	_, held := f.holder.Current()
	require.False(t, held)
	_, stored := f.store.Stored()
	require.False(t, stored)
}

func TestBootstrapDiscardsExpiredCredential(t *testing.T) {
	exp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)

	store := credentialfakerepo.NewFakeStoreWith(raw)
	holder := credentials.NewHolder(store)
	_, err = holder.Load(context.Background())
	require.NoError(t, err)

	api := &fakeAuthAPI{}
	m := session.NewManager(holder, api, session.WithNowTime(func() time.Time { return exp.Add(time.Hour) }))

	require.NoError(t, m.Bootstrap(context.Background()))
	require.Zero(t, api.meCalls.Load())
	require.False(t, m.Current().Initializing)
	_, stored := store.Stored()
	require.False(t, stored)
}

func TestBootstrapCancelledKeepsCredential(t *testing.T) {
	f := setupTestFixture(t, "tok")
	f.api.me = func(ctx context.Context) (*session.User, error) {
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, f.manager.Bootstrap(ctx), context.Canceled)

	_, held := f.holder.Current()
	require.True(t, held)
	require.False(t, f.manager.Current().Initializing)
}

func TestConcurrentBootstrapIsCollapsed(t *testing.T) {
	f := setupTestFixture(t, "tok")
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.api.me = func(context.Context) (*session.User, error) {
		once.Do(func() { close(started) })
		<-release
		u := alice
		return &u, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.manager.Bootstrap(context.Background()))
		}()
	}
	<-started
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), f.api.meCalls.Load())
	require.True(t, f.manager.Current().Authenticated())
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t, "")
	f.api.login = func(_ context.Context, req session.LoginRequest) (*session.AuthResponse, error) {
		if req.SteamID != alice.SteamID || req.Password != "secret" {
			return nil, errors.New("bad credentials")
		}
		return &session.AuthResponse{Token: "new-token", User: alice}, nil
	}

	_, err := f.manager.Login(context.Background(), "  ", "secret")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = f.manager.Login(context.Background(), alice.SteamID, "wrong")
	require.Error(t, err)
	require.False(t, f.manager.Current().Authenticated())

	u, err := f.manager.Login(context.Background(), " "+alice.SteamID+" ", "secret")
	require.NoError(t, err)
	require.Equal(t, alice, *u)

	stored, ok := f.store.Stored()
	require.True(t, ok)
	require.Equal(t, "new-token", stored)
	require.Equal(t, alice, *f.manager.Current().User)
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t, "")
	f.api.register = func(_ context.Context, req session.RegisterRequest) (*session.AuthResponse, error) {
		return &session.AuthResponse{
			Token: "reg-token",
			User:  session.User{ID: 9, SteamID: req.SteamID, Nickname: req.Nickname, Role: session.RoleUser},
		}, nil
	}

	_, err := f.manager.Register(context.Background(), "765", "", "pw")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	u, err := f.manager.Register(context.Background(), "765", "bob", "pw")
	require.NoError(t, err)
	require.Equal(t, "bob", u.Nickname)
	token, _ := f.holder.Current()
	require.Equal(t, "reg-token", token)
}

func TestAcceptKeepsSessionWhenStoreFails(t *testing.T) {
	f := setupTestFixture(t, "")
	f.store.SaveErr = errors.New("read only")

	require.NoError(t, f.manager.Accept(context.Background(), "tok", alice))
	require.True(t, f.manager.Current().Authenticated())
	token, held := f.holder.Current()
	require.True(t, held)
	require.Equal(t, "tok", token)

	require.ErrorIs(t, f.manager.Accept(context.Background(), "", alice), apperrors.ErrInvalidRequest)
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t, "")
	f.api.logout = func(context.Context) error { return errors.New("Server error") }

	f.manager.Logout(context.Background())
	require.Zero(t, f.api.logoutCalls.Load(), "no credential, nothing to tell the backend")

	require.NoError(t, f.manager.Accept(context.Background(), "tok", alice))
	f.manager.Logout(context.Background())
	require.Equal(t, int32(1), f.api.logoutCalls.Load())
	require.False(t, f.manager.Current().Authenticated())
	_, held := f.holder.Current()
	require.False(t, held)
}

func TestUnauthorizedClearsSessionBeforeStore(t *testing.T) {
	store := &blockingStore{
		FakeStore: credentialfakerepo.NewFakeStore(),
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	holder := credentials.NewHolder(store)
	manager := session.NewManager(holder, &fakeAuthAPI{})
	require.NoError(t, manager.Accept(context.Background(), "tok", alice))

	done := make(chan struct{})
	go func() {
		defer close(done)
		manager.HandleUnauthorized()
	}()

	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("store was never cleared")
	}

	// the store round trip is still in flight
	require.False(t, manager.Current().Authenticated())
	_, held := holder.Current()
	require.False(t, held)

	close(store.release)
	<-done
	_, stored := store.Stored()
	require.False(t, stored)
}

func TestRefreshUser(t *testing.T) {
	f := setupTestFixture(t, "")

	u, err := f.manager.RefreshUser(context.Background())
	require.NoError(t, err)
	require.Nil(t, u)
	require.Zero(t, f.api.meCalls.Load())

	require.NoError(t, f.manager.Accept(context.Background(), "tok", alice))
	f.api.me = func(context.Context) (*session.User, error) {
		u := alice
		u.Balance = 350
		return &u, nil
	}
	u, err = f.manager.RefreshUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(350), u.Balance)
	require.Equal(t, int64(350), f.manager.Current().User.Balance)

	f.api.me = func(context.Context) (*session.User, error) { return nil, errors.New("Forbidden") }
	_, err = f.manager.RefreshUser(context.Background())
	require.Error(t, err)
	require.False(t, f.manager.Current().Authenticated())
	_, held := f.holder.Current()
	require.False(t, held)
}

func TestStaleRefreshDoesNotRestoreSession(t *testing.T) {
	f := setupTestFixture(t, "")
	require.NoError(t, f.manager.Accept(context.Background(), "tok", alice))

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.me = func(context.Context) (*session.User, error) {
		close(started)
		<-release
		u := alice
		return &u, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		u, err := f.manager.RefreshUser(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, u)
	}()

	<-started
	f.manager.HandleUnauthorized()
	close(release)
	<-done

	require.False(t, f.manager.Current().Authenticated())
}

func TestRequireAdmin(t *testing.T) {
	f := setupTestFixture(t, "")
	require.NoError(t, f.manager.Accept(context.Background(), "tok", alice))
	_, err := f.manager.RequireAdmin()
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	admin := alice
	admin.Role = session.RoleAdmin
	require.NoError(t, f.manager.Accept(context.Background(), "tok", admin))
	u, err := f.manager.RequireAdmin()
	require.NoError(t, err)
	require.True(t, u.IsAdmin())
}

func TestCurrentReturnsCopy(t *testing.T) {
	f := setupTestFixture(t, "")
	require.NoError(t, f.manager.Accept(context.Background(), "tok", alice))

	f.manager.Current().User.Balance = 1_000_000
	require.Equal(t, alice.Balance, f.manager.Current().User.Balance)
}

// gatewayAuth speaks to a real HTTP backend through the gateway.
type gatewayAuth struct {
	gw *gateway.Gateway
}

func (a gatewayAuth) Login(ctx context.Context, req session.LoginRequest) (*session.AuthResponse, error) {
	var out session.AuthResponse
	if err := a.gw.Post(ctx, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a gatewayAuth) Register(ctx context.Context, req session.RegisterRequest) (*session.AuthResponse, error) {
	var out session.AuthResponse
	if err := a.gw.Post(ctx, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a gatewayAuth) Me(ctx context.Context) (*session.User, error) {
	var out session.User
	if err := a.gw.Get(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a gatewayAuth) Logout(ctx context.Context) error {
	return a.gw.Post(ctx, "/auth/logout", nil, nil)
}

func TestRejectedLoginClearsSession(t *testing.T) {
	var mu sync.Mutex
	var lastAuth []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		lastAuth = append(lastAuth, r.Header.Get("Authorization"))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer ts.Close()

	store := credentialfakerepo.NewFakeStore()
	holder := credentials.NewHolder(store)
	gw := gateway.New(ts.URL, gateway.WithTokenSource(holder))
	m := session.NewManager(holder, gatewayAuth{gw: gw})
	gw.SetUnauthorizedObserver(m.HandleUnauthorized)

	require.NoError(t, m.Accept(context.Background(), "old-token", alice))

	_, err := m.Login(context.Background(), alice.SteamID, "wrong")
	require.Error(t, err)
	f, ok := gateway.AsFailure(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, f.Status)
	require.Equal(t, gateway.MsgUnauthorized, f.Message)

	require.False(t, m.Current().Authenticated())
	_, held := holder.Current()
	require.False(t, held)
	_, stored := store.Stored()
	require.False(t, stored)

	var skins []any
	require.NoError(t, gw.Get(context.Background(), "/market/skins", &skins))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lastAuth, 2)
	require.Equal(t, "Bearer old-token", lastAuth[0])
	require.Empty(t, lastAuth[1])
}
