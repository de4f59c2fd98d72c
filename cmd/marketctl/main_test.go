package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jrsteele09/skins-market-client/gateway"
	"github.com/jrsteele09/skins-market-client/internal/config"
	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
	"github.com/jrsteele09/skins-market-client/market/fakebackend"
	"github.com/jrsteele09/skins-market-client/session"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type cliFixture struct {
	t       *testing.T
	backend *fakebackend.Server
}

func setupCLI(t *testing.T) *cliFixture {
	t.Helper()
	backend := fakebackend.New()
	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	t.Setenv("MARKET_API_BASE_URL", ts.URL)
	t.Setenv("CREDENTIAL_STORE", "file")
	t.Setenv("DATA_FOLDER", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("APP_NAME", "Market")
	return &cliFixture{t: t, backend: backend}
}

// exec runs one command the way a fresh process would: new app, session restored from disk.
func (f *cliFixture) exec(args ...string) (string, string, error) {
	f.t.Helper()
	cfg, err := config.New()
	require.NoError(f.t, err)

	var stdout, stderr bytes.Buffer
	a, closeApp, err := newApp(context.Background(), cfg, &stdout, &stderr)
	require.NoError(f.t, err)
	defer closeApp()

	err = a.dispatch(context.Background(), args)
	return stdout.String(), stderr.String(), err
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	f := setupCLI(t)
	f.backend.AddUser("76561198000000001", "alice", "secret1", session.RoleUser)

	out, _, err := f.exec("login", "-steam", "76561198000000001", "-password", "secret1")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as alice (USER)")

	out, _, err = f.exec("whoami")
	require.NoError(t, err)
	require.Contains(t, out, "alice 76561198000000001 USER balance 0")

	out, _, err = f.exec("logout")
	require.NoError(t, err)
	require.Contains(t, out, "Signed out")
	require.Zero(t, f.backend.ActiveTokens())

	_, _, err = f.exec("whoami")
	require.Error(t, err)
}

func TestBadLoginPrintsObservedFailure(t *testing.T) {
	f := setupCLI(t)
	f.backend.AddUser("76561198000000001", "alice", "secret1", session.RoleUser)

	_, errOut, err := f.exec("login", "-steam", "76561198000000001", "-password", "wrong!")
	require.Error(t, err)
	require.Contains(t, errOut, "Error: Unauthorized (status 401)")
}

func TestDepositThenCart(t *testing.T) {
	f := setupCLI(t)
	f.backend.AddUser("76561198000000001", "alice", "secret1", session.RoleUser)
	_, _, err := f.exec("login", "-steam", "76561198000000001", "-password", "secret1")
	require.NoError(t, err)

	out, _, err := f.exec("deposit", "-method", "crypto", "500")
	require.NoError(t, err)
	require.Contains(t, out, "DEPOSIT 500 SUCCESS, balance 500")

	out, _, err = f.exec("cart")
	require.NoError(t, err)
	require.Contains(t, out, "TOTAL")
	require.Contains(t, out, "0")
}

func TestAdminCommandsNeedAdmin(t *testing.T) {
	f := setupCLI(t)
	alice := f.backend.AddUser("76561198000000001", "alice", "secret1", session.RoleUser)
	f.backend.AddUser("76561198000000002", "bob", "secret2", session.RoleAdmin)

	_, _, err := f.exec("login", "-steam", "76561198000000001", "-password", "secret1")
	require.NoError(t, err)
	_, _, err = f.exec("admin-users")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, _, err = f.exec("login", "-steam", "76561198000000002", "-password", "secret2")
	require.NoError(t, err)
	out, _, err := f.exec("admin-users")
	require.NoError(t, err)
	require.Contains(t, out, "alice")
	require.Contains(t, out, "bob")

	out, _, err = f.exec("set-role", strconv.FormatInt(alice.ID, 10), "admin")
	require.NoError(t, err)
	require.Contains(t, out, "alice is now ADMIN")
}

func TestUnknownCommand(t *testing.T) {
	f := setupCLI(t)
	_, errOut, err := f.exec("frobnicate")
	require.ErrorIs(t, err, errUsage)
	require.Contains(t, errOut, "unknown command")
	require.Contains(t, errOut, "usage: marketctl")
}

func TestReportError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"observed failure", &gateway.Failure{Status: 500, Message: "Server error", Observed: true}, ""},
		{"unobserved failure", &gateway.Failure{Status: 404, Message: "cart not found"}, "Error: cart not found (status 404)\n"},
		{"unobserved transport failure", &gateway.Failure{Message: gateway.MsgNoConnection}, "Error: no connection to server\n"},
		{"cancelled context", fmt.Errorf("load cart: %w", context.Canceled), "Error: interrupted\n"},
		{"usage", errUsage, ""},
		{"plain", apperrors.ErrForbidden, "Error: " + apperrors.ErrForbidden.Error() + "\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tc.err)
			require.Equal(t, tc.want, buf.String())
		})
	}
}

func TestVersionBanner(t *testing.T) {
	f := setupCLI(t)
	out, _, err := f.exec("-v")
	require.NoError(t, err)
	require.Contains(t, out, "backend http://")
}
