package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/woowonjae/blogauth/internal/auth/domain"
	"github.com/woowonjae/blogauth/internal/auth/service"
	"github.com/woowonjae/blogauth/internal/auth/store"
	"github.com/woowonjae/blogauth/internal/auth/store/drivers/sqlite"
	"github.com/woowonjae/blogauth/pkg/cryptox"
	"github.com/woowonjae/blogauth/pkg/jwtx"
)

const (
	testIssuer = "blogauth-test"
	testKey    = "0123456789abcdef0123456789abcdef"
)

func TestMain(m *testing.M) {
	cryptox.SetCost(cryptox.MinCost)
	os.Exit(m.Run())
}

type testEnv struct {
	router *Router
	store  store.Store
	signer jwtx.Signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewSignerHS256([]byte(testKey))
	require.NoError(t, err)

	verifier, err := jwtx.NewVerifierHS256([]byte(testKey), jwtx.VerifyOptions{
		Issuer: testIssuer,
		Leeway: 5 * time.Second,
	})
	require.NoError(t, err)

	authService := &service.AuthService{
		Store:       st,
		Signer:      signer,
		Issuer:      testIssuer,
		AccessTTL:   time.Hour,
		DefaultRole: "ROLE_USER",
	}

	logger := slog.New(slog.DiscardHandler)

	router := NewRouter(verifier, "test", "ROLE_ADMIN", st, logger)
	router.AuthService = authService
	router.MigrationService = &service.PasswordMigrationService{Store: st}
	router.ApplyRoutes()

	return &testEnv{router: router, store: st, signer: signer}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) mintToken(t *testing.T, subject string, roles ...string) string {
	t.Helper()

	claims := jwtx.NewAccessClaims(subject, roles, time.Hour, testIssuer, time.Now())
	token, err := e.signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "secret",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[RegisterResponse](t, rec)
	require.Equal(t, "alice", resp.Username)
	require.Positive(t, resp.UserID)

	t.Run("duplicate username conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", RegisterRequest{
			Username: "alice", Email: "other@x.com", Password: "secret",
		}, "")
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "username_taken", decodeBody[map[string]string](t, rec)["error"])
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", RegisterRequest{
			Username: "alice2", Email: "a@x.com", Password: "secret",
		}, "")
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "email_taken", decodeBody[map[string]string](t, rec)["error"])
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", RegisterRequest{
			Username: "bob",
		}, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{nope"))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "secret",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Username: "alice", Password: "secret",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[LoginResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, "alice", resp.Username)
	require.Contains(t, resp.Roles, "ROLE_USER")

	t.Run("wrong password unauthorized", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
			Username: "alice", Password: "wrong",
		}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid_credentials", decodeBody[map[string]string](t, rec)["error"])
	})

	t.Run("unknown user unauthorized", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
			Username: "ghost", Password: "secret",
		}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMigrateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Legacy rows written straight to the store, bypassing registration.
	for _, u := range []struct{ name, email, pw string }{
		{"legacy1", "l1@x.com", "plain1"},
		{"legacy2", "l2@x.com", "plain2"},
	} {
		_, err := env.store.Users().CreateUser(ctx, domain.User{
			Username: u.name, Email: u.email, Password: u.pw,
		})
		require.NoError(t, err)
	}

	t.Run("requires a token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/admin/migrate-passwords", nil, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/admin/migrate-passwords", nil, "not.a.token")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a non-admin", func(t *testing.T) {
		token := env.mintToken(t, "alice", "ROLE_USER")
		rec := env.do(t, http.MethodPost, "/api/admin/migrate-passwords", nil, token)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin runs the batch", func(t *testing.T) {
		token := env.mintToken(t, "root", "ROLE_ADMIN")
		rec := env.do(t, http.MethodPost, "/api/admin/migrate-passwords", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)

		report := decodeBody[service.MigrationReport](t, rec)
		require.Equal(t, 2, report.Scanned)
		require.Equal(t, 2, report.Migrated)
		require.Equal(t, 0, report.Failed)

		// Second run finds nothing left to migrate.
		rec = env.do(t, http.MethodPost, "/api/admin/migrate-passwords", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		report = decodeBody[service.MigrationReport](t, rec)
		require.Equal(t, 0, report.Migrated)
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/livez", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "test", resp.Version)

	rec = env.do(t, http.MethodGet, "/readyz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[HealthResponse](t, rec)
	require.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Checks)
	require.Equal(t, "ok", resp.Checks.Database)
}
