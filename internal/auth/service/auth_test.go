package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/woowonjae/blogauth/internal/auth/domain"
	"github.com/woowonjae/blogauth/internal/auth/store"
	"github.com/woowonjae/blogauth/internal/auth/store/drivers/sqlite"
	"github.com/woowonjae/blogauth/pkg/cryptox"
	"github.com/woowonjae/blogauth/pkg/jwtx"
)

var testSigningKey = []byte("test-signing-key-0123456789abcdef")

func TestMain(m *testing.M) {
	cryptox.SetCost(cryptox.MinCost)
	m.Run()
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newAuthService(t *testing.T, st store.Store) *AuthService {
	t.Helper()

	signer, err := jwtx.NewSignerHS256(testSigningKey)
	require.NoError(t, err)

	return &AuthService{
		Store:       st,
		Signer:      signer,
		Issuer:      "blog-auth-test",
		AccessTTL:   time.Hour,
		DefaultRole: "ROLE_USER",
		LazyRehash:  true,
	}
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	userID, err := svc.Register(ctx, "alice", "a@x.com", "pw1")
	require.NoError(t, err)
	require.Positive(t, userID)

	result, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	require.Equal(t, userID, result.UserID)
	require.Equal(t, "alice", result.Username)
	require.Equal(t, "a@x.com", result.Email)
	require.Equal(t, "Bearer", result.TokenType)
	require.NotEmpty(t, result.Roles, "a fresh registration always has the default role")
	require.Contains(t, result.Roles, "ROLE_USER")

	// The stored credential must be the secure format, never plaintext.
	user, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, cryptox.IsHashed(user.Password))
	require.NotEqual(t, "pw1", user.Password)

	// The minted token validates and snapshots the role set.
	verifier, err := jwtx.NewVerifierHS256(testSigningKey, jwtx.VerifyOptions{Issuer: "blog-auth-test"})
	require.NoError(t, err)

	claims, err := verifier.Verify(result.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, []string{"ROLE_USER"}, claims.Roles)
}

func TestRegister_Conflicts(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	_, err := svc.Register(ctx, "alice", "a@x.com", "pw1")
	require.NoError(t, err)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice", "other@x.com", "pw2")
		require.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob", "a@x.com", "pw2")
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	// Exactly one user row persists after the conflicts.
	users, err := st.Users().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestRegister_MissingFields(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t, newTestStore(t))

	for _, tc := range []struct {
		name                      string
		username, email, password string
	}{
		{"no username", "", "a@x.com", "pw"},
		{"no email", "alice", "", "pw"},
		{"no password", "alice", "a@x.com", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			require.ErrorIs(t, err, ErrInvalidRegistration)
		})
	}
}

func TestRegister_MissingDefaultRoleRollsBack(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)
	svc.DefaultRole = "ROLE_MISSING"

	_, err := svc.Register(ctx, "alice", "a@x.com", "pw1")
	require.ErrorIs(t, err, ErrRoleNotConfigured)

	// The user insert must have been rolled back with the failed assignment.
	exists, err := st.Users().ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	require.False(t, exists, "no user may exist without the default role")
}

func TestRegisterThenLogin_LongPassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	// bcrypt only consumes 72 bytes; anything longer must still register.
	long := strings.Repeat("correct horse battery staple ", 3)
	require.Greater(t, len(long), 72)

	_, err := svc.Register(ctx, "alice", "a@x.com", long)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", long)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

// failingUsersRepo errors on the uniqueness lookup; the embedded interface
// panics on anything else, which is the point.
type failingUsersRepo struct {
	store.Users

	err error
}

func (r failingUsersRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return false, r.err
}

// storeTx lets usersOnlyTx embed the store.Tx interface without the
// embedded field name colliding with the interface's Tx method.
type storeTx = store.Tx

type usersOnlyTx struct {
	storeTx

	users store.Users
}

func (t usersOnlyTx) Users() store.Users { return t.users }

func TestRegister_ConflictAttributionPropagatesStoreError(t *testing.T) {
	svc := newAuthService(t, newTestStore(t))

	storeErr := errors.New("users table unavailable")
	tx := usersOnlyTx{users: failingUsersRepo{err: storeErr}}

	err := svc.conflictField(context.Background(), tx, "alice")
	require.ErrorIs(t, err, storeErr)
	require.NotErrorIs(t, err, ErrEmailTaken)
	require.NotErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	_, err := svc.Register(ctx, "alice", "a@x.com", "pw1")
	require.NoError(t, err)

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody", "pw1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func seedLegacyUser(t *testing.T, st store.Store, username, email, plaintext string) int64 {
	t.Helper()

	id, err := st.Users().CreateUser(context.Background(), domain.User{
		Username: username,
		Email:    email,
		Password: plaintext,
	})
	require.NoError(t, err)
	return id
}

func TestLogin_LegacyPlaintextCredential(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st)

	seedLegacyUser(t, st, "bob", "b@x.com", "hunter2")

	result, err := svc.Login(ctx, "bob", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "bob", result.Username)

	t.Run("comparison is exact and case sensitive", func(t *testing.T) {
		_, err := svc.Login(ctx, "bob", "Hunter2")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogin_LazyRehash(t *testing.T) {
	ctx := context.Background()

	t.Run("enabled upgrades the stored credential", func(t *testing.T) {
		st := newTestStore(t)
		svc := newAuthService(t, st)
		seedLegacyUser(t, st, "bob", "b@x.com", "hunter2")

		_, err := svc.Login(ctx, "bob", "hunter2")
		require.NoError(t, err)

		user, err := st.Users().GetUserByUsername(ctx, "bob")
		require.NoError(t, err)
		require.True(t, cryptox.IsHashed(user.Password))

		// Login keeps working against the upgraded row.
		_, err = svc.Login(ctx, "bob", "hunter2")
		require.NoError(t, err)
	})

	t.Run("disabled leaves the row alone", func(t *testing.T) {
		st := newTestStore(t)
		svc := newAuthService(t, st)
		svc.LazyRehash = false
		seedLegacyUser(t, st, "bob", "b@x.com", "hunter2")

		_, err := svc.Login(ctx, "bob", "hunter2")
		require.NoError(t, err)

		user, err := st.Users().GetUserByUsername(ctx, "bob")
		require.NoError(t, err)
		require.Equal(t, "hunter2", user.Password)
	})
}
