package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/logging"
	"github.com/dmitrijs2005/familyrecipe/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testARN = "arn:aws:execute-api:ca-central-1:123456789012:abc123/prod"

type loginCounter map[string]int

func (l loginCounter) LoginAttempt(outcome string) { l[outcome]++ }

func seedUser(t *testing.T, f *fixture, username, password string) string {
	t.Helper()
	ctx := context.Background()

	_, err := f.keys.CreateSecret(ctx, false)
	require.NoError(t, err)
	fam, err := f.families.CreateFamily(ctx, "Smiths")
	require.NoError(t, err)
	_, err = f.users.CreateUser(ctx, username, password, fam.ID)
	require.NoError(t, err)
	return fam.ID
}

func TestLogin_MissingCredentials_NoStoreAccess(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	for _, c := range [][2]string{{"", ""}, {"alice", ""}, {"", "pw1"}} {
		_, err := f.users.Login(ctx, c[0], c[1])
		assert.ErrorIs(t, err, common.ErrMissingCredentials)
	}
	assert.Equal(t, int64(0), f.store.calls.Load())
}

func TestScenario_FamilyUserLoginAuthorize(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	famID := seedUser(t, f, "alice", "pw1")
	assert.NotEmpty(t, famID)

	token, err := f.users.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = f.users.Login(ctx, "alice", "wrongpw")
	assert.Equal(t, common.ErrorUnauthorized, err)

	authz := auth.NewAuthorizer(f.keys, []string{"recipes", "users"}, 0, logging.Nop(), nil)

	for _, path := range []string{"/GET/recipes/list-recipes", "/POST/recipes/create", "/GET/recipes/test"} {
		d, err := authz.Authorize(ctx, "Bearer "+token, testARN+path)
		require.NoError(t, err, path)
		assert.Equal(t, "alice", d.PrincipalID)
		assert.Equal(t, auth.Identity{Username: "alice", FamilyID: famID, FamilyName: "Smiths"}, d.Context)
		assert.Equal(t, auth.EffectAllow, d.PolicyDocument.Statement[0].Effect)
	}

	_, err = authz.Authorize(ctx, "Bearer garbled", testARN+"/GET/recipes/list-recipes")
	assert.Equal(t, common.ErrorUnauthorized, err)
}

func TestLogin_TokenClaimsMatchUser(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	famID := seedUser(t, f, "Bob", "secret")

	token, err := f.users.Login(ctx, "BOB", "secret")
	require.NoError(t, err)

	keys, err := f.keys.VerificationKeys(ctx)
	require.NoError(t, err)
	id, err := auth.ParseToken(token, keys)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Username: "bob", FamilyID: famID, FamilyName: "Smiths"}, *id)
}

func TestLogin_UnknownUserLooksLikeBadPassword(t *testing.T) {
	f := newFixture(t, "")
	seedUser(t, f, "alice", "pw1")

	rec := loginCounter{}
	f.users.metrics = rec

	_, errUnknown := f.users.Login(context.Background(), "mallory", "pw1")
	_, errBadPw := f.users.Login(context.Background(), "alice", "nope")
	assert.Equal(t, errUnknown, errBadPw)
	assert.Equal(t, common.ErrorUnauthorized, errUnknown)
	assert.Equal(t, 2, rec["invalid_credentials"])
}

func TestLogin_TouchesLastLogin(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	seedUser(t, f, "alice", "pw1")

	at := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	f.users.now = func() time.Time { return at }

	_, err := f.users.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	u, err := f.manager.Users().GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u.LastLoginAt)
	assert.True(t, at.Equal(*u.LastLoginAt))
}

func TestLogin_NoSigningKey(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	fam, err := f.families.CreateFamily(ctx, "Smiths")
	require.NoError(t, err)
	_, err = f.users.CreateUser(ctx, "alice", "pw1", fam.ID)
	require.NoError(t, err)

	_, err = f.users.Login(ctx, "alice", "pw1")
	assert.ErrorIs(t, err, common.ErrSigningKeyUnavailable)
}

func TestLogin_StoreError(t *testing.T) {
	f := newFixture(t, "")
	seedUser(t, f, "alice", "pw1")
	f.store.fail = errStoreDown

	_, err := f.users.Login(context.Background(), "alice", "pw1")
	assert.Equal(t, common.ErrorInternal, err)
}

func TestCreateUser_Validation(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	for _, c := range [][3]string{{"", "pw", "f"}, {"u", "", "f"}, {"u", "pw", ""}} {
		_, err := f.users.CreateUser(ctx, c[0], c[1], c[2])
		assert.ErrorIs(t, err, common.ErrValidation)
	}

	_, err := f.users.CreateUser(ctx, "alice", "pw1", "no-such-family")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCreateUser_Duplicate(t *testing.T) {
	f := newFixture(t, "")
	famID := seedUser(t, f, "alice", "pw1")

	_, err := f.users.CreateUser(context.Background(), "ALICE", "other", famID)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreateUser_StoresSaltedCredential(t *testing.T) {
	f := newFixture(t, "")
	seedUser(t, f, "alice", "pw1")

	u, err := f.manager.Users().GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotContains(t, u.Password, "pw1")
	assert.Contains(t, u.Password, "$")
	assert.Equal(t, "Smiths", u.FamilyName)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	seedUser(t, f, "alice", "pw1")

	require.NoError(t, f.users.ChangePassword(ctx, "alice", "pw2"))

	_, err := f.users.Login(ctx, "alice", "pw1")
	assert.Equal(t, common.ErrorUnauthorized, err)
	_, err = f.users.Login(ctx, "alice", "pw2")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.users.ChangePassword(ctx, "alice", ""), common.ErrValidation)
	assert.True(t, errors.Is(f.users.ChangePassword(ctx, "ghost", "x"), common.ErrorNotFound))
}
