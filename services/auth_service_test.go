package services

import (
	"testing"
	"time"

	"nfl-pickem/models"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAndLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	seeder := NewUserSeeder(f.store.Users())
	created, err := seeder.SeedUsers(f.ctx, []SeedUser{
		{Name: "Admin", Email: " Admin@Example.com ", Password: "correct-horse", IsAdmin: true},
		{Name: "Broken", Email: "not-an-email", Password: "correct-horse"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// seeding again leaves the account alone
	created, err = seeder.SeedUsers(f.ctx, []SeedUser{{Name: "Admin", Email: "admin@example.com", Password: "other-password"}})
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	auth := NewAuthService(f.store.Users(), "test-secret", time.Hour)
	resp, err := auth.Login(f.ctx, models.LoginRequest{Email: "ADMIN@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.Password)
	assert.True(t, resp.User.IsAdmin)

	claims, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.Hex(), claims.UserID)
	assert.True(t, claims.IsAdmin)

	user, err := auth.GetUserFromToken(f.ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.NotNil(t, user.LastLogin)
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := NewUserSeeder(f.store.Users()).SeedUsers(f.ctx, []SeedUser{{Name: "Alice", Email: "alice@example.com", Password: "correct-horse"}})
	require.NoError(t, err)
	auth := NewAuthService(f.store.Users(), "test-secret", time.Hour)

	_, err = auth.Login(f.ctx, models.LoginRequest{Email: "alice@example.com", Password: "wrong-horse"})
	assert.True(t, errors.Is(err, models.ErrForbidden))

	_, err = auth.Login(f.ctx, models.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.True(t, errors.Is(err, models.ErrForbidden))

	_, err = auth.Login(f.ctx, models.LoginRequest{Email: "alice@example.com"})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestValidateTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user := f.addUser("alice")

	issuer := NewAuthService(f.store.Users(), "one-secret", time.Hour)
	token, err := issuer.GenerateToken(user)
	require.NoError(t, err)

	_, err = NewAuthService(f.store.Users(), "other-secret", time.Hour).ValidateToken(token)
	assert.True(t, errors.Is(err, models.ErrForbidden))

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.ValidateToken(token)
	assert.True(t, errors.Is(err, models.ErrForbidden))
}
