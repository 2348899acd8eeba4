package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealdesk/internal/authz"
	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

func TestLoginIssuesTokens(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "Ana@Example.com", "secret1")
	// the parser checks expiry against the wall clock
	f.clock.t = time.Now().UTC()

	pair, err := f.auth.Login(context.Background(), " ana@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.EqualValues(t, (15 * time.Minute).Seconds(), pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := authz.ParseAccessToken([]byte(testAuthConfig.JWTSecret), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, authz.RoleRep, claims.Role)
}

func TestLoginRejections(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "ana@example.com", "secret1")
	ctx := context.Background()

	_, err := f.auth.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.auth.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.auth.Login(ctx, "", "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "ana@example.com", "secret1")
	ctx := context.Background()

	first, err := f.auth.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	second, err := f.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized, "a redeemed token is single use")
}

func TestRefreshExpiredAndLoggedOut(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "ana@example.com", "secret1")
	ctx := context.Background()

	pair, err := f.auth.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.auth.Logout(ctx, u.ID))
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	pair, err = f.auth.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	f.clock.Advance(testAuthConfig.RefreshTTL + time.Second)
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = f.auth.Refresh(ctx, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUserServiceRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "ana@example.com", "secret1")

	_, err := f.userSvc.Create(ctx, models.CreateUserRequest{Name: "Dup", Email: "ANA@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = f.userSvc.Create(ctx, models.CreateUserRequest{Name: "Short", Email: "s@example.com", Password: "123"})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = f.userSvc.Create(ctx, models.CreateUserRequest{Name: "Boss", Email: "b@example.com", Password: "secret1", Role: "owner"})
	assert.ErrorIs(t, err, models.ErrValidation)

	updated, err := f.userSvc.Update(ctx, u.ID, models.UserPatch{Role: ptr(authz.RoleManager), Password: ptr("newpass1")})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleManager, updated.Role)

	_, err = f.auth.Login(ctx, "ana@example.com", "secret1")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.auth.Login(ctx, "ana@example.com", "newpass1")
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "ana@example.com", "secret1")
	mail := &captureEmail{}
	svc := NewPasswordResetService(f.users, repositories.NewPasswordResetRepository(f.db), mail, f.auth, testAuthConfig.ResetTTL, f.clock.Now, zap.NewNop())

	require.NoError(t, svc.RequestReset(ctx, "nobody@example.com"))
	assert.Empty(t, mail.tokens, "unknown emails get no mail")

	require.NoError(t, svc.RequestReset(ctx, "ANA@example.com"))
	require.Len(t, mail.tokens, 1)
	token := mail.tokens[0]

	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "abc"), models.ErrValidation)
	require.NoError(t, svc.ResetPassword(ctx, token, "brandnew"))
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "another1"), models.ErrValidation)

	_, err := f.auth.Login(ctx, "ana@example.com", "brandnew")
	assert.NoError(t, err)
}

func TestPasswordResetExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "ana@example.com", "secret1")
	mail := &captureEmail{}
	svc := NewPasswordResetService(f.users, repositories.NewPasswordResetRepository(f.db), mail, f.auth, testAuthConfig.ResetTTL, f.clock.Now, zap.NewNop())

	require.NoError(t, svc.RequestReset(ctx, "ana@example.com"))
	f.clock.Advance(2 * time.Hour)
	err := svc.ResetPassword(ctx, mail.tokens[0], "brandnew")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "bogus", "brandnew"), models.ErrValidation)
}

func TestPasswordResetKeepsSurroundingSpaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "ana@example.com", "secret1")
	mail := &captureEmail{}
	svc := NewPasswordResetService(f.users, repositories.NewPasswordResetRepository(f.db), mail, f.auth, testAuthConfig.ResetTTL, f.clock.Now, zap.NewNop())

	require.NoError(t, svc.RequestReset(ctx, "ana@example.com"))
	require.NoError(t, svc.ResetPassword(ctx, mail.tokens[0], "  padded pass "))

	_, err := f.auth.Login(ctx, "ana@example.com", "  padded pass ")
	assert.NoError(t, err)
	_, err = f.auth.Login(ctx, "ana@example.com", "padded pass")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
