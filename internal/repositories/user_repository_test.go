package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealdesk/internal/models"
)

func seedUser(t *testing.T, repo UserRepository, id, email string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           id,
		Name:         "User " + id,
		Email:        email,
		Role:         "rep",
		PasswordHash: "hash",
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u := seedUser(t, repo, "u1", "ann@example.com")
	seedUser(t, repo, "u2", "bob@example.com")

	got, err := repo.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Nil(t, got.RefreshToken)
	assert.False(t, got.RefreshRevoked)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got.Role = "manager"
	got.UpdatedAt = testNow.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "manager", again.Role)

	require.NoError(t, repo.Delete(ctx, "u2"))
	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = repo.GetByID(ctx, "u2")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &models.User{ID: "u2"}), models.ErrNotFound)
}

func TestUserRepository_RefreshRotation(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUser(t, repo, "u1", "ann@example.com")

	exp := testNow.Add(24 * time.Hour)
	require.NoError(t, repo.UpdateRefresh(ctx, "u1", "r1", exp))

	got, err := repo.GetByRefreshToken(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got.RefreshExpiresAt)
	assert.True(t, exp.Equal(*got.RefreshExpiresAt))

	rotated, err := repo.RotateRefresh(ctx, "r1", "r2", exp)
	require.NoError(t, err)
	assert.Equal(t, "u1", rotated.ID)

	// The old token is single use.
	_, err = repo.RotateRefresh(ctx, "r1", "r3", exp)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	require.NoError(t, repo.ClearRefresh(ctx, "u1"))
	_, err = repo.GetByRefreshToken(ctx, "r2")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_UpdatePasswordRevokesRefresh(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUser(t, repo, "u1", "ann@example.com")
	require.NoError(t, repo.UpdateRefresh(ctx, "u1", "r1", testNow.Add(time.Hour)))

	require.NoError(t, repo.UpdatePassword(ctx, "u1", "new-hash", testNow))

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Nil(t, got.RefreshToken)
	assert.True(t, got.RefreshRevoked)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "nobody", "x", testNow), models.ErrNotFound)
}

func TestPasswordResetRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPasswordResetRepository(newTestDB(t))

	pr := &models.PasswordReset{ID: "p1", UserID: "u1", Token: "tok", ExpiresAt: testNow.Add(time.Hour), CreatedAt: testNow}
	require.NoError(t, repo.Create(ctx, pr))

	got, err := repo.GetByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Nil(t, got.UsedAt)

	require.NoError(t, repo.MarkUsed(ctx, "p1", testNow))
	assert.ErrorIs(t, repo.MarkUsed(ctx, "p1", testNow), models.ErrConflict)

	got, err = repo.GetByToken(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, got.UsedAt)

	_, err = repo.GetByToken(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
