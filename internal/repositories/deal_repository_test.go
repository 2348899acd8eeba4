package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealdesk/internal/models"
)

func TestDealRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(newTestDB(t))

	deal := newDeal("Acme License", "S1", "U1")
	deal.ValueAmount = 1200.5
	deal.ExpectedCloseDate = ptr("2024-05-20")
	require.NoError(t, repo.Create(ctx, deal))

	got, err := repo.GetByID(ctx, deal.ID)
	require.NoError(t, err)
	assert.True(t, deal.CreatedAt.Equal(got.CreatedAt))
	got.CreatedAt, got.UpdatedAt = deal.CreatedAt, deal.UpdatedAt
	if diff := cmp.Diff(deal, got); diff != "" {
		t.Fatalf("deal mismatch (-want +got):\n%s", diff)
	}

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDealRepository_UpdateMoveVersioning(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(newTestDB(t))

	deal := newDeal("Acme License", "S1", "U1")
	require.NoError(t, repo.Create(ctx, deal))

	won := models.DealWon
	later := testNow.Add(time.Minute)
	updated, err := repo.Update(ctx, deal.ID, models.DealPatch{Status: &won}, nil, later)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, models.DealWon, updated.Status)
	assert.Equal(t, "Acme License", updated.Title)
	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(testNow))

	moved, err := repo.Move(ctx, deal.ID, "S2", nil, later.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(3), moved.Version)
	assert.Equal(t, "S2", moved.StageID)
	assert.Equal(t, models.DealWon, moved.Status)

	// Same stage still bumps the version.
	again, err := repo.Move(ctx, deal.ID, "S2", nil, later.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(4), again.Version)
}

func TestDealRepository_GuardedWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(newTestDB(t))

	deal := newDeal("Guarded", "S1", "U1")
	require.NoError(t, repo.Create(ctx, deal))

	_, err := repo.Update(ctx, deal.ID, models.DealPatch{Title: ptr("fresh")}, ptr(int64(1)), testNow)
	require.NoError(t, err)

	_, err = repo.Update(ctx, deal.ID, models.DealPatch{Title: ptr("stale")}, ptr(int64(1)), testNow)
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = repo.Move(ctx, deal.ID, "S9", ptr(int64(1)), testNow)
	assert.ErrorIs(t, err, models.ErrConflict)

	got, err := repo.GetByID(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Title)
	assert.Equal(t, "S1", got.StageID)
	assert.Equal(t, int64(2), got.Version)

	_, err = repo.Update(ctx, "missing", models.DealPatch{Title: ptr("x")}, ptr(int64(1)), testNow)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = repo.Move(ctx, "missing", "S2", nil, testNow)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDealRepository_ConcurrentWritersOneWins(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(newTestDB(t))

	deal := newDeal("Race", "S1", "U1")
	require.NoError(t, repo.Create(ctx, deal))

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Move(ctx, deal.ID, "S2", ptr(int64(1)), testNow)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, models.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, conflicts)

	got, err := repo.GetByID(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func TestDealRepository_BulkUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(newTestDB(t))

	d1 := newDeal("One", "S1", "U1")
	untouched := newDeal("Other", "S1", "U1")
	require.NoError(t, repo.Create(ctx, d1))
	require.NoError(t, repo.Create(ctx, untouched))

	lost := models.DealLost
	n, err := repo.BulkUpdate(ctx, []string{d1.ID, "missing"}, &lost, nil, nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByID(ctx, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DealLost, got.Status)
	assert.Equal(t, "S1", got.StageID)
	assert.Equal(t, int64(2), got.Version)

	other, err := repo.GetByID(ctx, untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other.Version)
	assert.Equal(t, models.DealOpen, other.Status)
}

func TestDealRepository_BulkUpdateWithVersions(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(newTestDB(t))

	d1 := newDeal("One", "S1", "U1")
	d2 := newDeal("Two", "S1", "U1")
	require.NoError(t, repo.Create(ctx, d1))
	require.NoError(t, repo.Create(ctx, d2))

	t.Run("stale version rolls back the batch", func(t *testing.T) {
		_, err := repo.BulkUpdate(ctx, []string{d1.ID, d2.ID}, nil, ptr("S3"),
			map[string]int64{d1.ID: 1, d2.ID: 7}, testNow)
		assert.ErrorIs(t, err, models.ErrConflict)

		for _, id := range []string{d1.ID, d2.ID} {
			got, err := repo.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, int64(1), got.Version)
			assert.Equal(t, "S1", got.StageID)
		}
	})

	t.Run("matching versions apply", func(t *testing.T) {
		n, err := repo.BulkUpdate(ctx, []string{d1.ID, d2.ID, "missing"}, nil, ptr("S3"),
			map[string]int64{d1.ID: 1, d2.ID: 1, "missing": 1}, testNow)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		got, err := repo.GetByID(ctx, d2.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
		assert.Equal(t, "S3", got.StageID)
	})
}

func TestDealRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewDealRepository(newTestDB(t))

	a := newDeal("Acme License", "S1", "U1")
	b := newDeal("Beta Renewal", "S2", "U1")
	c := newDeal("acme support", "S2", "U2")
	c.Status = models.DealWon
	for _, d := range []*models.Deal{a, b, c} {
		require.NoError(t, repo.Create(ctx, d))
	}

	cases := []struct {
		name   string
		filter models.DealFilter
		want   int
	}{
		{"all", models.DealFilter{Limit: 50}, 3},
		{"stage", models.DealFilter{StageID: "S2", Limit: 50}, 2},
		{"owner and stage", models.DealFilter{StageID: "S2", OwnerID: "U1", Limit: 50}, 1},
		{"status", models.DealFilter{Status: "won", Limit: 50}, 1},
		{"query is case insensitive", models.DealFilter{Query: "ACME", Limit: 50}, 2},
		{"limit", models.DealFilter{Limit: 1}, 1},
		{"offset", models.DealFilter{Limit: 50, Offset: 2}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deals, err := repo.List(ctx, tc.filter)
			require.NoError(t, err)
			assert.Len(t, deals, tc.want)
		})
	}

	found, err := repo.Search(ctx, "renew", 20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, b.ID, found[0].ID)
}

func TestDealRepository_DeleteLeavesChildren(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	deals := NewDealRepository(db)
	notes := NewNoteRepository(db)

	deal := newDeal("Doomed", "S1", "U1")
	require.NoError(t, deals.Create(ctx, deal))
	note := &models.Note{ID: "n1", DealID: &deal.ID, AuthorID: "U1", Content: "call back", CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, notes.Create(ctx, note))

	require.NoError(t, deals.Delete(ctx, deal.ID))
	require.NoError(t, deals.Delete(ctx, deal.ID))

	_, err := deals.GetByID(ctx, deal.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	left, err := notes.List(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, deal.ID, *left[0].DealID)
}

func TestDealRepository_SearchTreatsWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDealRepository(db)
	orgs := NewOrganizationRepository(db)

	require.NoError(t, repo.Create(ctx, newDeal("50% off renewal", "S1", "U1")))
	require.NoError(t, repo.Create(ctx, newDeal("Plain renewal", "S1", "U1")))
	require.NoError(t, repo.Create(ctx, newDeal("snake_case deal", "S1", "U1")))
	require.NoError(t, orgs.Create(ctx, &models.Organization{ID: "o1", Name: "Initech", CreatedAt: testNow, UpdatedAt: testNow}))

	found, err := repo.Search(ctx, "%", 20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "50% off renewal", found[0].Title)

	found, err = repo.Search(ctx, "_", 20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "snake_case deal", found[0].Title)

	listed, err := repo.List(ctx, models.DealFilter{Query: "%", Limit: 50})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	foundOrgs, err := orgs.Search(ctx, "%", 20)
	require.NoError(t, err)
	assert.Empty(t, foundOrgs)
}
