package repository

import (
	"context"
	"testing"
	"time"

	"owldoor/models"
	"owldoor/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMatchPair(t *testing.T, testDB *testutil.TestDatabase) (*models.Lead, *models.Client) {
	ctx := context.Background()

	lead := testutil.CreateTestLead("Morgan Reyes", "Austin", "TX")
	require.NoError(t, NewLeadRepository(testDB.DB).Create(ctx, lead))

	client := testutil.CreateTestClient("Brokerage", "TX")
	require.NoError(t, NewClientRepository(testDB.DB).Create(ctx, client))

	return lead, client
}

func TestMatchRepository_Create(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMatchRepository(testDB.DB)
	ctx := context.Background()
	lead, client := setupMatchPair(t, testDB)

	t.Run("successful creation", func(t *testing.T) {
		match := testutil.CreateTestMatch(lead.ID, client.ID)

		err := repo.Create(ctx, match)
		require.NoError(t, err)
		assert.NotZero(t, match.ID)
		assert.False(t, match.CreatedAt.IsZero())
	})

	t.Run("duplicate pair is refused by the unique constraint", func(t *testing.T) {
		match := testutil.CreateTestMatch(lead.ID, client.ID)

		err := repo.Create(ctx, match)
		assert.Error(t, err)
	})
}

func TestMatchRepository_ExistsForPair(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMatchRepository(testDB.DB)
	ctx := context.Background()
	lead, client := setupMatchPair(t, testDB)

	exists, err := repo.ExistsForPair(ctx, lead.ID, client.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(ctx, testutil.CreateTestMatch(lead.ID, client.ID)))

	exists, err = repo.ExistsForPair(ctx, lead.ID, client.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMatchRepository_GetByClient(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMatchRepository(testDB.DB)
	leadRepo := NewLeadRepository(testDB.DB)
	ctx := context.Background()
	lead, client := setupMatchPair(t, testDB)

	second := testutil.CreateTestLead("Jamie Okafor", "Dallas", "TX")
	require.NoError(t, leadRepo.Create(ctx, second))

	require.NoError(t, repo.Create(ctx, testutil.CreateTestMatch(lead.ID, client.ID)))
	require.NoError(t, repo.Create(ctx, testutil.CreateTestMatch(second.ID, client.ID)))

	matches, err := repo.GetByClient(ctx, client.ID, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	limited, err := repo.GetByClient(ctx, client.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMatchRepository_ListSince(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMatchRepository(testDB.DB)
	ctx := context.Background()
	lead, client := setupMatchPair(t, testDB)

	match := testutil.CreateTestMatch(lead.ID, client.ID)
	match.CreditsCharged = decimal.NewFromInt(150)
	require.NoError(t, repo.Create(ctx, match))

	recent, err := repo.ListSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].CreditsCharged.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, match.RunID, recent[0].RunID)

	future, err := repo.ListSince(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, future)
}

func TestMissedMatchRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMissedMatchRepository(testDB.DB)
	ctx := context.Background()
	lead, client := setupMatchPair(t, testDB)

	t.Run("create and check pair", func(t *testing.T) {
		missed := &models.MissedMatch{
			LeadID:   lead.ID,
			ClientID: client.ID,
			Reason:   models.MissReasonInsufficientCredits,
		}

		require.NoError(t, repo.Create(ctx, missed))
		assert.NotZero(t, missed.ID)

		exists, err := repo.ExistsForPair(ctx, lead.ID, client.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate pair is refused", func(t *testing.T) {
		missed := &models.MissedMatch{
			LeadID:   lead.ID,
			ClientID: client.ID,
			Reason:   models.MissReasonInsufficientCredits,
		}

		assert.Error(t, repo.Create(ctx, missed))
	})

	t.Run("get by client", func(t *testing.T) {
		missed, err := repo.GetByClient(ctx, client.ID, 10)
		require.NoError(t, err)
		require.Len(t, missed, 1)
		assert.Equal(t, models.MissReasonInsufficientCredits, missed[0].Reason)
	})
}
