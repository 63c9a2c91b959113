package repository

import (
	"context"
	"testing"

	"owldoor/repository/testutil"
	"owldoor/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRepository_Create(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewClientRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		client := testutil.CreateTestClient("Brokerage A", "TX")

		err := repo.Create(ctx, client)
		require.NoError(t, err)
		assert.NotZero(t, client.ID)
		assert.Equal(t, int64(1), client.Version)
	})

	t.Run("decimal balance round-trips exactly", func(t *testing.T) {
		balance, _ := decimal.NewFromString("1234.56")
		client := testutil.CreateTestClientWithBalance("Brokerage B", "TX", balance)

		require.NoError(t, repo.Create(ctx, client))

		fetched, err := repo.GetByID(ctx, client.ID)
		require.NoError(t, err)
		assert.True(t, fetched.CreditsBalance.Equal(balance),
			"expected %s, got %s", balance, fetched.CreditsBalance)
	})

	t.Run("cost per match override round-trips", func(t *testing.T) {
		cost := decimal.NewFromInt(250)
		client := testutil.CreateTestClient("Brokerage C", "TX")
		client.CostPerMatch = &cost

		require.NoError(t, repo.Create(ctx, client))

		fetched, err := repo.GetByID(ctx, client.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched.CostPerMatch)
		assert.True(t, fetched.CostPerMatch.Equal(cost))
	})
}

func TestClientRepository_GetActive(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewClientRepository(testDB.DB)
	ctx := context.Background()

	active := testutil.CreateTestClient("Active", "TX")
	inactive := testutil.CreateTestClient("Inactive", "TX")
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, inactive))
	require.NoError(t, repo.Deactivate(ctx, inactive.ID))

	clients, err := repo.GetActive(ctx)
	require.NoError(t, err)

	require.Len(t, clients, 1)
	assert.Equal(t, active.ID, clients[0].ID)
}

func TestClientRepository_DeductCredits(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewClientRepository(testDB.DB)
	ctx := context.Background()

	t.Run("debit bumps version and lowers balance", func(t *testing.T) {
		client := testutil.CreateTestClientWithBalance("Funded", "TX", decimal.NewFromInt(500))
		require.NoError(t, repo.Create(ctx, client))

		err := repo.DeductCredits(ctx, client.ID, decimal.NewFromInt(100), client.Version)
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, client.ID)
		require.NoError(t, err)
		assert.True(t, fetched.CreditsBalance.Equal(decimal.NewFromInt(400)))
		assert.Equal(t, client.Version+1, fetched.Version)
	})

	t.Run("insufficient balance refuses and leaves balance intact", func(t *testing.T) {
		client := testutil.CreateTestClientWithBalance("Broke", "TX", decimal.NewFromInt(40))
		require.NoError(t, repo.Create(ctx, client))

		err := repo.DeductCredits(ctx, client.ID, decimal.NewFromInt(100), client.Version)
		assert.ErrorIs(t, err, service.ErrInsufficientCredits)

		fetched, err := repo.GetByID(ctx, client.ID)
		require.NoError(t, err)
		assert.True(t, fetched.CreditsBalance.Equal(decimal.NewFromInt(40)))
	})

	t.Run("stale version refuses", func(t *testing.T) {
		client := testutil.CreateTestClientWithBalance("Contended", "TX", decimal.NewFromInt(500))
		require.NoError(t, repo.Create(ctx, client))

		// Another writer bumps the version
		require.NoError(t, repo.AddCredits(ctx, client.ID, decimal.NewFromInt(10)))

		err := repo.DeductCredits(ctx, client.ID, decimal.NewFromInt(100), client.Version)
		assert.ErrorIs(t, err, service.ErrVersionConflict)
	})

	t.Run("missing client", func(t *testing.T) {
		err := repo.DeductCredits(ctx, 99999, decimal.NewFromInt(100), 1)
		assert.Error(t, err)
	})
}

func TestClientRepository_AddCredits(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewClientRepository(testDB.DB)
	ctx := context.Background()

	client := testutil.CreateTestClientWithBalance("Funded", "TX", decimal.NewFromInt(100))
	require.NoError(t, repo.Create(ctx, client))

	require.NoError(t, repo.AddCredits(ctx, client.ID, decimal.NewFromInt(250)))

	fetched, err := repo.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.True(t, fetched.CreditsBalance.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, client.Version+1, fetched.Version)
}

func TestClientRepository_UpdateCriteria(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewClientRepository(testDB.DB)
	ctx := context.Background()

	client := testutil.CreateTestClient("Brokerage", "TX")
	require.NoError(t, repo.Create(ctx, client))

	client.CoverageCities = []string{"Austin", "Dallas"}
	client.CoverageStates = nil
	client.Preferences = []string{"sell", "luxury"}

	require.NoError(t, repo.UpdateCriteria(ctx, client))

	fetched, err := repo.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Austin", "Dallas"}, fetched.CoverageCities)
	assert.Empty(t, fetched.CoverageStates)
	assert.Equal(t, []string{"sell", "luxury"}, fetched.Preferences)
}
