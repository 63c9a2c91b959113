package repository

import (
	"context"
	"testing"

	"owldoor/models"
	"owldoor/repository/testutil"
	"owldoor/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadRepository_Create(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLeadRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful creation fills generated fields", func(t *testing.T) {
		lead := testutil.CreateTestLead("Morgan Reyes", "Austin", "TX")

		err := repo.Create(ctx, lead)
		require.NoError(t, err)
		assert.NotZero(t, lead.ID)
		assert.False(t, lead.CreatedAt.IsZero())
	})

	t.Run("custom fields round-trip", func(t *testing.T) {
		lead := testutil.CreateTestLead("Jamie Okafor", "Dallas", "TX")
		lead.CustomFields = map[string]any{
			"source":           "referral",
			"years_experience": float64(4),
			"relocating":       true,
		}

		err := repo.Create(ctx, lead)
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, "referral", fetched.CustomFields["source"])
		assert.Equal(t, float64(4), fetched.CustomFields["years_experience"])
		assert.Equal(t, true, fetched.CustomFields["relocating"])
	})

	t.Run("nil wants stored as empty list", func(t *testing.T) {
		lead := testutil.CreateTestLead("Sam Lee", "Houston", "TX")
		lead.Wants = nil

		err := repo.Create(ctx, lead)
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, lead.ID)
		require.NoError(t, err)
		assert.Empty(t, fetched.Wants)
	})
}

func TestLeadRepository_GetByID(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLeadRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing lead returns nil without error", func(t *testing.T) {
		lead, err := repo.GetByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, lead)
	})

	t.Run("existing lead", func(t *testing.T) {
		created := testutil.CreateTestLead("Morgan Reyes", "Austin", "TX")
		require.NoError(t, repo.Create(ctx, created))

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Name, fetched.Name)
		assert.Equal(t, models.StageMatchReady, fetched.Stage)
		assert.Equal(t, models.ExclusivityExclusive, fetched.Exclusivity)
	})
}

func TestLeadRepository_GetByStage(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLeadRepository(testDB.DB)
	ctx := context.Background()

	ready1 := testutil.CreateTestLead("First", "Austin", "TX")
	ready2 := testutil.CreateTestLead("Second", "Dallas", "TX")
	fresh := testutil.CreateTestLeadWithStage("Third", "Houston", "TX", models.StageNew)
	require.NoError(t, repo.Create(ctx, ready1))
	require.NoError(t, repo.Create(ctx, ready2))
	require.NoError(t, repo.Create(ctx, fresh))

	leads, err := repo.GetByStage(ctx, models.StageMatchReady)
	require.NoError(t, err)

	require.Len(t, leads, 2)
	// Ordered by ID so runs see candidates in a stable order
	assert.Equal(t, ready1.ID, leads[0].ID)
	assert.Equal(t, ready2.ID, leads[1].ID)
}

func TestLeadRepository_UpdateStage(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLeadRepository(testDB.DB)
	ctx := context.Background()

	t.Run("conditional transition succeeds", func(t *testing.T) {
		lead := testutil.CreateTestLeadWithStage("Morgan Reyes", "Austin", "TX", models.StageNew)
		require.NoError(t, repo.Create(ctx, lead))

		err := repo.UpdateStage(ctx, lead.ID, models.StageNew, models.StageMatchReady)
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageMatchReady, fetched.Stage)
	})

	t.Run("wrong source stage conflicts", func(t *testing.T) {
		lead := testutil.CreateTestLeadWithStage("Jamie Okafor", "Dallas", "TX", models.StageNew)
		require.NoError(t, repo.Create(ctx, lead))

		err := repo.UpdateStage(ctx, lead.ID, models.StageMatchReady, models.StageMatched)
		assert.ErrorIs(t, err, service.ErrStageConflict)
	})

	t.Run("missing lead conflicts", func(t *testing.T) {
		err := repo.UpdateStage(ctx, 99999, models.StageNew, models.StageMatchReady)
		assert.ErrorIs(t, err, service.ErrStageConflict)
	})
}
