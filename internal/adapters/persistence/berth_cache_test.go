package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborops/quayplan/internal/adapters/persistence"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/test/helpers"
)

func TestCachedBerthRepository_ServesStaleUntilTTL(t *testing.T) {
	db := helpers.NewTestDB(t)
	inner := persistence.NewGormBerthRepository(db)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	cached := persistence.NewCachedBerthRepository(inner, clock, 60*time.Second)
	_, terminal := helpers.SeedPort(t, db, "NLRTM")
	helpers.SeedBerth(t, db, terminal.ID, "K1", 350, 13, "CONTAINER")

	active, err := cached.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)

	// A write that bypasses the decorator is invisible until the TTL lapses
	helpers.SeedBerth(t, db, terminal.ID, "K2", 300, 11, "CONTAINER")
	active, err = cached.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)

	clock.Advance(61 * time.Second)
	active, err = cached.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestCachedBerthRepository_SaveInvalidatesImmediately(t *testing.T) {
	db := helpers.NewTestDB(t)
	inner := persistence.NewGormBerthRepository(db)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	cached := persistence.NewCachedBerthRepository(inner, clock, 60*time.Second)
	_, terminal := helpers.SeedPort(t, db, "NLRTM")
	helpers.SeedBerth(t, db, terminal.ID, "K1", 350, 13, "CONTAINER")

	_, err := cached.ListActive(context.Background())
	require.NoError(t, err)

	k2, err := berth.NewBerth(terminal.ID, "Kade 2", "K2", 300, 11, "CONTAINER")
	require.NoError(t, err)
	require.NoError(t, cached.Save(context.Background(), k2))

	active, err := cached.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 2)

	found, err := cached.FindByCode(context.Background(), "K2")
	require.NoError(t, err)
	assert.Equal(t, k2.ID, found.ID)
}

func TestCachedBerthRepository_InactiveBerthFallsThrough(t *testing.T) {
	db := helpers.NewTestDB(t)
	inner := persistence.NewGormBerthRepository(db)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	cached := persistence.NewCachedBerthRepository(inner, clock, 60*time.Second)
	_, terminal := helpers.SeedPort(t, db, "NLRTM")
	k1 := helpers.SeedBerth(t, db, terminal.ID, "K1", 350, 13, "CONTAINER")

	k1.Active = false
	require.NoError(t, cached.Save(context.Background(), k1))

	active, err := cached.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	// Point lookups still reach the decommissioned berth
	found, err := cached.FindByID(context.Background(), k1.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)
}

func TestCachedBerthRepository_ListCompatibleFiltersSnapshot(t *testing.T) {
	db := helpers.NewTestDB(t)
	inner := persistence.NewGormBerthRepository(db)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	cached := persistence.NewCachedBerthRepository(inner, clock, 60*time.Second)
	_, terminal := helpers.SeedPort(t, db, "NLRTM")
	helpers.SeedBerth(t, db, terminal.ID, "K1", 350, 16, "CONTAINER")
	helpers.SeedBerth(t, db, terminal.ID, "K2", 250, 10, "CONTAINER")

	compatible, err := cached.ListCompatible(context.Background(), 300, 12)
	require.NoError(t, err)
	require.Len(t, compatible, 1)
	assert.Equal(t, "K1", compatible[0].Code)
}
