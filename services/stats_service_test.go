package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/imam0321/bistro-boss-server/models"
	"github.com/imam0321/bistro-boss-server/testutil"
)

func newStatsService(store *testutil.Store) StatsService {
	return NewStatsService(store.Users(), store.Menu(), store.Payments())
}

func TestAdminStats(t *testing.T) {
	store := testutil.NewStore()
	store.SeedUser(models.User{Email: "a@bistro.test"})
	store.SeedUser(models.User{Email: "b@bistro.test", Role: models.RoleAdmin})
	store.SeedMenuItem(models.MenuItem{Name: "Soup", Category: "soup", Price: 4})
	store.SeedPayment(models.Payment{Email: "a@bistro.test", Price: 10.1})
	store.SeedPayment(models.Payment{Email: "a@bistro.test", Price: 0.2})
	store.SeedPayment(models.Payment{Email: "b@bistro.test", Price: 19.9})

	stats, err := newStatsService(store).AdminStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &models.AdminStats{Users: 2, Products: 1, Orders: 3, Revenue: 30.2}, stats)
}

func TestAdminStatsEmpty(t *testing.T) {
	stats, err := newStatsService(testutil.NewStore()).AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.AdminStats{}, stats)
}

func TestAdminStatsStorageFailure(t *testing.T) {
	store := testutil.NewStore()
	store.Err = errors.New("server selection timeout")

	stats, err := newStatsService(store).AdminStats(context.Background())
	assert.Nil(t, stats)
	assert.Error(t, err)
}

func TestOrderStatsGroupsByCategory(t *testing.T) {
	store := testutil.NewStore()
	a1 := store.SeedMenuItem(models.MenuItem{Name: "Caesar", Category: "A", Price: 10})
	a2 := store.SeedMenuItem(models.MenuItem{Name: "Cobb", Category: "A", Price: 20})
	b := store.SeedMenuItem(models.MenuItem{Name: "Tomato", Category: "B", Price: 5})
	store.SeedMenuItem(models.MenuItem{Name: "Tiramisu", Category: "C", Price: 7})

	store.SeedPayment(models.Payment{Email: "a@bistro.test", MenuItems: []primitive.ObjectID{a1.ID, b.ID}})
	store.SeedPayment(models.Payment{Email: "b@bistro.test", MenuItems: []primitive.ObjectID{a2.ID, primitive.NewObjectID()}})

	stats, err := newStatsService(store).OrderStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.CategoryStat{
		{Category: "A", Count: 2, Total: 30},
		{Category: "B", Count: 1, Total: 5},
	}, stats)
}
