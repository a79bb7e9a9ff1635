package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-console/internal/config"
	"github.com/magabrotheeeer/gym-console/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := New(context.Background(), config.RedisConnection{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := []models.Membership{{ID: 1, Name: "Gold", DurationInMonths: 3, Fee: decimal.NewFromInt(3000)}}
	require.NoError(t, cache.Set(ctx, KeyMemberships, expected, time.Minute))

	var actual []models.Membership
	found, err := cache.Get(ctx, KeyMemberships, &actual)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, actual, 1)
	assert.Equal(t, "Gold", actual[0].Name)
	assert.True(t, actual[0].Fee.Equal(decimal.NewFromInt(3000)))
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out []models.Membership
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, KeyDashboardSnapshot, map[string]int{"total": 3}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var out map[string]int
	found, err := cache.Get(ctx, KeyDashboardSnapshot, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, KeyMemberships, []int{1}, 0))
	require.NoError(t, cache.Invalidate(ctx, KeyMemberships))
	assert.False(t, mr.Exists(KeyMemberships))
}

func TestGetCorruptedValue(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, mr.Set(KeyMemberships, "{not json"))

	var out []models.Membership
	found, err := cache.Get(context.Background(), KeyMemberships, &out)
	require.Error(t, err)
	assert.False(t, found)
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(context.Background(), config.RedisConnection{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	require.Error(t, err)
}
