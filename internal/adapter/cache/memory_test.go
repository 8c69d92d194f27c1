package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luncho-service/internal/domain/model"
	"luncho-service/pkg/logger"
)

var now = time.Unix(1_700_000_000, 0)

func record(code model.CountryCode, expiration float64) *model.LunchoData {
	return &model.LunchoData{
		CountryCode:     code,
		CurrencyCode:    "JPY",
		DollarPerLuncho: 0.01,
		PPP:             110,
		ExchangeRate:    110,
		Expiration:      expiration,
	}
}

func TestMemoryCache_GetFreshAndStale(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(logger.Discard())

	_, found := c.Get(ctx, "JP", now)
	assert.False(t, found, "empty cache")

	require.NoError(t, c.Set(ctx, "JP", record("JP", 1_700_003_600)))
	got, found := c.Get(ctx, "JP", now)
	require.True(t, found)
	assert.Equal(t, 110.0, got.PPP)

	_, found = c.Get(ctx, "JP", now.Add(2*time.Hour))
	assert.False(t, found, "stale record must not be a hit")

	// Stale records stay stored until overwritten.
	assert.Len(t, c.All(ctx), 1)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(logger.Discard())

	in := record("JP", 1_700_003_600)
	require.NoError(t, c.Set(ctx, "JP", in))
	in.PPP = 1

	got, found := c.Get(ctx, "JP", now)
	require.True(t, found)
	assert.Equal(t, 110.0, got.PPP)

	got.PPP = 2
	again, _ := c.Get(ctx, "JP", now)
	assert.Equal(t, 110.0, again.PPP)
}

func TestMemoryCache_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(logger.Discard())
	require.NoError(t, c.Set(ctx, "FR", record("FR", 1_700_003_600)))

	require.NoError(t, c.ReplaceAll(ctx, map[model.CountryCode]*model.LunchoData{
		"JP": record("JP", 1_700_003_600),
		"US": record("US", 1_700_003_600),
	}))

	all := c.All(ctx)
	assert.Len(t, all, 2)
	assert.NotContains(t, all, model.CountryCode("FR"))

	_, found := c.Get(ctx, "US", now)
	assert.True(t, found)
}
