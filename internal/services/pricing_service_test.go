package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rscoates/magic-library/internal/models"
	"github.com/rscoates/magic-library/internal/observability"
)

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

func setupPricing(dataDir string) (*PricingService, *fakeEntryRepo, *fakeContainerRepo) {
	entryRepo := newFakeEntryRepo()
	cardRepo := &fakeCardRepo{cards: []*models.Card{
		{ID: 1, SetCode: "M10", Number: "146", Name: "Lightning Bolt", Rarity: "common"},
		{ID: 2, SetCode: "M10", Number: "155", Name: "Shock", Rarity: "common"},
	}}
	containerRepo := newFakeContainerRepo()
	svc := NewPricingService(entryRepo, cardRepo, containerRepo, newFakeMetadataRepo(), dataDir, observability.GetLogger())
	return svc, entryRepo, containerRepo
}

func TestPricingService_Value(t *testing.T) {
	svc, _, _ := setupPricing(t.TempDir())
	svc.prices = map[priceKey]priceEntry{
		{"M10", "146"}: {usd: floatPtr(1.50), usdFoil: floatPtr(12.00), usdEtched: floatPtr(8.00)},
		{"M10", "155"}: {usd: floatPtr(0.10)},
		{"2XM", "129"}: {usdFoil: floatPtr(3.00)},
	}
	svc.loaded = true

	t.Run("nil finish takes the base price", func(t *testing.T) {
		v := svc.Value("M10", "146", nil)
		require.NotNil(t, v)
		assert.Equal(t, 1.50, *v)
	})

	t.Run("foil takes the foil price", func(t *testing.T) {
		v := svc.Value("M10", "146", strPtr("foil"))
		require.NotNil(t, v)
		assert.Equal(t, 12.00, *v)
	})

	t.Run("foil falls back to base when no foil price exists", func(t *testing.T) {
		v := svc.Value("M10", "155", strPtr("foil"))
		require.NotNil(t, v)
		assert.Equal(t, 0.10, *v)
	})

	t.Run("etched takes the etched price", func(t *testing.T) {
		v := svc.Value("M10", "146", strPtr("etched"))
		require.NotNil(t, v)
		assert.Equal(t, 8.00, *v)
	})

	t.Run("etched falls back through foil to base", func(t *testing.T) {
		v := svc.Value("M10", "155", strPtr("etched"))
		require.NotNil(t, v)
		assert.Equal(t, 0.10, *v)
	})

	t.Run("unknown finish prefers the foil price", func(t *testing.T) {
		v := svc.Value("2XM", "129", strPtr("gilded"))
		require.NotNil(t, v)
		assert.Equal(t, 3.00, *v)
	})

	t.Run("set code lookup ignores case", func(t *testing.T) {
		v := svc.Value("m10", "146", nil)
		require.NotNil(t, v)
		assert.Equal(t, 1.50, *v)
	})

	t.Run("unknown printing has no price", func(t *testing.T) {
		assert.Nil(t, svc.Value("ZZZ", "1", nil))
	})
}

func TestPricingService_Load(t *testing.T) {
	t.Run("loads English printings from a dump", func(t *testing.T) {
		dir := t.TempDir()
		dump := `[
			{"lang":"en","set":"m10","collector_number":"146","prices":{"usd":"1.50","usd_foil":"12.00"}},
			{"lang":"ja","set":"m10","collector_number":"146","prices":{"usd":"9.99"}},
			{"lang":"en","set":"m10","collector_number":"155","prices":{"usd":""}}
		]`
		path := filepath.Join(dir, "default-cards-20260801.json")
		require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

		svc, _, _ := setupPricing(dir)
		count, err := svc.Load("")
		require.NoError(t, err)

		assert.Equal(t, 2, count)
		assert.True(t, svc.Loaded())

		v := svc.Value("M10", "146", nil)
		require.NotNil(t, v)
		assert.Equal(t, 1.50, *v)
		// Empty price strings parse to no price.
		assert.Nil(t, svc.Value("M10", "155", nil))
	})

	t.Run("missing dump leaves pricing unavailable", func(t *testing.T) {
		svc, _, _ := setupPricing(t.TempDir())

		count, err := svc.Load("")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.False(t, svc.Loaded())
		assert.False(t, svc.Status().Loaded)
	})

	t.Run("malformed dump is an error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "default-cards-1.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		svc, _, _ := setupPricing(dir)
		_, err := svc.Load(path)
		assert.Error(t, err)
	})
}

func TestPricingService_CollectionValue(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*PricingService, *fakeContainerRepo) {
		svc, entryRepo, containerRepo := setupPricing(t.TempDir())
		svc.prices = map[priceKey]priceEntry{
			{"M10", "146"}: {usd: floatPtr(2.00)},
		}
		svc.loaded = true

		box := addBox(containerRepo, "Bulk Box", "u1")
		_, _, err := entryRepo.CreateOrMerge(ctx, &models.CollectionEntry{
			SetCode: "M10", CardNumber: "146", ContainerID: box.ID, Quantity: 3, LanguageID: 1, UserID: "u1",
		}, false, "Lightning Bolt")
		require.NoError(t, err)
		_, _, err = entryRepo.CreateOrMerge(ctx, &models.CollectionEntry{
			SetCode: "M10", CardNumber: "155", ContainerID: box.ID, Quantity: 10, LanguageID: 1, UserID: "u1",
		}, false, "Shock")
		require.NoError(t, err)
		return svc, containerRepo
	}

	t.Run("prices entries and sorts priced first", func(t *testing.T) {
		svc, _ := seed(t)

		resp, err := svc.CollectionValue(ctx, "u1", nil, false, 250)
		require.NoError(t, err)

		assert.Equal(t, 2, resp.Summary.TotalUnique)
		assert.Equal(t, 13, resp.Summary.TotalCards)
		assert.Equal(t, 1, resp.Summary.PricedCards)
		assert.Equal(t, 1, resp.Summary.UnpricedCards)
		assert.Equal(t, 6.00, resp.Summary.TotalValue)
		assert.True(t, resp.Summary.PricingAvailable)

		require.Len(t, resp.Cards, 2)
		assert.Equal(t, "Lightning Bolt", resp.Cards[0].CardName)
		require.NotNil(t, resp.Cards[0].TotalPrice)
		assert.Equal(t, 6.00, *resp.Cards[0].TotalPrice)
		assert.Nil(t, resp.Cards[1].TotalPrice)
	})

	t.Run("sold containers are excluded by default", func(t *testing.T) {
		svc, containerRepo := seed(t)
		for _, c := range containerRepo.containers {
			c.IsSold = true
		}

		resp, err := svc.CollectionValue(ctx, "u1", nil, false, 250)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Summary.TotalUnique)
		assert.Empty(t, resp.Cards)

		included, err := svc.CollectionValue(ctx, "u1", nil, true, 250)
		require.NoError(t, err)
		assert.Equal(t, 2, included.Summary.TotalUnique)
	})

	t.Run("limit truncates the card list but not the summary", func(t *testing.T) {
		svc, _ := seed(t)

		resp, err := svc.CollectionValue(ctx, "u1", nil, false, 1)
		require.NoError(t, err)
		assert.Len(t, resp.Cards, 1)
		assert.Equal(t, 2, resp.Summary.TotalUnique)
	})
}
