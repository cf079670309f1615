package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"le-palanka/internal/logger"
	"le-palanka/internal/models"
	"le-palanka/internal/pricing"
	"le-palanka/internal/storage"
	"le-palanka/internal/validation"
)

const namespace = "lePalanka"

func newCart(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	return NewStore(mem, namespace, logger.Discard()), mem
}

func persisted(t *testing.T, mem *storage.MemoryStore) []models.LineItem {
	t.Helper()
	data, err := mem.Get(context.Background(), "lePalankaCart")
	require.NoError(t, err)
	require.NotNil(t, data, "cart was never persisted")

	var items []models.LineItem
	require.NoError(t, json.Unmarshal(data, &items))
	return items
}

func TestAddSameItemTwiceMerges(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)

	require.NoError(t, c.AddItem(ctx, "Pilau", 800))
	require.NoError(t, c.AddItem(ctx, "Pilau", 800))

	want := []models.LineItem{{Name: "Pilau", UnitPrice: 800, Quantity: 2}}
	assert.Equal(t, want, c.Items())
	assert.Equal(t, want, persisted(t, mem))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Count())
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	for _, name := range []string{"Samosa", "Pilau", "Chai", "Samosa"} {
		require.NoError(t, c.AddItem(ctx, name, 100))
	}

	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Samosa", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "Pilau", items[1].Name)
	assert.Equal(t, "Chai", items[2].Name)
	assert.Equal(t, 4, c.Count())
}

func TestAddItemRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		itemName  string
		price     int64
		wantField []string
	}{
		{"empty name", "", 100, []string{"name"}},
		{"blank name", "   ", 100, []string{"name"}},
		{"negative price", "Chai", -1, []string{"price"}},
		{"both", "", -5, []string{"name", "price"}},
		{"price above maximum", "Chai", pricing.MaxSubtotal + 1, []string{"price"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mem := newCart(t)

			err := c.AddItem(context.Background(), tt.itemName, tt.price)

			var verr validation.Errors
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Fields())
			assert.Empty(t, c.Items())
			assert.Zero(t, mem.Size(), "rejected input must not be persisted")
		})
	}
}

func TestAddItemTrimsName(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)

	require.NoError(t, c.AddItem(ctx, "Pizza", 1200))
	require.NoError(t, c.AddItem(ctx, "  Pizza ", 1200))

	want := []models.LineItem{{Name: "Pizza", UnitPrice: 1200, Quantity: 2}}
	assert.Equal(t, want, c.Items())
	assert.Equal(t, want, persisted(t, mem))
}

func TestAddItemKeepsTotalsRepresentable(t *testing.T) {
	tests := []struct {
		name  string
		first int64
		then  int64
	}{
		{"merged line", pricing.MaxSubtotal/2 + 1, pricing.MaxSubtotal/2 + 1},
		{"new line", pricing.MaxSubtotal, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c, mem := newCart(t)

			require.NoError(t, c.AddItem(ctx, "Gold Platter", tt.first))
			before := c.Items()

			name := "Gold Platter"
			if tt.first != tt.then {
				name = "Chai"
			}
			err := c.AddItem(ctx, name, tt.then)

			var verr validation.Errors
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, []string{"price"}, verr.Fields())
			assert.Equal(t, before, c.Items())
			assert.Equal(t, before, persisted(t, mem))

			totals := pricing.Calculate(c.Items())
			assert.Positive(t, totals.Total)
			assert.GreaterOrEqual(t, totals.Total, totals.Subtotal)
		})
	}
}

func TestRemoveOne(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)

	require.NoError(t, c.AddItem(ctx, "Samosa", 150))
	require.NoError(t, c.AddItem(ctx, "Samosa", 150))
	require.NoError(t, c.AddItem(ctx, "Chai", 100))

	require.NoError(t, c.RemoveOne(ctx, 0))
	assert.Equal(t, []models.LineItem{
		{Name: "Samosa", UnitPrice: 150, Quantity: 1},
		{Name: "Chai", UnitPrice: 100, Quantity: 1},
	}, c.Items())

	require.NoError(t, c.RemoveOne(ctx, 0))
	assert.Equal(t, []models.LineItem{{Name: "Chai", UnitPrice: 100, Quantity: 1}}, c.Items())

	require.NoError(t, c.RemoveOne(ctx, 0))
	assert.Empty(t, c.Items())
	assert.Empty(t, persisted(t, mem))
}

func TestRemoveOneOutOfRange(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)
	require.NoError(t, c.AddItem(ctx, "Chai", 100))
	before := persisted(t, mem)

	for _, index := range []int{-1, 1, 42} {
		err := c.RemoveOne(ctx, index)

		var ierr *IndexError
		require.True(t, errors.As(err, &ierr), "index %d", index)
		assert.Equal(t, index, ierr.Index)
		assert.Equal(t, 1, ierr.Len)
	}

	assert.Equal(t, before, c.Items())
	assert.Equal(t, before, persisted(t, mem))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)
	require.NoError(t, c.AddItem(ctx, "Chai", 100))

	require.NoError(t, c.Clear(ctx))

	assert.Empty(t, c.Items())
	assert.Equal(t, 0, c.Count())
	assert.Empty(t, persisted(t, mem))
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	require.NoError(t, c.AddItem(ctx, "Chai", 100))

	items := c.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestStorageFailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	c := NewStore(mem, namespace, logger.Discard())
	require.NoError(t, c.AddItem(ctx, "Chai", 100))
	before := c.Items()

	mem.SetQuota(mem.Size())

	err := c.AddItem(ctx, "Pilau with a very long name", 800)
	var se *storage.Error
	require.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
	assert.Equal(t, before, c.Items())

	err = c.Clear(ctx)
	assert.NoError(t, err, "an empty cart fits in the quota")
}

func TestListenersSeeEverySuccessfulMutation(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	var counts []int
	c.OnChange(func(items []models.LineItem) {
		total := 0
		for _, item := range items {
			total += item.Quantity
		}
		counts = append(counts, total)
	})

	require.NoError(t, c.AddItem(ctx, "Chai", 100))
	require.NoError(t, c.AddItem(ctx, "Chai", 100))
	require.Error(t, c.RemoveOne(ctx, 5))
	require.NoError(t, c.RemoveOne(ctx, 0))
	require.NoError(t, c.Clear(ctx))

	assert.Equal(t, []int{1, 2, 1, 0}, counts)
}

func TestLoadRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()

	first := NewStore(mem, namespace, logger.Discard())
	require.NoError(t, first.AddItem(ctx, "Samosa", 150))
	require.NoError(t, first.AddItem(ctx, "Chai", 100))
	require.NoError(t, first.AddItem(ctx, "Chai", 100))

	second := NewStore(mem, namespace, logger.Discard())
	require.NoError(t, second.Load(ctx))

	assert.Equal(t, first.Items(), second.Items())
}

func TestLoadDropsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, "lePalankaCart", []byte(`[
		{"name":"Chai","price":100,"quantity":2},
		{"name":"","price":100,"quantity":1},
		{"name":"Ghost","price":100,"quantity":0},
		{"name":"Refund","price":-50,"quantity":1},
		{"name":"Chai","price":100,"quantity":1},
		{"name":" Chai ","price":100,"quantity":1},
		{"name":"Gold Platter","price":4611686018427387903,"quantity":2}
	]`)))

	c := NewStore(mem, namespace, logger.Discard())
	require.NoError(t, c.Load(ctx))

	assert.Equal(t, []models.LineItem{{Name: "Chai", UnitPrice: 100, Quantity: 2}}, c.Items())
}

func TestLoadEmptyStorage(t *testing.T) {
	c, _ := newCart(t)
	require.NoError(t, c.Load(context.Background()))
	assert.Empty(t, c.Items())
	assert.NotNil(t, c.Items())
}

func TestLoadCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, "lePalankaCart", []byte(`{oops`)))

	c := NewStore(mem, namespace, logger.Discard())
	err := c.Load(ctx)

	var se *storage.Error
	assert.True(t, errors.As(err, &se))
}
