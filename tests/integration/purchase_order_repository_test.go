//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	requester = procurement.Actor{ID: uuid.New(), Name: "Riley Requester"}
	approver  = procurement.Actor{
		ID:           uuid.New(),
		Name:         "Avery Approver",
		Capabilities: []procurement.Capability{procurement.CapApproveRequests},
	}
)

func catalogItem(t *testing.T, sku, price string) *procurement.CatalogItem {
	t.Helper()
	item, err := procurement.NewCatalogItem(sku, "Item "+sku, decimal.RequireFromString(price))
	require.NoError(t, err)
	return item
}

func createPendingOrder(t *testing.T, repo *persistence.GormPurchaseOrderRepository, items ...*procurement.CatalogItem) *procurement.PurchaseOrder {
	t.Helper()
	ctx := context.Background()

	displayID, err := repo.GenerateDisplayID(ctx)
	require.NoError(t, err)
	order, err := procurement.NewPurchaseOrder(displayID, requester, procurement.OrderHeader{
		RequestDate:  time.Now(),
		Site:         "Brisbane",
		SupplierName: "Acme Supplies",
	})
	require.NoError(t, err)
	for _, item := range items {
		_, err := order.AddLine(item, 10, item.DefaultPrice)
		require.NoError(t, err)
	}
	require.NoError(t, order.Submit(requester))
	require.NoError(t, repo.Create(ctx, order))
	order.ClearDomainEvents()
	return order
}

func TestPurchaseOrderRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormPurchaseOrderRepository(testDB.DB)
	ctx := context.Background()

	t.Run("display ids are allocated in sequence", func(t *testing.T) {
		first := createPendingOrder(t, repo, catalogItem(t, "WID-1", "10"))
		second := createPendingOrder(t, repo, catalogItem(t, "WID-1", "10"))

		prefix := fmt.Sprintf("PO-%d-", time.Now().Year())
		assert.Equal(t, prefix+"00001", first.DisplayID)
		assert.Equal(t, prefix+"00002", second.DisplayID)

		found, err := repo.FindByDisplayID(ctx, second.DisplayID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, found.ID)
	})

	t.Run("editor session round-trips at cent precision", func(t *testing.T) {
		order := createPendingOrder(t, repo, catalogItem(t, "WID-1", "10"), catalogItem(t, "BOLT-1", "2"))
		widget, bolt := order.Lines[0].ID, order.Lines[1].ID

		loaded, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		editor := procurement.NewEditor(loaded)
		require.NoError(t, editor.ChangeQuantity(widget, 3))
		require.NoError(t, editor.ChangeUnitPrice(widget, decimal.RequireFromString("7.333")))
		require.NoError(t, editor.RemoveLine(bolt))
		_, err = editor.AddLine(catalogItem(t, "NUT-1", "2.50"))
		require.NoError(t, err)
		require.NoError(t, loaded.ApplyEdits(requester, editor))
		require.NoError(t, repo.SaveWithLock(ctx, loaded))

		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, found.Lines, 2)
		for i, want := range loaded.Lines {
			got := found.Lines[i]
			assert.Equal(t, want.ID, got.ID)
			assert.True(t, want.UnitPrice.Equal(got.UnitPrice), "%s unit price %s != %s", want.SKU, got.UnitPrice, want.UnitPrice)
			assert.True(t, want.TotalPrice.Equal(got.TotalPrice), "%s total %s != %s", want.SKU, got.TotalPrice, want.TotalPrice)
		}
		assert.True(t, found.Lines[0].UnitPrice.Equal(decimal.RequireFromString("7.33")))
		assert.True(t, found.Lines[0].TotalPrice.Equal(decimal.RequireFromString("21.99")))
		assert.True(t, found.TotalAmount.Equal(decimal.RequireFromString("24.49")), "total %s", found.TotalAmount)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		order := createPendingOrder(t, repo, catalogItem(t, "WID-1", "10"))

		first, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)

		require.NoError(t, first.Approve(approver, ""))
		require.NoError(t, repo.SaveWithLock(ctx, first))

		require.NoError(t, second.Reject(approver, "late"))
		assert.ErrorIs(t, repo.SaveWithLock(ctx, second), shared.ErrConcurrentModification)

		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, procurement.StatusApprovedPendingConcur, found.Status)
	})
}
