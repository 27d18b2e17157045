package procurement

import (
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	requester = Actor{ID: uuid.New(), Name: "Rita Requester"}
	approver  = Actor{ID: uuid.New(), Name: "Alex Approver", Capabilities: []Capability{CapApproveRequests}}
	linker    = Actor{ID: uuid.New(), Name: "Lee Linker", Capabilities: []Capability{CapLinkConcur}}
	receiver  = Actor{ID: uuid.New(), Name: "Sam Stores", Capabilities: []Capability{CapReceiveGoods}}
	finance   = Actor{ID: uuid.New(), Name: "Fin Team", Capabilities: []Capability{CapFinance, CapManageDeliveries}}
	admin     = Actor{ID: uuid.New(), Name: "Ada Admin", Roles: []string{RoleAdmin}}
	stranger  = Actor{ID: uuid.New(), Name: "Nobody"}
)

func catalogItem(t *testing.T, sku, name string, price float64) *CatalogItem {
	t.Helper()
	item, err := NewCatalogItem(sku, name, decimal.NewFromFloat(price))
	require.NoError(t, err)
	return item
}

func newDraftOrder(t *testing.T) *PurchaseOrder {
	t.Helper()
	o, err := NewPurchaseOrder("PO-2026-00001", requester, OrderHeader{
		Site:             "Melbourne",
		SupplierID:       "SUP-1",
		SupplierName:     "Acme Supplies",
		CustomerName:     "Contoso",
		ReasonForRequest: ReasonDepletion,
	})
	require.NoError(t, err)
	return o
}

// newPendingOrder returns a submitted order with a 10 x 2.50 widget line and a 4 x 10 gadget line
func newPendingOrder(t *testing.T) *PurchaseOrder {
	t.Helper()
	o := newDraftOrder(t)
	_, err := o.AddLine(catalogItem(t, "WID-1", "Widget", 2.50), 10, decimal.NewFromFloat(2.50))
	require.NoError(t, err)
	_, err = o.AddLine(catalogItem(t, "GAD-1", "Gadget", 10), 4, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, o.Submit(requester))
	return o
}

func newActiveOrder(t *testing.T) *PurchaseOrder {
	t.Helper()
	o := newPendingOrder(t)
	require.NoError(t, o.Approve(approver, "ok"))
	require.NoError(t, o.LinkConcur(linker, "CONCUR-123", nil))
	return o
}

func today() time.Time {
	return time.Now().Truncate(24 * time.Hour)
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}
