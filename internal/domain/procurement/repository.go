package procurement

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseOrderRepository persists PurchaseOrder aggregates with their lines,
// deliveries and approval history
type PurchaseOrderRepository interface {
	// FindByID loads the full aggregate
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByDisplayID loads the full aggregate by its human facing code
	FindByDisplayID(ctx context.Context, displayID string) (*PurchaseOrder, error)

	// FindAll returns orders (with lines) matching the filter.
	// Supported filter keys: status, site, requester_id, supplier_id
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)

	// Count returns the number of orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByStatus returns order counts per status
	CountByStatus(ctx context.Context) (map[Status]int64, error)

	// Create inserts a new order
	Create(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock writes the aggregate in one transaction if the stored version
	// still equals order.Version, then bumps the version.
	// Returns shared.ErrConcurrentModification on a stale write
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error

	// Delete removes an order if the stored version equals expectedVersion
	Delete(ctx context.Context, id uuid.UUID, expectedVersion int) error

	// GenerateDisplayID returns the next PO-YYYY-NNNNN code
	GenerateDisplayID(ctx context.Context) (string, error)
}

// CatalogRepository persists catalog items
type CatalogRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error)
	FindBySKU(ctx context.Context, sku string) (*CatalogItem, error)
	// FindAll supports the filter keys: active
	FindAll(ctx context.Context, filter shared.Filter) ([]CatalogItem, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, item *CatalogItem) error
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
}
