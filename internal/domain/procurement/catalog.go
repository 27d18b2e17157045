package procurement

import (
	"strings"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CatalogItem is an orderable item with its default price
type CatalogItem struct {
	shared.BaseEntity
	SKU          string
	Name         string
	DefaultPrice decimal.Decimal
	Active       bool
}

// NewCatalogItem creates an active catalog item
func NewCatalogItem(sku, name string, defaultPrice decimal.Decimal) (*CatalogItem, error) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name cannot be empty")
	}
	if defaultPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Default price cannot be negative")
	}
	return &CatalogItem{
		BaseEntity:   shared.NewBaseEntity(),
		SKU:          strings.ToUpper(sku),
		Name:         name,
		DefaultPrice: defaultPrice.Round(2),
		Active:       true,
	}, nil
}

// Deactivate hides the item from new orders
func (c *CatalogItem) Deactivate() {
	c.Active = false
	c.Touch()
}

// Activate makes the item orderable again
func (c *CatalogItem) Activate() {
	c.Active = true
	c.Touch()
}
