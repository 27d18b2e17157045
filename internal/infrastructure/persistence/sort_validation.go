package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField if it is whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"display_id":     true,
	"request_date":   true,
	"requester_name": true,
	"site":           true,
	"supplier_name":  true,
	"status":         true,
	"total_amount":   true,
}

// CatalogSortFields contains allowed sort fields for catalog items
var CatalogSortFields = map[string]bool{
	"created_at":    true,
	"sku":           true,
	"name":          true,
	"default_price": true,
}
