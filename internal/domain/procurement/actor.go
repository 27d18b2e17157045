package procurement

import "github.com/google/uuid"

// Capability is a permission an actor may hold
type Capability string

const (
	CapApproveRequests  Capability = "po:approve"
	CapLinkConcur       Capability = "po:link_concur"
	CapReceiveGoods     Capability = "po:receive"
	CapManageDeliveries Capability = "po:manage_deliveries"
	CapFinance          Capability = "po:finance"
	CapManageCatalog    Capability = "catalog:manage"
)

// RoleAdmin grants every capability and the status override escape hatch
const RoleAdmin = "admin"

// Actor is the authenticated user performing an operation
type Actor struct {
	ID           uuid.UUID
	Name         string
	Roles        []string
	Capabilities []Capability
}

// IsAdmin returns true if the actor holds the admin role
func (a Actor) IsAdmin() bool {
	for _, r := range a.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// Can returns true if the actor holds the capability or is an admin
func (a Actor) Can(c Capability) bool {
	if a.IsAdmin() {
		return true
	}
	for _, have := range a.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// IsRequesterOf returns true if the actor raised the order
func (a Actor) IsRequesterOf(o *PurchaseOrder) bool {
	return o != nil && a.ID != uuid.Nil && a.ID == o.RequesterID
}
