// Package models contains the GORM persistence models behind the repositories.
// Domain types carry no ORM tags; each model converts to and from its domain
// type with ToDomain / FromDomain.
//
//   - base.go: BaseModel and AggregateModel (id, timestamps, version)
//   - procurement.go: purchase orders, lines, deliveries, approval history, catalog
//   - identity.go: users
//   - notification.go: notification dispatch log
package models
