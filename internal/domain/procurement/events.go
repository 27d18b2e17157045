package procurement

import (
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated   = "PurchaseOrderCreated"
	EventTypePurchaseOrderSubmitted = "PurchaseOrderSubmitted"
	EventTypePurchaseOrderApproved  = "PurchaseOrderApproved"
	EventTypePurchaseOrderRejected  = "PurchaseOrderRejected"
	EventTypeConcurLinked           = "PurchaseOrderConcurLinked"
	EventTypeDeliveryRecorded       = "PurchaseOrderDeliveryRecorded"
	EventTypeVarianceApproved       = "PurchaseOrderVarianceApproved"
	EventTypePurchaseOrderCompleted = "PurchaseOrderCompleted"
	EventTypeStatusOverridden       = "PurchaseOrderStatusOverridden"
)

// StatusChange is the part every purchase order event shares
type StatusChange struct {
	OrderID    uuid.UUID `json:"order_id"`
	DisplayID  string    `json:"display_id"`
	ActorID    uuid.UUID `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	FromStatus Status    `json:"from_status,omitempty"`
	ToStatus   Status    `json:"to_status"`
}

// Change returns the status change carried by the event
func (c StatusChange) Change() StatusChange {
	return c
}

// OrderEvent is implemented by every purchase order event
type OrderEvent interface {
	shared.DomainEvent
	Change() StatusChange
}

func newStatusChange(o *PurchaseOrder, actor Actor, from Status) StatusChange {
	return StatusChange{
		OrderID:    o.ID,
		DisplayID:  o.DisplayID,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		FromStatus: from,
		ToStatus:   o.Status,
	}
}

// PurchaseOrderCreatedEvent is raised when a new order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	StatusChange
	SupplierName string `json:"supplier_name"`
	Site         string `json:"site"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(o *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, o.ID),
		StatusChange: StatusChange{
			OrderID:   o.ID,
			DisplayID: o.DisplayID,
			ActorID:   o.RequesterID,
			ActorName: o.RequesterName,
			ToStatus:  o.Status,
		},
		SupplierName: o.SupplierName,
		Site:         o.Site,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderCreatedEvent) EventType() string {
	return EventTypePurchaseOrderCreated
}

// PurchaseOrderSubmittedEvent is raised when a request is sent for approval
type PurchaseOrderSubmittedEvent struct {
	shared.BaseDomainEvent
	StatusChange
	TotalAmount decimal.Decimal `json:"total_amount"`
	LineCount   int             `json:"line_count"`
}

// NewPurchaseOrderSubmittedEvent creates a new PurchaseOrderSubmittedEvent
func NewPurchaseOrderSubmittedEvent(o *PurchaseOrder, actor Actor) *PurchaseOrderSubmittedEvent {
	return &PurchaseOrderSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderSubmitted, AggregateTypePurchaseOrder, o.ID),
		StatusChange:    newStatusChange(o, actor, StatusDraft),
		TotalAmount:     o.TotalAmount,
		LineCount:       len(o.Lines),
	}
}

// EventType returns the event type name
func (e *PurchaseOrderSubmittedEvent) EventType() string {
	return EventTypePurchaseOrderSubmitted
}

// PurchaseOrderApprovedEvent is raised when a request is approved
type PurchaseOrderApprovedEvent struct {
	shared.BaseDomainEvent
	StatusChange
	Comments string `json:"comments,omitempty"`
}

// NewPurchaseOrderApprovedEvent creates a new PurchaseOrderApprovedEvent
func NewPurchaseOrderApprovedEvent(o *PurchaseOrder, actor Actor, from Status, comments string) *PurchaseOrderApprovedEvent {
	return &PurchaseOrderApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderApproved, AggregateTypePurchaseOrder, o.ID),
		StatusChange:    newStatusChange(o, actor, from),
		Comments:        comments,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderApprovedEvent) EventType() string {
	return EventTypePurchaseOrderApproved
}

// PurchaseOrderRejectedEvent is raised when a request is rejected
type PurchaseOrderRejectedEvent struct {
	shared.BaseDomainEvent
	StatusChange
	Comments string `json:"comments,omitempty"`
}

// NewPurchaseOrderRejectedEvent creates a new PurchaseOrderRejectedEvent
func NewPurchaseOrderRejectedEvent(o *PurchaseOrder, actor Actor, from Status, comments string) *PurchaseOrderRejectedEvent {
	return &PurchaseOrderRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderRejected, AggregateTypePurchaseOrder, o.ID),
		StatusChange:    newStatusChange(o, actor, from),
		Comments:        comments,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderRejectedEvent) EventType() string {
	return EventTypePurchaseOrderRejected
}

// ConcurLinkedEvent is raised when a Concur PO number is attached
type ConcurLinkedEvent struct {
	shared.BaseDomainEvent
	StatusChange
	ConcurPONumber string      `json:"concur_po_number"`
	LineIDs        []uuid.UUID `json:"line_ids"`
}

// NewConcurLinkedEvent creates a new ConcurLinkedEvent
func NewConcurLinkedEvent(o *PurchaseOrder, actor Actor, from Status, reference string, lineIDs []uuid.UUID) *ConcurLinkedEvent {
	return &ConcurLinkedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConcurLinked, AggregateTypePurchaseOrder, o.ID),
		StatusChange:    newStatusChange(o, actor, from),
		ConcurPONumber:  reference,
		LineIDs:         lineIDs,
	}
}

// EventType returns the event type name
func (e *ConcurLinkedEvent) EventType() string {
	return EventTypeConcurLinked
}

// DeliveryRecordedEvent is raised after a delivery submission is applied
type DeliveryRecordedEvent struct {
	shared.BaseDomainEvent
	StatusChange
	DeliveryID    *uuid.UUID     `json:"delivery_id,omitempty"`
	DocketNumber  string         `json:"docket_number,omitempty"`
	ClosedLineIDs []uuid.UUID    `json:"closed_line_ids"`
	Variances     []LineVariance `json:"variances"`
}

// NewDeliveryRecordedEvent creates a new DeliveryRecordedEvent
func NewDeliveryRecordedEvent(o *PurchaseOrder, actor Actor, from Status, rec *Reconciliation) *DeliveryRecordedEvent {
	e := &DeliveryRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeliveryRecorded, AggregateTypePurchaseOrder, o.ID),
		StatusChange:    newStatusChange(o, actor, from),
		ClosedLineIDs:   rec.ClosedLineIDs,
		Variances:       rec.Variances,
	}
	if rec.Delivery != nil {
		id := rec.Delivery.ID
		e.DeliveryID = &id
		e.DocketNumber = rec.Delivery.DocketNumber
	}
	return e
}

// EventType returns the event type name
func (e *DeliveryRecordedEvent) EventType() string {
	return EventTypeDeliveryRecorded
}

// HasVariance returns true if the delivery flagged a variance
func (e *DeliveryRecordedEvent) HasVariance() bool {
	return len(e.Variances) > 0
}

// VarianceApprovedEvent is raised when a flagged variance is signed off
type VarianceApprovedEvent struct {
	shared.BaseDomainEvent
	StatusChange
	Comments string `json:"comments,omitempty"`
}

// NewVarianceApprovedEvent creates a new VarianceApprovedEvent
func NewVarianceApprovedEvent(o *PurchaseOrder, actor Actor, from Status, comments string) *VarianceApprovedEvent {
	return &VarianceApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVarianceApproved, AggregateTypePurchaseOrder, o.ID),
		StatusChange:    newStatusChange(o, actor, from),
		Comments:        comments,
	}
}

// EventType returns the event type name
func (e *VarianceApprovedEvent) EventType() string {
	return EventTypeVarianceApproved
}

// PurchaseOrderCompletedEvent is raised when an order is closed through the normal flow
type PurchaseOrderCompletedEvent struct {
	shared.BaseDomainEvent
	StatusChange
}

// NewPurchaseOrderCompletedEvent creates a new PurchaseOrderCompletedEvent
func NewPurchaseOrderCompletedEvent(o *PurchaseOrder, actor Actor, from Status) *PurchaseOrderCompletedEvent {
	return &PurchaseOrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCompleted, AggregateTypePurchaseOrder, o.ID),
		StatusChange:    newStatusChange(o, actor, from),
	}
}

// EventType returns the event type name
func (e *PurchaseOrderCompletedEvent) EventType() string {
	return EventTypePurchaseOrderCompleted
}

// StatusOverriddenEvent is raised when an admin forces a status
type StatusOverriddenEvent struct {
	shared.BaseDomainEvent
	StatusChange
	Reason            string `json:"reason,omitempty"`
	SyntheticDelivery bool   `json:"synthetic_delivery"`
}

// NewStatusOverriddenEvent creates a new StatusOverriddenEvent
func NewStatusOverriddenEvent(o *PurchaseOrder, actor Actor, from Status, reason string, synthetic bool) *StatusOverriddenEvent {
	return &StatusOverriddenEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStatusOverridden, AggregateTypePurchaseOrder, o.ID),
		StatusChange:      newStatusChange(o, actor, from),
		Reason:            reason,
		SyntheticDelivery: synthetic,
	}
}

// EventType returns the event type name
func (e *StatusOverriddenEvent) EventType() string {
	return EventTypeStatusOverridden
}
