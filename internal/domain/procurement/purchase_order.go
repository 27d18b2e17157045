package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OverrideDocketNumber marks the synthetic delivery an admin override creates
const OverrideDocketNumber = "ADMIN-OVERRIDE"

// LineItem is one ordered catalog item on a purchase order
type LineItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ItemID           uuid.UUID
	ItemName         string
	SKU              string
	QuantityOrdered  int
	QuantityReceived int
	UnitPrice        decimal.Decimal
	TotalPrice       decimal.Decimal
	ConcurPONumber   string
	IsForceClosed    bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func newLineItem(orderID uuid.UUID, item *CatalogItem, quantity int, unitPrice decimal.Decimal) LineItem {
	now := time.Now()
	line := LineItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		ItemID:    item.ID,
		ItemName:  item.Name,
		SKU:       item.SKU,
		CreatedAt: now,
		UpdatedAt: now,
	}
	line.setQuantity(quantity)
	line.setUnitPrice(unitPrice)
	return line
}

// setQuantity clamps to a whole number of at least one unit
func (l *LineItem) setQuantity(quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	l.QuantityOrdered = quantity
	l.recalculate()
}

// setUnitPrice stores the price at cent precision, matching the column scale
func (l *LineItem) setUnitPrice(price decimal.Decimal) {
	if price.IsNegative() {
		price = decimal.Zero
	}
	l.UnitPrice = price.Round(2)
	l.recalculate()
}

func (l *LineItem) recalculate() {
	l.TotalPrice = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.QuantityOrdered))).Round(2)
	l.UpdatedAt = time.Now()
}

// Remaining returns how many units are still expected, never negative
func (l *LineItem) Remaining() int {
	if l.QuantityReceived >= l.QuantityOrdered {
		return 0
	}
	return l.QuantityOrdered - l.QuantityReceived
}

// IsSatisfied returns true when the line is fully received or force-closed
func (l *LineItem) IsSatisfied() bool {
	return l.QuantityReceived >= l.QuantityOrdered || l.IsForceClosed
}

// IsOutstanding returns true when more stock is expected on the line
func (l *LineItem) IsOutstanding() bool {
	return !l.IsSatisfied()
}

// IsOverReceived returns true when more was received than ordered
func (l *LineItem) IsOverReceived() bool {
	return l.QuantityReceived > l.QuantityOrdered
}

// DeliveryLineItem records the quantity of one order line received in a delivery
type DeliveryLineItem struct {
	ID              uuid.UUID
	DeliveryID      uuid.UUID
	POLineID        uuid.UUID
	Quantity        int
	InvoiceNumber   string
	IsCapitalised   bool
	CapitalisedDate *time.Time
}

// DeliveryHeader is one goods-received event against an order
type DeliveryHeader struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	Date         time.Time
	DocketNumber string
	ReceivedBy   string
	Lines        []DeliveryLineItem
	CreatedAt    time.Time
}

// QuantityFor returns the quantity this delivery received for an order line
func (d *DeliveryHeader) QuantityFor(poLineID uuid.UUID) int {
	total := 0
	for _, l := range d.Lines {
		if l.POLineID == poLineID {
			total += l.Quantity
		}
	}
	return total
}

// ApprovalEvent is an append-only entry in the order's approval history
type ApprovalEvent struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ApproverID   uuid.UUID
	ApproverName string
	Date         time.Time
	Action       ApprovalAction
	Comments     string
}

// OrderHeader carries the requester supplied fields of a new order
type OrderHeader struct {
	RequestDate      time.Time
	Site             string
	SupplierID       string
	SupplierName     string
	CustomerName     string
	ReasonForRequest ReasonForRequest
	Comments         string
}

// PurchaseOrder is the aggregate root for a purchase request and its lifecycle
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	DisplayID        string
	RequestDate      time.Time
	RequesterID      uuid.UUID
	RequesterName    string
	Site             string
	SupplierID       string
	SupplierName     string
	Status           Status
	TotalAmount      decimal.Decimal
	CustomerName     string
	ReasonForRequest ReasonForRequest
	Comments         string
	ApprovalHistory  []ApprovalEvent
	Lines            []LineItem
	Deliveries       []DeliveryHeader
}

// NewPurchaseOrder creates an order in DRAFT status. Call Submit to send it for approval.
func NewPurchaseOrder(displayID string, requester Actor, header OrderHeader) (*PurchaseOrder, error) {
	if requester.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "Requester cannot be empty")
	}
	if strings.TrimSpace(header.SupplierName) == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier cannot be empty")
	}
	if strings.TrimSpace(header.Site) == "" {
		return nil, shared.NewDomainError("INVALID_SITE", "Site cannot be empty")
	}
	if header.ReasonForRequest == "" {
		header.ReasonForRequest = ReasonOther
	}
	if !header.ReasonForRequest.IsValid() {
		return nil, shared.NewDomainError("INVALID_REASON", "Reason for request must be Depletion, New Customer or Other")
	}
	if header.RequestDate.IsZero() {
		header.RequestDate = time.Now()
	}

	o := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DisplayID:         displayID,
		RequestDate:       header.RequestDate,
		RequesterID:       requester.ID,
		RequesterName:     requester.Name,
		Site:              strings.TrimSpace(header.Site),
		SupplierID:        header.SupplierID,
		SupplierName:      strings.TrimSpace(header.SupplierName),
		Status:            StatusDraft,
		TotalAmount:       decimal.Zero,
		CustomerName:      header.CustomerName,
		ReasonForRequest:  header.ReasonForRequest,
		Comments:          header.Comments,
		ApprovalHistory:   make([]ApprovalEvent, 0),
		Lines:             make([]LineItem, 0),
		Deliveries:        make([]DeliveryHeader, 0),
	}

	o.AddDomainEvent(NewPurchaseOrderCreatedEvent(o))
	return o, nil
}

// AddLine adds a catalog item to an order that has not been submitted yet
func (o *PurchaseOrder) AddLine(item *CatalogItem, quantity int, unitPrice decimal.Decimal) (*LineItem, error) {
	if o.Status != StatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Lines can only be added directly to a draft order")
	}
	if err := checkAddable(o.Lines, item); err != nil {
		return nil, err
	}
	o.Lines = append(o.Lines, newLineItem(o.ID, item, quantity, unitPrice))
	o.recalculateTotals()
	return &o.Lines[len(o.Lines)-1], nil
}

func checkAddable(lines []LineItem, item *CatalogItem) error {
	if item == nil {
		return shared.NewDomainError("INVALID_ITEM", "Catalog item cannot be empty")
	}
	if !item.Active {
		return shared.NewDomainError("ITEM_INACTIVE", fmt.Sprintf("Catalog item %s is not active", item.SKU))
	}
	for _, l := range lines {
		if strings.EqualFold(l.SKU, item.SKU) {
			return shared.NewDomainError("DUPLICATE_SKU", fmt.Sprintf("SKU %s is already on this order", item.SKU))
		}
	}
	return nil
}

// Submit sends a draft order for approval
func (o *PurchaseOrder) Submit(actor Actor) error {
	if !actor.IsRequesterOf(o) && !actor.IsAdmin() {
		return shared.NewDomainError("FORBIDDEN", "Only the requester can submit this order")
	}
	if len(o.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot submit an order with no lines")
	}
	if err := o.transition(ActionSubmit, StatusPendingApproval); err != nil {
		return err
	}
	o.appendApproval(actor, ApprovalSubmitted, "")
	o.AddDomainEvent(NewPurchaseOrderSubmittedEvent(o, actor))
	return nil
}

// Approve authorizes a pending request
func (o *PurchaseOrder) Approve(actor Actor, comments string) error {
	if !actor.Can(CapApproveRequests) {
		return shared.NewDomainError("FORBIDDEN", "You do not have permission to approve requests")
	}
	from := o.Status
	if err := o.transition(ActionApprove, StatusApprovedPendingConcur); err != nil {
		return err
	}
	o.appendApproval(actor, ApprovalApproved, comments)
	o.AddDomainEvent(NewPurchaseOrderApprovedEvent(o, actor, from, comments))
	return nil
}

// Reject declines a pending request. REJECTED is terminal.
func (o *PurchaseOrder) Reject(actor Actor, comments string) error {
	if !actor.Can(CapApproveRequests) {
		return shared.NewDomainError("FORBIDDEN", "You do not have permission to reject requests")
	}
	from := o.Status
	if err := o.transition(ActionReject, StatusRejected); err != nil {
		return err
	}
	o.appendApproval(actor, ApprovalRejected, comments)
	o.AddDomainEvent(NewPurchaseOrderRejectedEvent(o, actor, from, comments))
	return nil
}

// LinkConcur attaches the external Concur PO number to lines and activates the order.
// An empty lineIDs slice links every line.
func (o *PurchaseOrder) LinkConcur(actor Actor, reference string, lineIDs []uuid.UUID) error {
	if !actor.Can(CapLinkConcur) && !actor.IsRequesterOf(o) {
		return shared.NewDomainError("FORBIDDEN", "You do not have permission to link Concur references")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return shared.NewDomainError("INVALID_REFERENCE", "Concur PO number cannot be empty")
	}
	if !o.Status.Allows(ActionLinkConcur) {
		return o.invalidTransition(ActionLinkConcur)
	}

	targets := make(map[uuid.UUID]bool, len(lineIDs))
	for _, id := range lineIDs {
		if o.findLine(id) == nil {
			return shared.NewDomainError("LINE_NOT_FOUND", fmt.Sprintf("Line %s is not on this order", id))
		}
		targets[id] = true
	}

	linked := make([]uuid.UUID, 0, len(o.Lines))
	for i := range o.Lines {
		if len(targets) == 0 || targets[o.Lines[i].ID] {
			o.Lines[i].ConcurPONumber = reference
			o.Lines[i].UpdatedAt = time.Now()
			linked = append(linked, o.Lines[i].ID)
		}
	}

	from := o.Status
	if err := o.transition(ActionLinkConcur, StatusActive); err != nil {
		return err
	}
	o.AddDomainEvent(NewConcurLinkedEvent(o, actor, from, reference, linked))
	return nil
}

// PreviewDelivery classifies a delivery submission without applying it.
// The same actors who may record the delivery may preview it.
func (o *PurchaseOrder) PreviewDelivery(actor Actor, sub DeliverySubmission) (*Reconciliation, error) {
	if err := o.canRecordDelivery(actor); err != nil {
		return nil, err
	}
	return Classify(o.Lines, sub)
}

func (o *PurchaseOrder) canRecordDelivery(actor Actor) error {
	if !actor.Can(CapReceiveGoods) && !actor.IsRequesterOf(o) {
		return shared.NewDomainError("FORBIDDEN", "You do not have permission to record deliveries")
	}
	if !o.Status.Allows(ActionRecordDelivery) {
		return o.invalidTransition(ActionRecordDelivery)
	}
	return nil
}

// RecordDelivery reconciles a delivery submission and applies it to the order.
// The resulting status is derived from the receipt state, not chosen by the caller.
func (o *PurchaseOrder) RecordDelivery(actor Actor, sub DeliverySubmission) (*Reconciliation, error) {
	if err := o.canRecordDelivery(actor); err != nil {
		return nil, err
	}

	rec, err := Reconcile(o.Lines, sub)
	if err != nil {
		return nil, err
	}

	if rec.Delivery != nil {
		rec.Delivery.OrderID = o.ID
		if strings.TrimSpace(rec.Delivery.ReceivedBy) == "" {
			rec.Delivery.ReceivedBy = actor.Name
		}
		for _, dl := range rec.Delivery.Lines {
			line := o.findLine(dl.POLineID)
			line.QuantityReceived += dl.Quantity
			line.UpdatedAt = time.Now()
		}
		o.Deliveries = append(o.Deliveries, *rec.Delivery)
	}
	for _, id := range rec.ClosedLineIDs {
		line := o.findLine(id)
		line.IsForceClosed = true
		line.UpdatedAt = time.Now()
	}

	from := o.Status
	target := o.receiptStatus(rec.HasVariance())
	if err := o.transition(ActionRecordDelivery, target); err != nil {
		return nil, err
	}
	o.AddDomainEvent(NewDeliveryRecordedEvent(o, actor, from, rec))
	return rec, nil
}

// receiptStatus derives the status after a delivery. A flagged variance, or one
// still awaiting sign-off, keeps the order in VARIANCE_PENDING.
func (o *PurchaseOrder) receiptStatus(varianceFlagged bool) Status {
	if varianceFlagged || o.Status == StatusVariancePending {
		return StatusVariancePending
	}
	if o.AllLinesSatisfied() {
		return StatusReceived
	}
	return StatusPartiallyReceived
}

// ApproveVariance signs off a flagged over-receipt or short-close
func (o *PurchaseOrder) ApproveVariance(actor Actor, comments string) error {
	if !actor.Can(CapApproveRequests) {
		return shared.NewDomainError("FORBIDDEN", "You do not have permission to approve variances")
	}
	target := StatusReceived
	if !o.AllLinesSatisfied() {
		target = StatusPartiallyReceived
	}
	from := o.Status
	if err := o.transition(ActionApproveVariance, target); err != nil {
		return err
	}
	note := "Variance approved"
	if c := strings.TrimSpace(comments); c != "" {
		note += ": " + c
	}
	o.appendApproval(actor, ApprovalApproved, note)
	o.AddDomainEvent(NewVarianceApprovedEvent(o, actor, from, comments))
	return nil
}

// Complete closes the order for history and reporting
func (o *PurchaseOrder) Complete(actor Actor, comments string) error {
	if !actor.Can(CapApproveRequests) {
		return shared.NewDomainError("FORBIDDEN", "You do not have permission to complete orders")
	}
	from := o.Status
	if err := o.transition(ActionComplete, StatusClosed); err != nil {
		return err
	}
	note := fmt.Sprintf("Order completed from %s", from.Label())
	if c := strings.TrimSpace(comments); c != "" {
		note += ": " + c
	}
	o.appendApproval(actor, ApprovalCompleted, note)
	o.AddDomainEvent(NewPurchaseOrderCompletedEvent(o, actor, from))
	return nil
}

// Override forces the order into any status. Admin only; bypasses the transition table.
// Forcing a receipt-implying status with no delivery on record first creates a
// synthetic full-receipt delivery so delivery based reporting stays consistent.
func (o *PurchaseOrder) Override(actor Actor, target Status, reason string) error {
	if !actor.IsAdmin() {
		return shared.NewDomainError("FORBIDDEN", "Only administrators can override order status")
	}
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", target))
	}
	if target == o.Status {
		return shared.NewDomainError("STATUS_UNCHANGED", fmt.Sprintf("Order is already %s", target))
	}

	from := o.Status
	var synthetic *DeliveryHeader
	if target.ImpliesReceipt() && len(o.Deliveries) == 0 {
		synthetic = o.receiveEverything(actor)
	}

	note := fmt.Sprintf("Status forced from %s to %s", from, target)
	if r := strings.TrimSpace(reason); r != "" {
		note += ": " + r
	}
	o.appendApproval(actor, ApprovalAdminOverride, note)
	o.Status = target
	o.Touch()
	o.AddDomainEvent(NewStatusOverriddenEvent(o, actor, from, reason, synthetic != nil))
	return nil
}

func (o *PurchaseOrder) receiveEverything(actor Actor) *DeliveryHeader {
	now := time.Now()
	delivery := DeliveryHeader{
		ID:           uuid.New(),
		OrderID:      o.ID,
		Date:         now,
		DocketNumber: OverrideDocketNumber,
		ReceivedBy:   actor.Name,
		CreatedAt:    now,
	}
	for i := range o.Lines {
		line := &o.Lines[i]
		remaining := line.Remaining()
		if remaining == 0 || line.IsForceClosed {
			continue
		}
		delivery.Lines = append(delivery.Lines, DeliveryLineItem{
			ID:         uuid.New(),
			DeliveryID: delivery.ID,
			POLineID:   line.ID,
			Quantity:   remaining,
		})
		line.QuantityReceived += remaining
		line.UpdatedAt = now
	}
	if len(delivery.Lines) == 0 {
		return nil
	}
	o.Deliveries = append(o.Deliveries, delivery)
	return &o.Deliveries[len(o.Deliveries)-1]
}

// DeliveryUpdate holds the editable header fields of a recorded delivery
type DeliveryUpdate struct {
	Date         *time.Time
	DocketNumber *string
	ReceivedBy   *string
}

// UpdateDelivery edits a recorded delivery's header fields. Its lines never change.
func (o *PurchaseOrder) UpdateDelivery(actor Actor, deliveryID uuid.UUID, upd DeliveryUpdate) error {
	if !actor.Can(CapManageDeliveries) {
		return shared.NewDomainError("FORBIDDEN", "You do not have permission to edit deliveries")
	}
	d := o.findDelivery(deliveryID)
	if d == nil {
		return shared.NewDomainError("DELIVERY_NOT_FOUND", "Delivery not found on this order")
	}
	if upd.Date != nil {
		if upd.Date.IsZero() {
			return shared.NewDomainError("DATE_REQUIRED", "Delivery date is required")
		}
		d.Date = *upd.Date
	}
	if upd.DocketNumber != nil {
		docket := strings.TrimSpace(*upd.DocketNumber)
		if docket == "" && len(d.Lines) > 0 {
			return shared.NewDomainError("DOCKET_REQUIRED", "Docket number is required when goods were received")
		}
		d.DocketNumber = docket
	}
	if upd.ReceivedBy != nil {
		d.ReceivedBy = strings.TrimSpace(*upd.ReceivedBy)
	}
	o.Touch()
	return nil
}

// FinanceUpdate holds the finance fields of a delivery line
type FinanceUpdate struct {
	InvoiceNumber   *string
	IsCapitalised   *bool
	CapitalisedDate *time.Time
}

// UpdateDeliveryLineFinance records invoice and capitalisation details on a delivery line
func (o *PurchaseOrder) UpdateDeliveryLineFinance(actor Actor, deliveryID, lineID uuid.UUID, upd FinanceUpdate) error {
	if !actor.Can(CapFinance) {
		return shared.NewDomainError("FORBIDDEN", "You do not have permission to edit finance details")
	}
	d := o.findDelivery(deliveryID)
	if d == nil {
		return shared.NewDomainError("DELIVERY_NOT_FOUND", "Delivery not found on this order")
	}
	var line *DeliveryLineItem
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			line = &d.Lines[i]
			break
		}
	}
	if line == nil {
		return shared.NewDomainError("DELIVERY_LINE_NOT_FOUND", "Delivery line not found")
	}

	if upd.InvoiceNumber != nil {
		line.InvoiceNumber = strings.TrimSpace(*upd.InvoiceNumber)
	}
	if upd.CapitalisedDate != nil {
		date := *upd.CapitalisedDate
		line.CapitalisedDate = &date
	}
	if upd.IsCapitalised != nil {
		line.IsCapitalised = *upd.IsCapitalised
		switch {
		case !line.IsCapitalised:
			line.CapitalisedDate = nil
		case line.CapitalisedDate == nil:
			now := time.Now()
			line.CapitalisedDate = &now
		}
	}
	o.Touch()
	return nil
}

// CanEditLines checks the pending-request editor guard: the requester or an
// admin, while PENDING_APPROVAL, before any decision or delivery is recorded.
func (o *PurchaseOrder) CanEditLines(actor Actor) error {
	if !actor.IsRequesterOf(o) && !actor.IsAdmin() {
		return shared.NewDomainError("FORBIDDEN", "Only the requester can edit this request")
	}
	if o.Status != StatusPendingApproval {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit an order in %s status", o.Status))
	}
	if o.HasDecisionHistory() {
		return shared.NewDomainError("INVALID_STATE", "Cannot edit an order with approval or delivery history")
	}
	return nil
}

// ApplyEdits saves an editor session onto the order
func (o *PurchaseOrder) ApplyEdits(actor Actor, e *Editor) error {
	if err := o.CanEditLines(actor); err != nil {
		return err
	}
	if e.orderID != o.ID {
		return shared.NewDomainError("INVALID_INPUT", "Editor belongs to a different order")
	}
	if len(e.lines) == 0 {
		return shared.NewDomainError("CANNOT_REMOVE_LAST_LINE", "An order must keep at least one line")
	}
	o.Lines = e.Lines()
	o.CustomerName = e.CustomerName
	o.ReasonForRequest = e.ReasonForRequest
	o.Comments = e.Comments
	o.recalculateTotals()
	return nil
}

// CanDelete checks whether the actor may delete the order
func (o *PurchaseOrder) CanDelete(actor Actor) error {
	if !actor.IsRequesterOf(o) && !actor.IsAdmin() {
		return shared.NewDomainError("FORBIDDEN", "Only the requester or an administrator can delete this order")
	}
	if o.Status != StatusDraft && o.Status != StatusPendingApproval {
		return shared.NewDomainError("INVALID_STATE", "Only draft or pending orders can be deleted")
	}
	return nil
}

// HasDecisionHistory returns true once anything beyond the submission is on record
func (o *PurchaseOrder) HasDecisionHistory() bool {
	if len(o.Deliveries) > 0 {
		return true
	}
	for _, ev := range o.ApprovalHistory {
		if ev.Action != ApprovalSubmitted {
			return true
		}
	}
	return false
}

// AllLinesSatisfied returns true when every line is fully received or force-closed
func (o *PurchaseOrder) AllLinesSatisfied() bool {
	for i := range o.Lines {
		if o.Lines[i].IsOutstanding() {
			return false
		}
	}
	return true
}

// ReceivedFromDeliveries sums delivered quantity per order line across all deliveries
func (o *PurchaseOrder) ReceivedFromDeliveries() map[uuid.UUID]int {
	totals := make(map[uuid.UUID]int, len(o.Lines))
	for _, d := range o.Deliveries {
		for _, dl := range d.Lines {
			totals[dl.POLineID] += dl.Quantity
		}
	}
	return totals
}

// ExportID returns the identifier used in exported files
func (o *PurchaseOrder) ExportID() string {
	if o.DisplayID != "" {
		return o.DisplayID
	}
	return o.ID.String()
}

func (o *PurchaseOrder) transition(action Action, target Status) error {
	if !o.Status.CanTransition(action, target) {
		return o.invalidTransition(action)
	}
	o.Status = target
	o.Touch()
	return nil
}

func (o *PurchaseOrder) invalidTransition(action Action) error {
	return shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("Cannot %s an order in %s status", strings.ToLower(strings.ReplaceAll(string(action), "_", " ")), o.Status))
}

func (o *PurchaseOrder) appendApproval(actor Actor, action ApprovalAction, comments string) {
	o.ApprovalHistory = append(o.ApprovalHistory, ApprovalEvent{
		ID:           uuid.New(),
		OrderID:      o.ID,
		ApproverID:   actor.ID,
		ApproverName: actor.Name,
		Date:         time.Now(),
		Action:       action,
		Comments:     strings.TrimSpace(comments),
	})
}

func (o *PurchaseOrder) recalculateTotals() {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.TotalPrice)
	}
	o.TotalAmount = total
	o.Touch()
}

func (o *PurchaseOrder) findLine(id uuid.UUID) *LineItem {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i]
		}
	}
	return nil
}

func (o *PurchaseOrder) findDelivery(id uuid.UUID) *DeliveryHeader {
	for i := range o.Deliveries {
		if o.Deliveries[i].ID == id {
			return &o.Deliveries[i]
		}
	}
	return nil
}
