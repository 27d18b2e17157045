package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// ReceiptInput is what the user entered against one outstanding line
type ReceiptInput struct {
	LineID   uuid.UUID
	Quantity int
	// Close marks the line complete regardless of the quantity received
	Close bool
}

// DeliverySubmission is one goods-received form submission
type DeliverySubmission struct {
	Date         time.Time
	DocketNumber string
	ReceivedBy   string
	Lines        []ReceiptInput
}

// VarianceKind classifies a mismatch between ordered and received quantity
type VarianceKind string

const (
	VarianceOver  VarianceKind = "OVER"
	VarianceShort VarianceKind = "SHORT"
)

// LineVariance is a variance detected on one line during reconciliation
type LineVariance struct {
	LineID    uuid.UUID
	SKU       string
	Kind      VarianceKind
	Quantity  int
	Remaining int
	Entered   int
}

// Reconciliation is the outcome of classifying a delivery submission
type Reconciliation struct {
	// Delivery is nil when the submission only closes lines
	Delivery      *DeliveryHeader
	ClosedLineIDs []uuid.UUID
	Variances     []LineVariance
	// DocketMissing is set when goods were entered without a docket number
	DocketMissing bool
}

// HasVariance returns true if any line was over-received or short-closed
func (r *Reconciliation) HasVariance() bool {
	return len(r.Variances) > 0
}

// RequiresApproval returns true when the submission needs variance sign-off
func (r *Reconciliation) RequiresApproval() bool {
	return r.HasVariance()
}

// SubmitLabel is the action label a client should show for this submission
func (r *Reconciliation) SubmitLabel() string {
	if r.RequiresApproval() {
		return "Submit for Approval"
	}
	return "Record Delivery"
}

// Reconcile classifies a delivery submission against an order's lines.
// It is pure: lines are read, never modified.
//
// Per line, with remaining = ordered - received:
//   - quantity > remaining is an OVER variance; over-receipt wins over the close flag
//   - close with quantity < remaining is a SHORT variance and closes the line
//   - anything else is a plain partial or full receipt
func Reconcile(lines []LineItem, sub DeliverySubmission) (*Reconciliation, error) {
	rec, err := Classify(lines, sub)
	if err != nil {
		return nil, err
	}
	if rec.DocketMissing {
		return nil, shared.NewDomainError("DOCKET_REQUIRED", "Docket number is required when goods are received")
	}
	return rec, nil
}

// Classify runs the per-line classification of Reconcile while the form is
// still being filled in. A missing docket is reported on the result instead
// of failing.
func Classify(lines []LineItem, sub DeliverySubmission) (*Reconciliation, error) {
	if sub.Date.IsZero() {
		return nil, shared.NewDomainError("DATE_REQUIRED", "Delivery date is required")
	}

	byID := make(map[uuid.UUID]*LineItem, len(lines))
	for i := range lines {
		byID[lines[i].ID] = &lines[i]
	}

	rec := &Reconciliation{
		ClosedLineIDs: make([]uuid.UUID, 0),
		Variances:     make([]LineVariance, 0),
	}
	deliveryID := uuid.New()
	var deliveryLines []DeliveryLineItem
	seen := make(map[uuid.UUID]bool, len(sub.Lines))

	for _, in := range sub.Lines {
		line, ok := byID[in.LineID]
		if !ok {
			return nil, shared.NewDomainError("LINE_NOT_FOUND", fmt.Sprintf("Line %s is not on this order", in.LineID))
		}
		if seen[in.LineID] {
			return nil, shared.NewDomainError("DUPLICATE_LINE_INPUT", fmt.Sprintf("Line %s appears more than once", line.SKU))
		}
		seen[in.LineID] = true

		qty := in.Quantity
		if qty < 0 {
			qty = 0
		}
		if qty == 0 && !in.Close {
			continue
		}
		if !line.IsOutstanding() {
			return nil, shared.NewDomainError("LINE_NOT_OUTSTANDING", fmt.Sprintf("Line %s has nothing left to receive", line.SKU))
		}

		remaining := line.Remaining()
		switch {
		case qty > remaining:
			rec.Variances = append(rec.Variances, LineVariance{
				LineID:    line.ID,
				SKU:       line.SKU,
				Kind:      VarianceOver,
				Quantity:  qty - remaining,
				Remaining: remaining,
				Entered:   qty,
			})
		case in.Close && qty < remaining:
			rec.Variances = append(rec.Variances, LineVariance{
				LineID:    line.ID,
				SKU:       line.SKU,
				Kind:      VarianceShort,
				Quantity:  remaining - qty,
				Remaining: remaining,
				Entered:   qty,
			})
			rec.ClosedLineIDs = append(rec.ClosedLineIDs, line.ID)
		}

		if qty > 0 {
			deliveryLines = append(deliveryLines, DeliveryLineItem{
				ID:         uuid.New(),
				DeliveryID: deliveryID,
				POLineID:   line.ID,
				Quantity:   qty,
			})
		}
	}

	if len(deliveryLines) == 0 && len(rec.ClosedLineIDs) == 0 {
		return nil, shared.NewDomainError("NOTHING_TO_SUBMIT", "Enter a received quantity or close at least one line")
	}

	if len(deliveryLines) > 0 {
		docket := strings.TrimSpace(sub.DocketNumber)
		rec.DocketMissing = docket == ""
		rec.Delivery = &DeliveryHeader{
			ID:           deliveryID,
			Date:         sub.Date,
			DocketNumber: docket,
			ReceivedBy:   strings.TrimSpace(sub.ReceivedBy),
			Lines:        deliveryLines,
			CreatedAt:    time.Now(),
		}
	}

	return rec, nil
}
