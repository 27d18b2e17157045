package procurement

import (
	"fmt"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Editor is a working copy of a pending request's lines and header fields.
// Changes stay local until PurchaseOrder.ApplyEdits saves them; dropping the
// editor discards them.
type Editor struct {
	orderID          uuid.UUID
	lines            []LineItem
	CustomerName     string
	ReasonForRequest ReasonForRequest
	Comments         string
}

// NewEditor starts an edit session on a copy of the order's lines
func NewEditor(o *PurchaseOrder) *Editor {
	lines := make([]LineItem, len(o.Lines))
	copy(lines, o.Lines)
	return &Editor{
		orderID:          o.ID,
		lines:            lines,
		CustomerName:     o.CustomerName,
		ReasonForRequest: o.ReasonForRequest,
		Comments:         o.Comments,
	}
}

// ChangeQuantity sets a line's quantity, clamped to at least 1
func (e *Editor) ChangeQuantity(lineID uuid.UUID, quantity int) error {
	line, err := e.line(lineID)
	if err != nil {
		return err
	}
	line.setQuantity(quantity)
	return nil
}

// ChangeUnitPrice sets a line's unit price, clamped to zero
func (e *Editor) ChangeUnitPrice(lineID uuid.UUID, price decimal.Decimal) error {
	line, err := e.line(lineID)
	if err != nil {
		return err
	}
	line.setUnitPrice(price)
	return nil
}

// RemoveLine drops a line. The last remaining line cannot be removed.
func (e *Editor) RemoveLine(lineID uuid.UUID) error {
	for i := range e.lines {
		if e.lines[i].ID != lineID {
			continue
		}
		if len(e.lines) == 1 {
			return shared.NewDomainError("CANNOT_REMOVE_LAST_LINE", "An order must keep at least one line")
		}
		e.lines = append(e.lines[:i], e.lines[i+1:]...)
		return nil
	}
	return shared.NewDomainError("LINE_NOT_FOUND", fmt.Sprintf("Line %s is not on this order", lineID))
}

// AddLine adds an active catalog item not already on the order, with
// quantity 1 at the item's default price
func (e *Editor) AddLine(item *CatalogItem) (*LineItem, error) {
	if err := checkAddable(e.lines, item); err != nil {
		return nil, err
	}
	e.lines = append(e.lines, newLineItem(e.orderID, item, 1, item.DefaultPrice))
	return &e.lines[len(e.lines)-1], nil
}

// SetHeader replaces the editable header fields
func (e *Editor) SetHeader(customerName string, reason ReasonForRequest, comments string) error {
	if !reason.IsValid() {
		return shared.NewDomainError("INVALID_REASON", "Reason for request must be Depletion, New Customer or Other")
	}
	e.CustomerName = customerName
	e.ReasonForRequest = reason
	e.Comments = comments
	return nil
}

// Lines returns a copy of the edited lines
func (e *Editor) Lines() []LineItem {
	out := make([]LineItem, len(e.lines))
	copy(out, e.lines)
	return out
}

// Total returns the sum of the edited line totals
func (e *Editor) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.lines {
		total = total.Add(l.TotalPrice)
	}
	return total
}

func (e *Editor) line(id uuid.UUID) (*LineItem, error) {
	for i := range e.lines {
		if e.lines[i].ID == id {
			return &e.lines[i], nil
		}
	}
	return nil, shared.NewDomainError("LINE_NOT_FOUND", fmt.Sprintf("Line %s is not on this order", id))
}
