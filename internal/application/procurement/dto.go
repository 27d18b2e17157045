package procurement

import (
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format accepted for delivery and capitalisation dates
const DateLayout = "2006-01-02"

// ==================== Purchase Order DTOs ====================

// CreatePurchaseOrderRequest represents a request to raise a purchase order
type CreatePurchaseOrderRequest struct {
	RequestDate      *time.Time        `json:"request_date"`
	Site             string            `json:"site" binding:"required,min=1,max=100"`
	SupplierID       string            `json:"supplier_id" binding:"max=100"`
	SupplierName     string            `json:"supplier_name" binding:"required,min=1,max=200"`
	CustomerName     string            `json:"customer_name" binding:"max=200"`
	ReasonForRequest string            `json:"reason_for_request" binding:"omitempty,oneof=Depletion 'New Customer' Other"`
	Comments         string            `json:"comments" binding:"max=2000"`
	SaveAsDraft      bool              `json:"save_as_draft"`
	Lines            []CreateLineInput `json:"lines" binding:"required,min=1,dive"`
}

// CreateLineInput represents one catalog item on a new order
type CreateLineInput struct {
	ItemID    uuid.UUID        `json:"item_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// ActionRequest is the body of a plain lifecycle action
type ActionRequest struct {
	Version  int    `json:"version" binding:"required,min=1"`
	Comments string `json:"comments" binding:"max=2000"`
}

// LinkConcurRequest attaches a Concur PO number. Empty line_ids links every line.
type LinkConcurRequest struct {
	Version        int         `json:"version" binding:"required,min=1"`
	ConcurPONumber string      `json:"concur_po_number" binding:"required,min=1,max=100"`
	LineIDs        []uuid.UUID `json:"line_ids"`
}

// OverrideStatusRequest forces an order into a status (admin only)
type OverrideStatusRequest struct {
	Version int    `json:"version" binding:"required,min=1"`
	Status  string `json:"status" binding:"required"`
	Reason  string `json:"reason" binding:"required,min=1,max=1000"`
}

// ReceiptLineInput is the quantity entered against one outstanding line
type ReceiptLineInput struct {
	LineID   uuid.UUID `json:"line_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"min=0"`
	Close    bool      `json:"close"`
}

// DeliverySubmissionInput is a goods received form
type DeliverySubmissionInput struct {
	Date         string             `json:"date" binding:"required,datetime=2006-01-02"`
	DocketNumber string             `json:"docket_number" binding:"max=100"`
	ReceivedBy   string             `json:"received_by" binding:"max=200"`
	Lines        []ReceiptLineInput `json:"lines" binding:"required,min=1,dive"`
}

// RecordDeliveryRequest records a delivery against an order
type RecordDeliveryRequest struct {
	Version int `json:"version" binding:"required,min=1"`
	DeliverySubmissionInput
}

// EditLineInput is one line of the pending-request editor.
// Existing lines carry line_id; new lines carry item_id.
type EditLineInput struct {
	LineID    *uuid.UUID       `json:"line_id"`
	ItemID    *uuid.UUID       `json:"item_id"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// SaveLinesRequest is the full edited state of a pending request.
// Lines absent from the list are removed.
type SaveLinesRequest struct {
	Version          int             `json:"version" binding:"required,min=1"`
	Lines            []EditLineInput `json:"lines" binding:"required,min=1,dive"`
	CustomerName     *string         `json:"customer_name" binding:"omitempty,max=200"`
	ReasonForRequest *string         `json:"reason_for_request" binding:"omitempty,oneof=Depletion 'New Customer' Other"`
	Comments         *string         `json:"comments" binding:"omitempty,max=2000"`
}

// UpdateDeliveryRequest edits a recorded delivery's header
type UpdateDeliveryRequest struct {
	Version      int     `json:"version" binding:"required,min=1"`
	Date         *string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	DocketNumber *string `json:"docket_number" binding:"omitempty,max=100"`
	ReceivedBy   *string `json:"received_by" binding:"omitempty,max=200"`
}

// UpdateDeliveryLineFinanceRequest edits the finance fields of a delivery line
type UpdateDeliveryLineFinanceRequest struct {
	Version         int     `json:"version" binding:"required,min=1"`
	InvoiceNumber   *string `json:"invoice_number" binding:"omitempty,max=100"`
	IsCapitalised   *bool   `json:"is_capitalised"`
	CapitalisedDate *string `json:"capitalised_date" binding:"omitempty,datetime=2006-01-02"`
}

// PurchaseOrderListFilter represents filter options for the order list
type PurchaseOrderListFilter struct {
	Search      string `form:"search"`
	Status      string `form:"status"`
	Site        string `form:"site"`
	SupplierID  string `form:"supplier_id"`
	RequesterID string `form:"requester_id" binding:"omitempty,uuid"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurchaseOrderResponse represents a full purchase order in API responses
type PurchaseOrderResponse struct {
	ID               uuid.UUID               `json:"id"`
	DisplayID        string                  `json:"display_id"`
	RequestDate      time.Time               `json:"request_date"`
	RequesterID      uuid.UUID               `json:"requester_id"`
	RequesterName    string                  `json:"requester_name"`
	Site             string                  `json:"site"`
	SupplierID       string                  `json:"supplier_id,omitempty"`
	SupplierName     string                  `json:"supplier_name"`
	Status           string                  `json:"status"`
	StatusLabel      string                  `json:"status_label"`
	TotalAmount      decimal.Decimal         `json:"total_amount"`
	CustomerName     string                  `json:"customer_name,omitempty"`
	ReasonForRequest string                  `json:"reason_for_request"`
	Comments         string                  `json:"comments,omitempty"`
	AllowedActions   []string                `json:"allowed_actions"`
	Lines            []LineItemResponse      `json:"lines"`
	Deliveries       []DeliveryResponse      `json:"deliveries"`
	ApprovalHistory  []ApprovalEventResponse `json:"approval_history"`
	Version          int                     `json:"version"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// LineItemResponse represents an order line
type LineItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ItemID           uuid.UUID       `json:"item_id"`
	ItemName         string          `json:"item_name"`
	SKU              string          `json:"sku"`
	QuantityOrdered  int             `json:"quantity_ordered"`
	QuantityReceived int             `json:"quantity_received"`
	Remaining        int             `json:"remaining"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	ConcurPONumber   string          `json:"concur_po_number,omitempty"`
	IsForceClosed    bool            `json:"is_force_closed"`
	IsOverReceived   bool            `json:"is_over_received"`
}

// DeliveryResponse represents a recorded delivery
type DeliveryResponse struct {
	ID           uuid.UUID              `json:"id"`
	Date         string                 `json:"date"`
	DocketNumber string                 `json:"docket_number"`
	ReceivedBy   string                 `json:"received_by"`
	Lines        []DeliveryLineResponse `json:"lines"`
	CreatedAt    time.Time              `json:"created_at"`
}

// DeliveryLineResponse represents one line of a delivery
type DeliveryLineResponse struct {
	ID              uuid.UUID `json:"id"`
	POLineID        uuid.UUID `json:"po_line_id"`
	Quantity        int       `json:"quantity"`
	InvoiceNumber   string    `json:"invoice_number,omitempty"`
	IsCapitalised   bool      `json:"is_capitalised"`
	CapitalisedDate *string   `json:"capitalised_date,omitempty"`
}

// ApprovalEventResponse represents an approval history entry
type ApprovalEventResponse struct {
	ID           uuid.UUID `json:"id"`
	ApproverID   uuid.UUID `json:"approver_id"`
	ApproverName string    `json:"approver_name"`
	Date         time.Time `json:"date"`
	Action       string    `json:"action"`
	Comments     string    `json:"comments,omitempty"`
}

// PurchaseOrderListItemResponse represents an order in list responses
type PurchaseOrderListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	DisplayID     string          `json:"display_id"`
	RequestDate   time.Time       `json:"request_date"`
	RequesterID   uuid.UUID       `json:"requester_id"`
	RequesterName string          `json:"requester_name"`
	Site          string          `json:"site"`
	SupplierName  string          `json:"supplier_name"`
	Status        string          `json:"status"`
	StatusLabel   string          `json:"status_label"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	LineCount     int             `json:"line_count"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
}

// VarianceResponse represents a variance found while reconciling a delivery
type VarianceResponse struct {
	LineID    uuid.UUID `json:"line_id"`
	SKU       string    `json:"sku"`
	Kind      string    `json:"kind"`
	Quantity  int       `json:"quantity"`
	Remaining int       `json:"remaining"`
	Entered   int       `json:"entered"`
}

// ReconciliationResponse describes how a delivery submission is (or would be) applied
type ReconciliationResponse struct {
	RequiresApproval bool                   `json:"requires_approval"`
	SubmitLabel      string                 `json:"submit_label"`
	DocketRequired   bool                   `json:"docket_required"`
	DeliveryLines    []DeliveryLineResponse `json:"delivery_lines"`
	ClosedLineIDs    []uuid.UUID            `json:"closed_line_ids"`
	Variances        []VarianceResponse     `json:"variances"`
}

// DeliveryResultResponse is returned after recording a delivery
type DeliveryResultResponse struct {
	Order          PurchaseOrderResponse  `json:"order"`
	Reconciliation ReconciliationResponse `json:"reconciliation"`
}

// StatusSummaryResponse holds order counts per status
type StatusSummaryResponse struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// ExportFile is a generated download
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ==================== Catalog DTOs ====================

// CreateCatalogItemRequest represents a request to add a catalog item
type CreateCatalogItemRequest struct {
	SKU          string          `json:"sku" binding:"required,min=1,max=50"`
	Name         string          `json:"name" binding:"required,min=1,max=200"`
	DefaultPrice decimal.Decimal `json:"default_price"`
}

// CatalogListFilter represents filter options for the catalog list
type CatalogListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CatalogItemResponse represents a catalog item
type CatalogItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	DefaultPrice decimal.Decimal `json:"default_price"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ==================== Converters ====================

// ToPurchaseOrderResponse converts a domain order to a response DTO
func ToPurchaseOrderResponse(o *procurement.PurchaseOrder) PurchaseOrderResponse {
	lines := make([]LineItemResponse, len(o.Lines))
	for i := range o.Lines {
		lines[i] = toLineItemResponse(&o.Lines[i])
	}
	deliveries := make([]DeliveryResponse, len(o.Deliveries))
	for i := range o.Deliveries {
		deliveries[i] = toDeliveryResponse(&o.Deliveries[i])
	}
	history := make([]ApprovalEventResponse, len(o.ApprovalHistory))
	for i, ev := range o.ApprovalHistory {
		history[i] = ApprovalEventResponse{
			ID:           ev.ID,
			ApproverID:   ev.ApproverID,
			ApproverName: ev.ApproverName,
			Date:         ev.Date,
			Action:       string(ev.Action),
			Comments:     ev.Comments,
		}
	}
	actions := o.Status.AllowedActions()
	allowed := make([]string, len(actions))
	for i, a := range actions {
		allowed[i] = string(a)
	}

	return PurchaseOrderResponse{
		ID:               o.ID,
		DisplayID:        o.DisplayID,
		RequestDate:      o.RequestDate,
		RequesterID:      o.RequesterID,
		RequesterName:    o.RequesterName,
		Site:             o.Site,
		SupplierID:       o.SupplierID,
		SupplierName:     o.SupplierName,
		Status:           string(o.Status),
		StatusLabel:      o.Status.Label(),
		TotalAmount:      o.TotalAmount,
		CustomerName:     o.CustomerName,
		ReasonForRequest: string(o.ReasonForRequest),
		Comments:         o.Comments,
		AllowedActions:   allowed,
		Lines:            lines,
		Deliveries:       deliveries,
		ApprovalHistory:  history,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func toLineItemResponse(l *procurement.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:               l.ID,
		ItemID:           l.ItemID,
		ItemName:         l.ItemName,
		SKU:              l.SKU,
		QuantityOrdered:  l.QuantityOrdered,
		QuantityReceived: l.QuantityReceived,
		Remaining:        l.Remaining(),
		UnitPrice:        l.UnitPrice,
		TotalPrice:       l.TotalPrice,
		ConcurPONumber:   l.ConcurPONumber,
		IsForceClosed:    l.IsForceClosed,
		IsOverReceived:   l.IsOverReceived(),
	}
}

func toDeliveryResponse(d *procurement.DeliveryHeader) DeliveryResponse {
	return DeliveryResponse{
		ID:           d.ID,
		Date:         d.Date.Format(DateLayout),
		DocketNumber: d.DocketNumber,
		ReceivedBy:   d.ReceivedBy,
		Lines:        toDeliveryLineResponses(d.Lines),
		CreatedAt:    d.CreatedAt,
	}
}

func toDeliveryLineResponses(lines []procurement.DeliveryLineItem) []DeliveryLineResponse {
	out := make([]DeliveryLineResponse, len(lines))
	for i, l := range lines {
		out[i] = DeliveryLineResponse{
			ID:            l.ID,
			POLineID:      l.POLineID,
			Quantity:      l.Quantity,
			InvoiceNumber: l.InvoiceNumber,
			IsCapitalised: l.IsCapitalised,
		}
		if l.CapitalisedDate != nil {
			date := l.CapitalisedDate.Format(DateLayout)
			out[i].CapitalisedDate = &date
		}
	}
	return out
}

// ToPurchaseOrderListItemResponses converts orders to list item DTOs
func ToPurchaseOrderListItemResponses(orders []procurement.PurchaseOrder) []PurchaseOrderListItemResponse {
	out := make([]PurchaseOrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		out[i] = PurchaseOrderListItemResponse{
			ID:            o.ID,
			DisplayID:     o.DisplayID,
			RequestDate:   o.RequestDate,
			RequesterID:   o.RequesterID,
			RequesterName: o.RequesterName,
			Site:          o.Site,
			SupplierName:  o.SupplierName,
			Status:        string(o.Status),
			StatusLabel:   o.Status.Label(),
			TotalAmount:   o.TotalAmount,
			LineCount:     len(o.Lines),
			Version:       o.Version,
			CreatedAt:     o.CreatedAt,
		}
	}
	return out
}

// ToReconciliationResponse converts a reconciliation result to a response DTO
func ToReconciliationResponse(rec *procurement.Reconciliation) ReconciliationResponse {
	resp := ReconciliationResponse{
		RequiresApproval: rec.RequiresApproval(),
		SubmitLabel:      rec.SubmitLabel(),
		DocketRequired:   rec.DocketMissing,
		DeliveryLines:    []DeliveryLineResponse{},
		ClosedLineIDs:    rec.ClosedLineIDs,
		Variances:        make([]VarianceResponse, len(rec.Variances)),
	}
	if resp.ClosedLineIDs == nil {
		resp.ClosedLineIDs = []uuid.UUID{}
	}
	if rec.Delivery != nil {
		resp.DeliveryLines = toDeliveryLineResponses(rec.Delivery.Lines)
	}
	for i, v := range rec.Variances {
		resp.Variances[i] = VarianceResponse{
			LineID:    v.LineID,
			SKU:       v.SKU,
			Kind:      string(v.Kind),
			Quantity:  v.Quantity,
			Remaining: v.Remaining,
			Entered:   v.Entered,
		}
	}
	return resp
}

// ToCatalogItemResponse converts a catalog item to a response DTO
func ToCatalogItemResponse(item *procurement.CatalogItem) CatalogItemResponse {
	return CatalogItemResponse{
		ID:           item.ID,
		SKU:          item.SKU,
		Name:         item.Name,
		DefaultPrice: item.DefaultPrice,
		Active:       item.Active,
		CreatedAt:    item.CreatedAt,
	}
}
