package procurement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/export"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExportArchiver keeps a copy of generated exports
type ExportArchiver interface {
	Archive(ctx context.Context, filename string, content []byte, contentType string) error
}

// PurchaseOrderService handles purchase order business operations.
// Every mutation checks the version the caller read, applies the domain
// operation, persists with an optimistic lock and then publishes events.
type PurchaseOrderService struct {
	orderRepo      procurement.PurchaseOrderRepository
	catalogRepo    procurement.CatalogRepository
	eventPublisher shared.EventPublisher
	archiver       ExportArchiver
	metrics        *telemetry.ProcurementMetrics
	logger         *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	orderRepo procurement.PurchaseOrderRepository,
	catalogRepo procurement.CatalogRepository,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetExportArchiver sets where Concur exports are archived
func (s *PurchaseOrderService) SetExportArchiver(archiver ExportArchiver) {
	s.archiver = archiver
}

// SetBusinessMetrics sets the purchase order metrics recorder
func (s *PurchaseOrderService) SetBusinessMetrics(metrics *telemetry.ProcurementMetrics) {
	s.metrics = metrics
}

// Create raises a new purchase order. Unless saved as a draft it is submitted
// for approval straight away.
func (s *PurchaseOrderService) Create(ctx context.Context, actor procurement.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	displayID, err := s.orderRepo.GenerateDisplayID(ctx)
	if err != nil {
		return nil, err
	}

	header := procurement.OrderHeader{
		Site:             req.Site,
		SupplierID:       req.SupplierID,
		SupplierName:     req.SupplierName,
		CustomerName:     req.CustomerName,
		ReasonForRequest: procurement.ReasonForRequest(req.ReasonForRequest),
		Comments:         req.Comments,
	}
	if req.RequestDate != nil {
		header.RequestDate = *req.RequestDate
	}

	order, err := procurement.NewPurchaseOrder(displayID, actor, header)
	if err != nil {
		return nil, err
	}

	for _, in := range req.Lines {
		item, err := s.findCatalogItem(ctx, in.ItemID)
		if err != nil {
			return nil, err
		}
		price := item.DefaultPrice
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}
		if _, err := order.AddLine(item, in.Quantity, price); err != nil {
			return nil, err
		}
	}

	if !req.SaveAsDraft {
		if err := order.Submit(actor); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, order)
	if s.metrics != nil {
		s.metrics.RecordOrderCreated(ctx, order.Site, string(order.Status), order.TotalAmount)
	}

	s.logger.Info("Purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("display_id", order.DisplayID),
		zap.String("status", string(order.Status)),
		zap.Int("lines", len(order.Lines)))

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByDisplayID retrieves a purchase order by its PO-YYYY-NNNNN code
func (s *PurchaseOrderService) GetByDisplayID(ctx context.Context, displayID string) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByDisplayID(ctx, displayID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves purchase orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, filter PurchaseOrderListFilter) ([]PurchaseOrderListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		status := procurement.Status(strings.ToUpper(filter.Status))
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", filter.Status))
		}
		domainFilter.Filters["status"] = string(status)
	}
	if filter.Site != "" {
		domainFilter.Filters["site"] = filter.Site
	}
	if filter.SupplierID != "" {
		domainFilter.Filters["supplier_id"] = filter.SupplierID
	}
	if filter.RequesterID != "" {
		requesterID, err := uuid.Parse(filter.RequesterID)
		if err != nil {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Invalid requester_id format")
		}
		domainFilter.Filters["requester_id"] = requesterID
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToPurchaseOrderListItemResponses(orders), total, nil
}

// GetStatusSummary returns the number of orders in each status
func (s *PurchaseOrderService) GetStatusSummary(ctx context.Context) (*StatusSummaryResponse, error) {
	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	resp := &StatusSummaryResponse{Counts: make(map[string]int64, len(procurement.AllStatuses()))}
	for _, status := range procurement.AllStatuses() {
		resp.Counts[string(status)] = counts[status]
		resp.Total += counts[status]
	}
	return resp, nil
}

// Delete removes a draft or pending order
func (s *PurchaseOrderService) Delete(ctx context.Context, actor procurement.Actor, id uuid.UUID, version int) error {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := order.CheckVersion(version); err != nil {
		return err
	}
	if err := order.CanDelete(actor); err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, id, version); err != nil {
		return err
	}
	s.logger.Info("Purchase order deleted",
		zap.String("order_id", id.String()),
		zap.String("display_id", order.DisplayID),
		zap.String("actor_id", actor.ID.String()))
	return nil
}

// Submit sends a draft order for approval
func (s *PurchaseOrderService) Submit(ctx context.Context, actor procurement.Actor, id uuid.UUID, req ActionRequest) (*PurchaseOrderResponse, error) {
	return s.respond(s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		return o.Submit(actor)
	}))
}

// Approve authorizes a pending request
func (s *PurchaseOrderService) Approve(ctx context.Context, actor procurement.Actor, id uuid.UUID, req ActionRequest) (*PurchaseOrderResponse, error) {
	return s.respond(s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		return o.Approve(actor, req.Comments)
	}))
}

// Reject declines a pending request
func (s *PurchaseOrderService) Reject(ctx context.Context, actor procurement.Actor, id uuid.UUID, req ActionRequest) (*PurchaseOrderResponse, error) {
	return s.respond(s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		return o.Reject(actor, req.Comments)
	}))
}

// LinkConcur attaches a Concur PO number to the order's lines
func (s *PurchaseOrderService) LinkConcur(ctx context.Context, actor procurement.Actor, id uuid.UUID, req LinkConcurRequest) (*PurchaseOrderResponse, error) {
	return s.respond(s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		return o.LinkConcur(actor, req.ConcurPONumber, req.LineIDs)
	}))
}

// ApproveVariance signs off a flagged delivery variance
func (s *PurchaseOrderService) ApproveVariance(ctx context.Context, actor procurement.Actor, id uuid.UUID, req ActionRequest) (*PurchaseOrderResponse, error) {
	return s.respond(s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		return o.ApproveVariance(actor, req.Comments)
	}))
}

// Complete closes an order
func (s *PurchaseOrderService) Complete(ctx context.Context, actor procurement.Actor, id uuid.UUID, req ActionRequest) (*PurchaseOrderResponse, error) {
	return s.respond(s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		return o.Complete(actor, req.Comments)
	}))
}

// Override forces an order into a status (admin only)
func (s *PurchaseOrderService) Override(ctx context.Context, actor procurement.Actor, id uuid.UUID, req OverrideStatusRequest) (*PurchaseOrderResponse, error) {
	order, err := s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		return o.Override(actor, procurement.Status(strings.ToUpper(strings.TrimSpace(req.Status))), req.Reason)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Warn("Purchase order status overridden",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.String("actor_id", actor.ID.String()),
		zap.String("reason", req.Reason))
	return s.respond(order, nil)
}

// PreviewDelivery reconciles a delivery submission without saving it
func (s *PurchaseOrderService) PreviewDelivery(ctx context.Context, actor procurement.Actor, id uuid.UUID, in DeliverySubmissionInput) (*ReconciliationResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sub, err := toDeliverySubmission(in)
	if err != nil {
		return nil, err
	}
	rec, err := order.PreviewDelivery(actor, sub)
	if err != nil {
		return nil, err
	}
	response := ToReconciliationResponse(rec)
	return &response, nil
}

// RecordDelivery reconciles and applies a delivery submission
func (s *PurchaseOrderService) RecordDelivery(ctx context.Context, actor procurement.Actor, id uuid.UUID, req RecordDeliveryRequest) (*DeliveryResultResponse, error) {
	sub, err := toDeliverySubmission(req.DeliverySubmissionInput)
	if err != nil {
		return nil, err
	}

	var rec *procurement.Reconciliation
	order, err := s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		var err error
		rec, err = o.RecordDelivery(actor, sub)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		for _, v := range rec.Variances {
			s.metrics.RecordVariance(ctx, string(v.Kind), v.Quantity)
		}
	}

	fields := []zap.Field{
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.Int("closed_lines", len(rec.ClosedLineIDs)),
		zap.Int("variances", len(rec.Variances)),
	}
	if rec.Delivery != nil {
		fields = append(fields, zap.String("delivery_id", rec.Delivery.ID.String()))
	}
	s.logger.Info("Delivery recorded", fields...)

	return &DeliveryResultResponse{
		Order:          ToPurchaseOrderResponse(order),
		Reconciliation: ToReconciliationResponse(rec),
	}, nil
}

// SaveLines applies a pending-request editor session in one write and returns
// the order as reloaded from the store
func (s *PurchaseOrderService) SaveLines(ctx context.Context, actor procurement.Actor, id uuid.UUID, req SaveLinesRequest) (*PurchaseOrderResponse, error) {
	_, err := s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		if err := o.CanEditLines(actor); err != nil {
			return err
		}
		editor, err := s.replayEdits(ctx, o, req)
		if err != nil {
			return err
		}
		return o.ApplyEdits(actor, editor)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// replayEdits turns the submitted line set into editor operations:
// new lines are added first so the order never drops to zero lines, then
// existing lines are changed or removed.
func (s *PurchaseOrderService) replayEdits(ctx context.Context, o *procurement.PurchaseOrder, req SaveLinesRequest) (*procurement.Editor, error) {
	editor := procurement.NewEditor(o)

	keep := make(map[uuid.UUID]bool, len(req.Lines))
	for _, in := range req.Lines {
		var lineID uuid.UUID
		switch {
		case in.LineID != nil:
			lineID = *in.LineID
			keep[lineID] = true
		case in.ItemID != nil:
			item, err := s.findCatalogItem(ctx, *in.ItemID)
			if err != nil {
				return nil, err
			}
			line, err := editor.AddLine(item)
			if err != nil {
				return nil, err
			}
			lineID = line.ID
			keep[lineID] = true
		default:
			return nil, shared.NewDomainError("INVALID_INPUT", "Each line needs a line_id or an item_id")
		}

		if err := editor.ChangeQuantity(lineID, in.Quantity); err != nil {
			return nil, err
		}
		if in.UnitPrice != nil {
			if err := editor.ChangeUnitPrice(lineID, *in.UnitPrice); err != nil {
				return nil, err
			}
		}
	}

	for _, line := range editor.Lines() {
		if keep[line.ID] {
			continue
		}
		if err := editor.RemoveLine(line.ID); err != nil {
			return nil, err
		}
	}

	if req.CustomerName != nil || req.ReasonForRequest != nil || req.Comments != nil {
		customer, reason, comments := editor.CustomerName, editor.ReasonForRequest, editor.Comments
		if req.CustomerName != nil {
			customer = *req.CustomerName
		}
		if req.ReasonForRequest != nil {
			reason = procurement.ReasonForRequest(*req.ReasonForRequest)
		}
		if req.Comments != nil {
			comments = *req.Comments
		}
		if err := editor.SetHeader(customer, reason, comments); err != nil {
			return nil, err
		}
	}
	return editor, nil
}

// UpdateDelivery edits the header of a recorded delivery
func (s *PurchaseOrderService) UpdateDelivery(ctx context.Context, actor procurement.Actor, id, deliveryID uuid.UUID, req UpdateDeliveryRequest) (*PurchaseOrderResponse, error) {
	upd := procurement.DeliveryUpdate{
		DocketNumber: req.DocketNumber,
		ReceivedBy:   req.ReceivedBy,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		upd.Date = &date
	}
	return s.respond(s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		return o.UpdateDelivery(actor, deliveryID, upd)
	}))
}

// UpdateDeliveryLineFinance records invoice and capitalisation details
func (s *PurchaseOrderService) UpdateDeliveryLineFinance(ctx context.Context, actor procurement.Actor, id, deliveryID, lineID uuid.UUID, req UpdateDeliveryLineFinanceRequest) (*PurchaseOrderResponse, error) {
	upd := procurement.FinanceUpdate{
		InvoiceNumber: req.InvoiceNumber,
		IsCapitalised: req.IsCapitalised,
	}
	if req.CapitalisedDate != nil {
		date, err := parseDate(*req.CapitalisedDate)
		if err != nil {
			return nil, err
		}
		upd.CapitalisedDate = &date
	}
	return s.respond(s.mutate(ctx, id, req.Version, func(o *procurement.PurchaseOrder) error {
		return o.UpdateDeliveryLineFinance(actor, deliveryID, lineID, upd)
	}))
}

// ExportConcurCSV renders the order's lines for Concur. When an archiver is
// configured a copy is stored; archive failures are logged only.
func (s *PurchaseOrderService) ExportConcurCSV(ctx context.Context, id uuid.UUID) (*ExportFile, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "export_concur",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, id))
	defer span.End()

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := export.ConcurCSV(order)
	if err != nil {
		return nil, fmt.Errorf("render concur export: %w", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrLineCount, len(order.Lines))
	file := &ExportFile{
		Filename:    export.ConcurFilename(order),
		ContentType: export.ConcurContentType,
		Content:     content,
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, file.Filename, file.Content, file.ContentType); err != nil {
			telemetry.AddEvent(span, "archive_failed", "error", err.Error())
			s.logger.Warn("Failed to archive concur export",
				zap.String("order_id", order.ID.String()),
				zap.String("filename", file.Filename),
				zap.Error(err))
		}
	}
	return file, nil
}

// mutate loads the order, rejects a stale version, applies fn and saves with
// an optimistic lock. Events are published only after the write commits.
func (s *PurchaseOrderService) mutate(ctx context.Context, id uuid.UUID, version int, fn func(*procurement.PurchaseOrder) error) (*procurement.PurchaseOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "mutate",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, id))
	defer span.End()

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := order.CheckVersion(version); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	from := order.Status
	if err := fn(order); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDisplayID, order.DisplayID,
		telemetry.SpanAttrOrderStatus, string(order.Status))
	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, string(from), string(order.Status))
	}
	s.publishEvents(ctx, order)
	return order, nil
}

func (s *PurchaseOrderService) respond(order *procurement.PurchaseOrder, err error) (*PurchaseOrderResponse, error) {
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// publishEvents hands pending events to the publisher. Publish failures are
// logged; the state change has already committed.
func (s *PurchaseOrderService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish purchase order events",
			zap.String("order_id", agg.GetID().String()),
			zap.Int("events", len(events)),
			zap.Error(err))
	}
}

func (s *PurchaseOrderService) findCatalogItem(ctx context.Context, id uuid.UUID) (*procurement.CatalogItem, error) {
	item, err := s.catalogRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_ITEM", fmt.Sprintf("Catalog item %s not found", id))
		}
		return nil, err
	}
	return item, nil
}

func toDeliverySubmission(in DeliverySubmissionInput) (procurement.DeliverySubmission, error) {
	date, err := parseDate(in.Date)
	if err != nil {
		return procurement.DeliverySubmission{}, err
	}
	sub := procurement.DeliverySubmission{
		Date:         date,
		DocketNumber: in.DocketNumber,
		ReceivedBy:   in.ReceivedBy,
		Lines:        make([]procurement.ReceiptInput, len(in.Lines)),
	}
	for i, l := range in.Lines {
		sub.Lines[i] = procurement.ReceiptInput{
			LineID:   l.LineID,
			Quantity: l.Quantity,
			Close:    l.Close,
		}
	}
	return sub, nil
}

func parseDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, shared.NewDomainError("DATE_REQUIRED", "Date is required")
	}
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_DATE", fmt.Sprintf("Date must be in %s format", DateLayout))
	}
	return date, nil
}
