package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	poapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PurchaseOrderService is the application service behind PurchaseOrderHandler
type PurchaseOrderService interface {
	Create(ctx context.Context, actor procurement.Actor, req poapp.CreatePurchaseOrderRequest) (*poapp.PurchaseOrderResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*poapp.PurchaseOrderResponse, error)
	GetByDisplayID(ctx context.Context, displayID string) (*poapp.PurchaseOrderResponse, error)
	List(ctx context.Context, filter poapp.PurchaseOrderListFilter) ([]poapp.PurchaseOrderListItemResponse, int64, error)
	GetStatusSummary(ctx context.Context) (*poapp.StatusSummaryResponse, error)
	Delete(ctx context.Context, actor procurement.Actor, id uuid.UUID, version int) error
	Submit(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error)
	Approve(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error)
	Reject(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error)
	LinkConcur(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.LinkConcurRequest) (*poapp.PurchaseOrderResponse, error)
	ApproveVariance(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error)
	Complete(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error)
	Override(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.OverrideStatusRequest) (*poapp.PurchaseOrderResponse, error)
	PreviewDelivery(ctx context.Context, actor procurement.Actor, id uuid.UUID, in poapp.DeliverySubmissionInput) (*poapp.ReconciliationResponse, error)
	RecordDelivery(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.RecordDeliveryRequest) (*poapp.DeliveryResultResponse, error)
	SaveLines(ctx context.Context, actor procurement.Actor, id uuid.UUID, req poapp.SaveLinesRequest) (*poapp.PurchaseOrderResponse, error)
	UpdateDelivery(ctx context.Context, actor procurement.Actor, id, deliveryID uuid.UUID, req poapp.UpdateDeliveryRequest) (*poapp.PurchaseOrderResponse, error)
	UpdateDeliveryLineFinance(ctx context.Context, actor procurement.Actor, id, deliveryID, lineID uuid.UUID, req poapp.UpdateDeliveryLineFinanceRequest) (*poapp.PurchaseOrderResponse, error)
	ExportConcurCSV(ctx context.Context, id uuid.UUID) (*poapp.ExportFile, error)
}

// PurchaseOrderHandler handles purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

// Create handles POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req poapp.CreatePurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// GetByID handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetByDisplayID handles GET /purchase-orders/number/:display_id
func (h *PurchaseOrderHandler) GetByDisplayID(c *gin.Context) {
	order, err := h.orderService.GetByDisplayID(c.Request.Context(), c.Param("display_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List handles GET /purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var filter poapp.PurchaseOrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// GetStatusSummary handles GET /purchase-orders/stats/summary
func (h *PurchaseOrderHandler) GetStatusSummary(c *gin.Context) {
	summary, err := h.orderService.GetStatusSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Delete handles DELETE /purchase-orders/:id?version=N
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	version, err := strconv.Atoi(c.Query("version"))
	if err != nil || version < 1 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Query parameter version is required")
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), actor, id, version); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Submit handles POST /purchase-orders/:id/submit
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	h.action(c, h.orderService.Submit)
}

// Approve handles POST /purchase-orders/:id/approve
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	h.action(c, h.orderService.Approve)
}

// Reject handles POST /purchase-orders/:id/reject
func (h *PurchaseOrderHandler) Reject(c *gin.Context) {
	h.action(c, h.orderService.Reject)
}

// ApproveVariance handles POST /purchase-orders/:id/approve-variance
func (h *PurchaseOrderHandler) ApproveVariance(c *gin.Context) {
	h.action(c, h.orderService.ApproveVariance)
}

// Complete handles POST /purchase-orders/:id/complete
func (h *PurchaseOrderHandler) Complete(c *gin.Context) {
	h.action(c, h.orderService.Complete)
}

type orderAction func(context.Context, procurement.Actor, uuid.UUID, poapp.ActionRequest) (*poapp.PurchaseOrderResponse, error)

func (h *PurchaseOrderHandler) action(c *gin.Context, fn orderAction) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req poapp.ActionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := fn(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// LinkConcur handles POST /purchase-orders/:id/link-concur
func (h *PurchaseOrderHandler) LinkConcur(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req poapp.LinkConcurRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.LinkConcur(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Override handles POST /purchase-orders/:id/override
func (h *PurchaseOrderHandler) Override(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req poapp.OverrideStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Override(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// SaveLines handles PUT /purchase-orders/:id/lines
func (h *PurchaseOrderHandler) SaveLines(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req poapp.SaveLinesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.SaveLines(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// PreviewDelivery handles POST /purchase-orders/:id/deliveries/preview.
// Nothing is persisted.
func (h *PurchaseOrderHandler) PreviewDelivery(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req poapp.DeliverySubmissionInput
	if !h.bindJSON(c, &req) {
		return
	}

	preview, err := h.orderService.PreviewDelivery(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// RecordDelivery handles POST /purchase-orders/:id/deliveries
func (h *PurchaseOrderHandler) RecordDelivery(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req poapp.RecordDeliveryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.orderService.RecordDelivery(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// UpdateDelivery handles PATCH /purchase-orders/:id/deliveries/:delivery_id
func (h *PurchaseOrderHandler) UpdateDelivery(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	deliveryID, ok := h.uuidParam(c, "delivery_id")
	if !ok {
		return
	}
	var req poapp.UpdateDeliveryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateDelivery(c.Request.Context(), actor, id, deliveryID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// UpdateDeliveryLineFinance handles
// PATCH /purchase-orders/:id/deliveries/:delivery_id/lines/:line_id
func (h *PurchaseOrderHandler) UpdateDeliveryLineFinance(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	deliveryID, ok := h.uuidParam(c, "delivery_id")
	if !ok {
		return
	}
	lineID, ok := h.uuidParam(c, "line_id")
	if !ok {
		return
	}
	var req poapp.UpdateDeliveryLineFinanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateDeliveryLineFinance(c.Request.Context(), actor, id, deliveryID, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ExportConcur handles GET /purchase-orders/:id/export/concur
func (h *PurchaseOrderHandler) ExportConcur(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	file, err := h.orderService.ExportConcurCSV(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
