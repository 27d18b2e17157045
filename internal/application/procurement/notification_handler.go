package procurement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"go.uber.org/zap"
)

// WorkflowType names a notification workflow
type WorkflowType string

const (
	WorkflowSubmitted       WorkflowType = "PO_SUBMITTED"
	WorkflowApproved        WorkflowType = "PO_APPROVED"
	WorkflowRejected        WorkflowType = "PO_REJECTED"
	WorkflowConcurLinked    WorkflowType = "PO_CONCUR_LINKED"
	WorkflowDeliveryRecord  WorkflowType = "PO_DELIVERY_RECORDED"
	WorkflowVariancePending WorkflowType = "PO_VARIANCE_PENDING"
	WorkflowCompleted       WorkflowType = "PO_COMPLETED"
	WorkflowStatusOverride  WorkflowType = "PO_STATUS_OVERRIDDEN"
)

// Branding is the presentation data sent with every notification
type Branding struct {
	CompanyName  string `json:"company_name"`
	LogoURL      string `json:"logo_url,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
	SupportEmail string `json:"support_email,omitempty"`
}

// Notifier delivers a workflow notification about an order
type Notifier interface {
	Trigger(ctx context.Context, order *procurement.PurchaseOrder, workflow WorkflowType, branding Branding, data map[string]any) error
}

// DefaultNotificationTimeout bounds a single dispatch
const DefaultNotificationTimeout = 30 * time.Second

// NotificationHandler turns purchase order events into workflow
// notifications. Dispatch runs in the background after the write has
// committed; failures are logged and never reach the caller.
type NotificationHandler struct {
	orderRepo procurement.PurchaseOrderRepository
	notifier  Notifier
	branding  Branding
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(
	orderRepo procurement.PurchaseOrderRepository,
	notifier Notifier,
	branding Branding,
	timeout time.Duration,
	logger *zap.Logger,
) *NotificationHandler {
	if timeout <= 0 {
		timeout = DefaultNotificationTimeout
	}
	return &NotificationHandler{
		orderRepo: orderRepo,
		notifier:  notifier,
		branding:  branding,
		timeout:   timeout,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		procurement.EventTypePurchaseOrderSubmitted,
		procurement.EventTypePurchaseOrderApproved,
		procurement.EventTypePurchaseOrderRejected,
		procurement.EventTypeConcurLinked,
		procurement.EventTypeDeliveryRecorded,
		procurement.EventTypeVarianceApproved,
		procurement.EventTypePurchaseOrderCompleted,
		procurement.EventTypeStatusOverridden,
	}
}

// Handle schedules the notification for an event and returns immediately
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	orderEvent, ok := event.(procurement.OrderEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	workflow, data := workflowFor(orderEvent)
	if workflow == "" {
		return nil
	}

	// The request context is cancelled once the response is written.
	dispatchCtx := context.WithoutCancel(ctx)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("notification dispatch panicked",
					zap.String("event_id", event.EventID().String()),
					zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(dispatchCtx, h.timeout)
		defer cancel()
		h.dispatch(ctx, orderEvent, workflow, data)
	}()
	return nil
}

// Wait blocks until all scheduled notifications have finished
func (h *NotificationHandler) Wait() {
	h.wg.Wait()
}

func (h *NotificationHandler) dispatch(ctx context.Context, event procurement.OrderEvent, workflow WorkflowType, data map[string]any) {
	change := event.Change()
	order, err := h.orderRepo.FindByID(ctx, change.OrderID)
	if err != nil {
		h.logger.Warn("notification skipped, order could not be loaded",
			zap.String("order_id", change.OrderID.String()),
			zap.String("workflow", string(workflow)),
			zap.Error(err))
		return
	}

	if err := h.notifier.Trigger(ctx, order, workflow, h.branding, data); err != nil {
		h.logger.Warn("notification dispatch failed",
			zap.String("order_id", order.ID.String()),
			zap.String("display_id", order.DisplayID),
			zap.String("workflow", string(workflow)),
			zap.Error(err))
		return
	}

	h.logger.Debug("notification dispatched",
		zap.String("order_id", order.ID.String()),
		zap.String("workflow", string(workflow)))
}

// workflowFor maps an event to its workflow and the extra template data
func workflowFor(event procurement.OrderEvent) (WorkflowType, map[string]any) {
	change := event.Change()
	data := map[string]any{
		"actor_name":  change.ActorName,
		"from_status": string(change.FromStatus),
		"to_status":   string(change.ToStatus),
	}

	switch e := event.(type) {
	case *procurement.PurchaseOrderSubmittedEvent:
		data["total_amount"] = e.TotalAmount.StringFixed(2)
		data["line_count"] = e.LineCount
		return WorkflowSubmitted, data
	case *procurement.PurchaseOrderApprovedEvent:
		data["comments"] = e.Comments
		return WorkflowApproved, data
	case *procurement.PurchaseOrderRejectedEvent:
		data["comments"] = e.Comments
		return WorkflowRejected, data
	case *procurement.ConcurLinkedEvent:
		data["concur_po_number"] = e.ConcurPONumber
		data["line_count"] = len(e.LineIDs)
		return WorkflowConcurLinked, data
	case *procurement.DeliveryRecordedEvent:
		data["docket_number"] = e.DocketNumber
		data["closed_lines"] = len(e.ClosedLineIDs)
		if e.HasVariance() {
			data["variances"] = e.Variances
			return WorkflowVariancePending, data
		}
		return WorkflowDeliveryRecord, data
	case *procurement.VarianceApprovedEvent:
		data["comments"] = e.Comments
		return WorkflowApproved, data
	case *procurement.PurchaseOrderCompletedEvent:
		return WorkflowCompleted, data
	case *procurement.StatusOverriddenEvent:
		data["reason"] = e.Reason
		data["synthetic_delivery"] = e.SyntheticDelivery
		return WorkflowStatusOverride, data
	default:
		return "", nil
	}
}
