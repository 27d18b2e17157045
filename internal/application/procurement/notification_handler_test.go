package procurement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type triggeredNotification struct {
	workflow WorkflowType
	branding Branding
	data     map[string]any
	ctxErr   error
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []triggeredNotification
	err   error
}

func (n *recordingNotifier) Trigger(ctx context.Context, _ *procurement.PurchaseOrder, workflow WorkflowType, branding Branding, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, triggeredNotification{workflow: workflow, branding: branding, data: data, ctxErr: ctx.Err()})
	return n.err
}

func (n *recordingNotifier) triggered() []triggeredNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]triggeredNotification(nil), n.calls...)
}

func TestNotificationHandler_Handle(t *testing.T) {
	branding := Branding{CompanyName: "Acme Pty Ltd", PrimaryColor: "#1f6feb"}

	t.Run("maps events to workflows", func(t *testing.T) {
		orderRepo := new(MockPurchaseOrderRepository)
		notifier := &recordingNotifier{}
		handler := NewNotificationHandler(orderRepo, notifier, branding, time.Second, zap.NewNop())

		order := newActiveOrder(t, newCatalogItem(t, "WID-1", "10"))
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		rec, err := order.RecordDelivery(requester, procurement.DeliverySubmission{
			Date:         time.Now(),
			DocketNumber: "DN-15",
			Lines:        []procurement.ReceiptInput{{LineID: order.Lines[0].ID, Quantity: 15}},
		})
		require.NoError(t, err)
		require.True(t, rec.HasVariance())

		for _, event := range order.GetDomainEvents() {
			require.NoError(t, handler.Handle(context.Background(), event))
		}
		handler.Wait()

		calls := notifier.triggered()
		require.Len(t, calls, 1)
		assert.Equal(t, WorkflowVariancePending, calls[0].workflow)
		assert.Equal(t, "Acme Pty Ltd", calls[0].branding.CompanyName)
		assert.Equal(t, "VARIANCE_PENDING", calls[0].data["to_status"])
	})

	t.Run("dispatch outlives the request context", func(t *testing.T) {
		orderRepo := new(MockPurchaseOrderRepository)
		notifier := &recordingNotifier{}
		handler := NewNotificationHandler(orderRepo, notifier, branding, time.Second, zap.NewNop())

		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		require.NoError(t, order.Approve(approver, "fine"))

		ctx, cancel := context.WithCancel(context.Background())
		for _, event := range order.GetDomainEvents() {
			require.NoError(t, handler.Handle(ctx, event))
		}
		cancel()
		handler.Wait()

		calls := notifier.triggered()
		require.Len(t, calls, 1)
		assert.Equal(t, WorkflowApproved, calls[0].workflow)
		assert.Equal(t, "fine", calls[0].data["comments"])
		assert.NoError(t, calls[0].ctxErr)
	})

	t.Run("notifier failure is swallowed", func(t *testing.T) {
		orderRepo := new(MockPurchaseOrderRepository)
		notifier := &recordingNotifier{err: errors.New("webhook down")}
		handler := NewNotificationHandler(orderRepo, notifier, branding, time.Second, zap.NewNop())

		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		require.NoError(t, order.Reject(approver, "no budget"))

		for _, event := range order.GetDomainEvents() {
			assert.NoError(t, handler.Handle(context.Background(), event))
		}
		handler.Wait()

		assert.Len(t, notifier.triggered(), 1)
	})

	t.Run("missing order skips dispatch", func(t *testing.T) {
		orderRepo := new(MockPurchaseOrderRepository)
		notifier := &recordingNotifier{}
		handler := NewNotificationHandler(orderRepo, notifier, branding, time.Second, zap.NewNop())

		order := newPendingOrder(t, newCatalogItem(t, "WID-1", "10"))
		orderRepo.On("FindByID", mock.Anything, order.ID).Return(nil, shared.ErrNotFound)
		require.NoError(t, order.Approve(approver, ""))

		for _, event := range order.GetDomainEvents() {
			require.NoError(t, handler.Handle(context.Background(), event))
		}
		handler.Wait()

		assert.Empty(t, notifier.triggered())
	})

	t.Run("rejects foreign events", func(t *testing.T) {
		handler := NewNotificationHandler(new(MockPurchaseOrderRepository), &recordingNotifier{}, branding, 0, zap.NewNop())
		base := shared.NewBaseDomainEvent("Other", "Other", uuid.New())

		err := handler.Handle(context.Background(), &base)
		assert.Error(t, err)
	})
}
