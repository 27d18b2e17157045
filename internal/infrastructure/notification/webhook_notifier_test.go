package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	appprocurement "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingLogWriter struct {
	mu      sync.Mutex
	entries []*models.NotificationLogModel
	err     error
}

func (w *recordingLogWriter) Create(_ context.Context, entry *models.NotificationLogModel) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
	return w.err
}

func newTestOrder(t *testing.T) *procurement.PurchaseOrder {
	t.Helper()
	order, err := procurement.NewPurchaseOrder("PO-2026-00001",
		procurement.Actor{ID: uuid.New(), Name: "Riley Requester"},
		procurement.OrderHeader{Site: "Brisbane", SupplierName: "Acme Supplies"})
	require.NoError(t, err)
	return order
}

var testBranding = appprocurement.Branding{CompanyName: "Northwind", SupportEmail: "help@northwind.test"}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Northwind: PO-2026-00001 Delivery Recorded",
		Subject("Northwind", "PO-2026-00001", appprocurement.WorkflowDeliveryRecord))
	assert.Equal(t, "PO-2026-00001 Status Overridden",
		Subject(" ", "PO-2026-00001", appprocurement.WorkflowStatusOverride))
}

func TestWebhookNotifier_Trigger(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	t.Run("posts payload and records SENT", func(t *testing.T) {
		var received Payload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &received))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		logs := &recordingLogWriter{}
		notifier := NewWebhookNotifier(config.NotificationConfig{Enabled: true, WebhookURL: server.URL}, logs, zap.NewNop(),
			WithHTTPClient(server.Client()))
		notifier.now = func() time.Time { return fixed }
		order := newTestOrder(t)

		err := notifier.Trigger(ctx, order, appprocurement.WorkflowApproved, testBranding, map[string]any{"comments": "ok"})

		require.NoError(t, err)
		assert.Equal(t, "PO_APPROVED", received.Workflow)
		assert.Equal(t, "Northwind: PO-2026-00001 Approved", received.Subject)
		assert.Equal(t, order.ID, received.Order.ID)
		assert.Equal(t, "Draft", received.Order.StatusLabel)
		assert.Equal(t, "0.00", received.Order.TotalAmount)
		assert.Equal(t, "help@northwind.test", received.Branding.SupportEmail)
		assert.Equal(t, "ok", received.Data["comments"])
		assert.True(t, fixed.Equal(received.SentAt))

		require.Len(t, logs.entries, 1)
		entry := logs.entries[0]
		assert.Equal(t, models.NotificationStatusSent, entry.Status)
		assert.Equal(t, received.ID, entry.ID)
		assert.Equal(t, "PO-2026-00001", entry.DisplayID)
		assert.Contains(t, string(entry.Payload), `"workflow":"PO_APPROVED"`)
	})

	t.Run("non 2xx records FAILED", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		defer server.Close()

		logs := &recordingLogWriter{}
		notifier := NewWebhookNotifier(config.NotificationConfig{Enabled: true, WebhookURL: server.URL}, logs, zap.NewNop(),
			WithHTTPClient(server.Client()))

		err := notifier.Trigger(ctx, newTestOrder(t), appprocurement.WorkflowRejected, testBranding, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 502")
		require.Len(t, logs.entries, 1)
		assert.Equal(t, models.NotificationStatusFailed, logs.entries[0].Status)
		assert.Contains(t, logs.entries[0].Error, "upstream down")
	})

	t.Run("unreachable webhook records FAILED", func(t *testing.T) {
		logs := &recordingLogWriter{}
		notifier := NewWebhookNotifier(config.NotificationConfig{
			Enabled: true, WebhookURL: "http://127.0.0.1:1/hook", Timeout: time.Second,
		}, logs, zap.NewNop())

		err := notifier.Trigger(ctx, newTestOrder(t), appprocurement.WorkflowCompleted, testBranding, nil)

		assert.ErrorContains(t, err, "webhook unreachable")
		assert.Equal(t, models.NotificationStatusFailed, logs.entries[0].Status)
	})

	t.Run("disabled records SKIPPED", func(t *testing.T) {
		logs := &recordingLogWriter{}
		notifier := NewWebhookNotifier(config.NotificationConfig{Enabled: false, WebhookURL: "http://example.invalid"}, logs, zap.NewNop())

		require.NoError(t, notifier.Trigger(ctx, newTestOrder(t), appprocurement.WorkflowSubmitted, testBranding, nil))
		assert.Equal(t, models.NotificationStatusSkipped, logs.entries[0].Status)
	})

	t.Run("log write failure does not fail dispatch", func(t *testing.T) {
		logs := &recordingLogWriter{err: errors.New("db down")}
		notifier := NewWebhookNotifier(config.NotificationConfig{}, logs, zap.NewNop())

		assert.NoError(t, notifier.Trigger(ctx, newTestOrder(t), appprocurement.WorkflowSubmitted, testBranding, nil))
	})

	t.Run("nil log writer", func(t *testing.T) {
		notifier := NewWebhookNotifier(config.NotificationConfig{}, nil, zap.NewNop())
		assert.NoError(t, notifier.Trigger(ctx, newTestOrder(t), appprocurement.WorkflowSubmitted, testBranding, nil))
	})
}
