// Package notification delivers purchase order workflow notifications to an
// external webhook and records every attempt.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appprocurement "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
)

// maxErrorBody caps how much of a failed response is kept in the log
const maxErrorBody = 512

// LogWriter persists dispatch outcomes
type LogWriter interface {
	Create(ctx context.Context, entry *models.NotificationLogModel) error
}

// Payload is the JSON document posted to the webhook
type Payload struct {
	ID       uuid.UUID               `json:"id"`
	Workflow string                  `json:"workflow"`
	Subject  string                  `json:"subject"`
	Order    OrderSummary            `json:"order"`
	Branding appprocurement.Branding `json:"branding"`
	Data     map[string]any          `json:"data,omitempty"`
	SentAt   time.Time               `json:"sent_at"`
}

// OrderSummary is the order snapshot included in a Payload
type OrderSummary struct {
	ID            uuid.UUID `json:"id"`
	DisplayID     string    `json:"display_id"`
	Status        string    `json:"status"`
	StatusLabel   string    `json:"status_label"`
	RequesterID   uuid.UUID `json:"requester_id"`
	RequesterName string    `json:"requester_name"`
	SupplierName  string    `json:"supplier_name"`
	Site          string    `json:"site"`
	TotalAmount   string    `json:"total_amount"`
	LineCount     int       `json:"line_count"`
}

// WebhookNotifier posts workflow notifications as JSON
type WebhookNotifier struct {
	enabled    bool
	webhookURL string
	httpClient *http.Client
	logs       LogWriter
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a WebhookNotifier
type Option func(*WebhookNotifier)

// WithHTTPClient replaces the default traced client
func WithHTTPClient(client *http.Client) Option {
	return func(n *WebhookNotifier) {
		n.httpClient = client
	}
}

// NewWebhookNotifier creates a notifier from the [notification] config section.
// logs may be nil, in which case outcomes are only logged.
func NewWebhookNotifier(cfg config.NotificationConfig, logs LogWriter, logger *zap.Logger, opts ...Option) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = appprocurement.DefaultNotificationTimeout
	}
	n := &WebhookNotifier{
		enabled:    cfg.Enabled,
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logs:   logs,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Trigger builds the payload, posts it when a webhook is configured and
// records the outcome. The returned error reports a failed delivery only.
func (n *WebhookNotifier) Trigger(
	ctx context.Context,
	order *procurement.PurchaseOrder,
	workflow appprocurement.WorkflowType,
	branding appprocurement.Branding,
	data map[string]any,
) error {
	payload := n.buildPayload(order, workflow, branding, data)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notification: failed to encode payload: %w", err)
	}

	entry := &models.NotificationLogModel{
		ID:           payload.ID,
		OrderID:      order.ID,
		DisplayID:    order.DisplayID,
		WorkflowType: string(workflow),
		Payload:      datatypes.JSON(body),
		CreatedAt:    payload.SentAt,
	}

	if !n.enabled || n.webhookURL == "" {
		entry.Status = models.NotificationStatusSkipped
		n.record(ctx, entry)
		return nil
	}

	if err := n.post(ctx, body); err != nil {
		entry.Status = models.NotificationStatusFailed
		entry.Error = err.Error()
		n.record(ctx, entry)
		return err
	}

	entry.Status = models.NotificationStatusSent
	n.record(ctx, entry)
	return nil
}

func (n *WebhookNotifier) buildPayload(
	order *procurement.PurchaseOrder,
	workflow appprocurement.WorkflowType,
	branding appprocurement.Branding,
	data map[string]any,
) Payload {
	return Payload{
		ID:       uuid.New(),
		Workflow: string(workflow),
		Subject:  Subject(branding.CompanyName, order.DisplayID, workflow),
		Order: OrderSummary{
			ID:            order.ID,
			DisplayID:     order.DisplayID,
			Status:        string(order.Status),
			StatusLabel:   order.Status.Label(),
			RequesterID:   order.RequesterID,
			RequesterName: order.RequesterName,
			SupplierName:  order.SupplierName,
			Site:          order.Site,
			TotalAmount:   order.TotalAmount.StringFixed(2),
			LineCount:     len(order.Lines),
		},
		Branding: branding,
		Data:     data,
		SentAt:   n.now().UTC(),
	}
}

// Subject renders e.g. "Acme: PO-2026-00001 Delivery Recorded"
func Subject(company, displayID string, workflow appprocurement.WorkflowType) string {
	words := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(string(workflow), "PO_")), "_", " ")
	subject := displayID + " " + cases.Title(language.English).String(words)
	if company = strings.TrimSpace(company); company != "" {
		return company + ": " + subject
	}
	return subject
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notification: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification: webhook unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("notification: webhook returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (n *WebhookNotifier) record(ctx context.Context, entry *models.NotificationLogModel) {
	n.logger.Debug("notification processed",
		zap.String("order_id", entry.OrderID.String()),
		zap.String("workflow", entry.WorkflowType),
		zap.String("status", string(entry.Status)))

	if n.logs == nil {
		return
	}
	if err := n.logs.Create(context.WithoutCancel(ctx), entry); err != nil {
		n.logger.Warn("failed to record notification",
			zap.String("order_id", entry.OrderID.String()),
			zap.String("workflow", entry.WorkflowType),
			zap.Error(err))
	}
}
