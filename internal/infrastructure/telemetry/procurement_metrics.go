package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when an instrument set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// ProcurementMetrics counts purchase order activity
type ProcurementMetrics struct {
	orderCreatedTotal *Counter
	orderAmountTotal  *Counter
	orderValue        *Histogram
	transitionTotal   *Counter
	varianceTotal     *Counter
	varianceQuantity  *Counter
}

// NewProcurementMetrics creates the purchase order instruments on meter
func NewProcurementMetrics(meter metric.Meter) (*ProcurementMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	pm := &ProcurementMetrics{}
	var err error
	if pm.orderCreatedTotal, err = NewCounter(meter, "po_created_total",
		"Total number of purchase orders raised", "{orders}"); err != nil {
		return nil, err
	}
	if pm.orderAmountTotal, err = NewCounter(meter, "po_amount_total",
		"Total value of purchase orders raised, in cents", "{cents}"); err != nil {
		return nil, err
	}
	if pm.orderValue, err = NewHistogram(meter, HistogramOpts{
		Name:        "po_order_value",
		Description: "Value of each purchase order when raised",
		Unit:        "{dollars}",
		Boundaries:  OrderValueBuckets,
	}); err != nil {
		return nil, err
	}
	if pm.transitionTotal, err = NewCounter(meter, "po_status_transition_total",
		"Total number of purchase order status changes", "{transitions}"); err != nil {
		return nil, err
	}
	if pm.varianceTotal, err = NewCounter(meter, "po_delivery_variance_total",
		"Total number of line variances raised by deliveries", "{variances}"); err != nil {
		return nil, err
	}
	if pm.varianceQuantity, err = NewCounter(meter, "po_delivery_variance_quantity",
		"Units over-received or short-closed", "{units}"); err != nil {
		return nil, err
	}
	return pm, nil
}

// RecordOrderCreated records a new order and its total
func (pm *ProcurementMetrics) RecordOrderCreated(ctx context.Context, site, status string, total decimal.Decimal) {
	attrs := []attribute.KeyValue{AttrSite.String(site), AttrOrderStatus.String(status)}
	pm.orderCreatedTotal.Inc(ctx, attrs...)
	pm.orderAmountTotal.Add(ctx, total.Shift(2).Round(0).IntPart(), attrs...)
	pm.orderValue.Record(ctx, total.InexactFloat64(), AttrSite.String(site))
}

// RecordTransition records a status change. Unchanged statuses are ignored.
func (pm *ProcurementMetrics) RecordTransition(ctx context.Context, from, to string) {
	if from == to {
		return
	}
	pm.transitionTotal.Inc(ctx, AttrFromStatus.String(from), AttrToStatus.String(to))
}

// RecordVariance records one line variance of the given kind
func (pm *ProcurementMetrics) RecordVariance(ctx context.Context, kind string, quantity int) {
	pm.varianceTotal.Inc(ctx, AttrVarianceKind.String(kind))
	if quantity > 0 {
		pm.varianceQuantity.Add(ctx, int64(quantity), AttrVarianceKind.String(kind))
	}
}
