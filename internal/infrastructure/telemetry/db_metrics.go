package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig configures query and connection pool metrics
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration // default 200ms
	PoolStatsInterval  time.Duration // default 15s
}

// DBMetrics records query counts, durations and pool usage for one database
type DBMetrics struct {
	config DBMetricsConfig
	logger *zap.Logger

	poolConnections *Gauge // db_pool_connections{state}
	poolWaitCount   *Gauge // db_pool_wait_count
	queryTotal      *Counter
	queryDuration   *Histogram
	slowQueryTotal  *Counter

	sqlDB    *sql.DB
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewDBMetrics creates the instruments on meter
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	m := &DBMetrics{
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	var err error
	if m.poolConnections, err = NewGauge(meter, "db_pool_connections",
		"Connections in the pool by state", "{connections}"); err != nil {
		return nil, err
	}
	if m.poolWaitCount, err = NewGauge(meter, "db_pool_wait_count",
		"Total number of connections waited for", "{waits}"); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter, "db_query_total",
		"Total number of database queries", "{queries}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query duration",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total",
		"Total number of queries slower than the threshold", "{queries}"); err != nil {
		return nil, err
	}
	return m, nil
}

// SetSQLDB sets the pool read by the stats collector
func (m *DBMetrics) SetSQLDB(sqlDB *sql.DB) {
	m.sqlDB = sqlDB
}

// StartPoolStatsCollection samples pool stats until ctx is done or Stop is called
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	if m.sqlDB == nil {
		m.logger.Warn("No sql.DB set, pool stats collection not started")
		return
	}

	go func() {
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.collectPoolStats(ctx)
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	if m.sqlDB == nil {
		return
	}
	stats := m.sqlDB.Stats()
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.MaxOpenConnections), AttrDBState.String("max"))
	m.poolWaitCount.Record(ctx, stats.WaitCount)
}

// Stop ends pool stats collection. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// RecordQuery records one finished query. Not-found lookups are not errors.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	if table == "" {
		table = "unknown"
	}
	status := "ok"
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		status = "error"
	}

	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation), AttrDBTable.String(table), AttrDBState.String(status))
	m.queryDuration.RecordDuration(ctx, duration, AttrDBOperation.String(operation), AttrDBTable.String(table))

	if duration > m.config.SlowQueryThreshold {
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
		m.logger.Warn("Slow query",
			zap.String("operation", operation),
			zap.String("table", table),
			zap.Duration("duration", duration),
		)
	}
}

// DBMetricsPlugin is a GORM plugin feeding DBMetrics from query callbacks
type DBMetricsPlugin struct {
	metrics *DBMetrics
	logger  *zap.Logger
}

// NewDBMetricsPlugin wraps metrics as a GORM plugin
func NewDBMetricsPlugin(metrics *DBMetrics, logger *zap.Logger) *DBMetricsPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBMetricsPlugin{metrics: metrics, logger: logger}
}

// Name implements gorm.Plugin
func (p *DBMetricsPlugin) Name() string {
	return "db_metrics"
}

// Initialize implements gorm.Plugin
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []error{
		cb.Create().Before("gorm:create").Register("db_metrics:before_create", markQueryStart),
		cb.Query().Before("gorm:query").Register("db_metrics:before_query", markQueryStart),
		cb.Update().Before("gorm:update").Register("db_metrics:before_update", markQueryStart),
		cb.Delete().Before("gorm:delete").Register("db_metrics:before_delete", markQueryStart),
		cb.Row().Before("gorm:row").Register("db_metrics:before_row", markQueryStart),
		cb.Raw().Before("gorm:raw").Register("db_metrics:before_raw", markQueryStart),
		cb.Create().After("gorm:create").Register("db_metrics:after_create", p.record("INSERT")),
		cb.Query().After("gorm:query").Register("db_metrics:after_query", p.record("SELECT")),
		cb.Update().After("gorm:update").Register("db_metrics:after_update", p.record("UPDATE")),
		cb.Delete().After("gorm:delete").Register("db_metrics:after_delete", p.record("DELETE")),
		cb.Row().After("gorm:row").Register("db_metrics:after_row", p.record("")),
		cb.Raw().After("gorm:raw").Register("db_metrics:after_raw", p.record("")),
	}
	if err := errors.Join(registrations...); err != nil {
		return err
	}
	p.logger.Info("Database metrics plugin initialized")
	return nil
}

// record returns an after-callback. An empty operation is read from the SQL.
func (p *DBMetricsPlugin) record(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		var duration time.Duration
		if start, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
			duration = time.Since(start)
		}
		op := operation
		if op == "" {
			op = detectOperationType(db.Statement.SQL.String())
		}
		p.metrics.RecordQuery(ctx, op, db.Statement.Table, duration, db.Error)
	}
}

func detectOperationType(query string) string {
	query = strings.ToUpper(strings.TrimSpace(query))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(query, op) {
			return op
		}
	}
	return "OTHER"
}

// RegisterDBMetrics installs the metrics plugin on db and starts pool stats
// collection. It returns nil metrics when disabled; call Stop on shutdown.
func RegisterDBMetrics(ctx context.Context, db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled || mp == nil || !mp.IsEnabled() {
		logger.Debug("Database metrics disabled, skipping registration")
		return nil, nil
	}

	metrics, err := NewDBMetrics(mp.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	metrics.SetSQLDB(sqlDB)

	if err := db.Use(NewDBMetricsPlugin(metrics, logger)); err != nil {
		return nil, err
	}
	metrics.StartPoolStatsCollection(ctx)

	logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", metrics.config.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", metrics.config.PoolStatsInterval),
	)
	return metrics, nil
}
