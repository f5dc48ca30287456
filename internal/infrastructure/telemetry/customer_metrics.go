package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const defaultCollectInterval = time.Minute

// CustomerCounter reports how many customers are stored.
type CustomerCounter interface {
	Count(ctx context.Context) (int64, error)
}

// CustomerMetricsConfig holds configuration for CustomerMetrics.
type CustomerMetricsConfig struct {
	Meter   metric.Meter
	Logger  *zap.Logger
	Backend string
}

// CustomerMetrics records customer lifecycle and credit activity.
type CustomerMetrics struct {
	logger  *zap.Logger
	backend string

	createdTotal     *Counter
	deletedTotal     *Counter
	creditAddedTotal *FloatCounter
	errorsTotal      *Counter
	customerCount    *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// NewCustomerMetrics creates the customer instruments on cfg.Meter.
func NewCustomerMetrics(cfg CustomerMetricsConfig) (*CustomerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &CustomerMetrics{
		logger:   logger,
		backend:  cfg.Backend,
		stopChan: make(chan struct{}),
	}

	var err error
	if cm.createdTotal, err = NewCounter(cfg.Meter, "motoshop_customer_created_total",
		"Total number of customers created", "{customers}"); err != nil {
		return nil, err
	}
	if cm.deletedTotal, err = NewCounter(cfg.Meter, "motoshop_customer_deleted_total",
		"Total number of customers deleted", "{customers}"); err != nil {
		return nil, err
	}
	if cm.creditAddedTotal, err = NewFloatCounter(cfg.Meter, "motoshop_credit_added_total",
		"Total store credit added to customers", "{credit}"); err != nil {
		return nil, err
	}
	if cm.errorsTotal, err = NewCounter(cfg.Meter, "motoshop_customer_operation_errors_total",
		"Customer operations that failed, by error code", "{errors}"); err != nil {
		return nil, err
	}
	if cm.customerCount, err = NewGauge(cfg.Meter, "motoshop_customer_count",
		"Number of stored customers", "{customers}"); err != nil {
		return nil, err
	}

	return cm, nil
}

// RecordCustomerCreated counts a created customer.
func (cm *CustomerMetrics) RecordCustomerCreated(ctx context.Context) {
	cm.createdTotal.Inc(ctx, AttrBackend.String(cm.backend))
}

// RecordCustomerDeleted counts a deleted customer.
func (cm *CustomerMetrics) RecordCustomerDeleted(ctx context.Context) {
	cm.deletedTotal.Inc(ctx, AttrBackend.String(cm.backend))
}

// RecordCreditAdded adds amount to the credit total.
func (cm *CustomerMetrics) RecordCreditAdded(ctx context.Context, amount decimal.Decimal) {
	cm.creditAddedTotal.Add(ctx, amount.InexactFloat64(), AttrBackend.String(cm.backend))
}

// RecordOperationError counts a failed operation.
func (cm *CustomerMetrics) RecordOperationError(ctx context.Context, operation, code string) {
	cm.errorsTotal.Inc(ctx,
		AttrOperation.String(operation),
		AttrErrorCode.String(code),
	)
}

// RecordCustomerCount sets the stored customer gauge.
func (cm *CustomerMetrics) RecordCustomerCount(ctx context.Context, count int64) {
	cm.customerCount.Record(ctx, count, AttrBackend.String(cm.backend))
}

// StartPeriodicCollection samples counter every interval until Stop is called
// or ctx is done. Only the first call starts a collector.
func (cm *CustomerMetrics) StartPeriodicCollection(ctx context.Context, counter CustomerCounter, interval time.Duration) {
	cm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = defaultCollectInterval
		}
		go cm.runPeriodicCollection(ctx, counter, interval)
	})
}

func (cm *CustomerMetrics) runPeriodicCollection(ctx context.Context, counter CustomerCounter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cm.collect(ctx, counter)
	for {
		select {
		case <-cm.stopChan:
			cm.logger.Info("Stopping customer metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			cm.collect(ctx, counter)
		}
	}
}

func (cm *CustomerMetrics) collect(ctx context.Context, counter CustomerCounter) {
	if counter == nil {
		return
	}
	count, err := counter.Count(ctx)
	if err != nil {
		cm.logger.Warn("Failed to count customers", zap.Error(err))
		return
	}
	cm.RecordCustomerCount(ctx, count)
}

// Stop ends periodic collection. It is safe to call more than once.
func (cm *CustomerMetrics) Stop() {
	cm.stopOnce.Do(func() {
		close(cm.stopChan)
	})
}

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = &MetricsError{Op: "NewCustomerMetrics", Err: "meter cannot be nil"}

// MetricsError describes a failure setting up metrics.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
