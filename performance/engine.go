package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/kendall-kelly/vendor-performance-api/models"
	"github.com/kendall-kelly/vendor-performance-api/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Recompute triggers, used as telemetry labels.
const (
	TriggerCompleted    = "completed"
	TriggerAcknowledged = "acknowledged"
	TriggerUpdated      = "updated"
	TriggerResync       = "resync"
)

// OrderChange describes the purchase order update that caused a recomputation.
type OrderChange struct {
	Status       string
	Acknowledged bool
}

// ChangeFromOrder derives the change descriptor from the order as persisted.
func ChangeFromOrder(po *models.PurchaseOrder) OrderChange {
	return OrderChange{
		Status:       po.Status,
		Acknowledged: po.AcknowledgmentDate != nil,
	}
}

// Completed reports whether the order is completed after the update.
func (c OrderChange) Completed() bool {
	return c.Status == models.StatusCompleted
}

// Plan returns the metrics an update must recompute. Fulfillment rate is
// always included; completion adds on-time and quality, acknowledgment adds
// response time.
func (c OrderChange) Plan() []MetricField {
	fields := make([]MetricField, 0, len(AllFields))
	if c.Completed() {
		fields = append(fields, FieldOnTimeDeliveryRate, FieldQualityRatingAvg)
	}
	if c.Acknowledged {
		fields = append(fields, FieldAverageResponseTime)
	}
	return append(fields, FieldFulfillmentRate)
}

func (c OrderChange) trigger() string {
	switch {
	case c.Completed():
		return TriggerCompleted
	case c.Acknowledged:
		return TriggerAcknowledged
	default:
		return TriggerUpdated
	}
}

// Result reports what a recomputation changed.
type Result struct {
	Vendor     models.Vendor
	Recomputed []MetricField
	Log        *models.PerformanceLog
}

// Engine recomputes vendor metrics against a Store.
type Engine struct {
	store   Store
	clock   Clock
	locker  *VendorLocker
	logger  *zap.Logger
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the evaluation clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLocker overrides the per-vendor lock table.
func WithLocker(l *VendorLocker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithWorkers bounds the fan-out of RecomputeAll.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an engine backed by store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		clock:   SystemClock,
		locker:  DefaultLocker,
		logger:  zap.NewNop(),
		workers: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecomputeVendorMetrics is called after a purchase order update has been
// persisted. It recomputes the metrics selected by change.Plan, saves them on
// the vendor and, when the order is completed, appends a snapshot carrying the
// post-update values. Both writes commit together or not at all.
func (e *Engine) RecomputeVendorMetrics(ctx context.Context, vendorID uint, change OrderChange) (*Result, error) {
	return e.recompute(ctx, vendorID, change.Plan(), change.Completed(), change.trigger())
}

// Resync recomputes all four metrics for a vendor without appending a snapshot.
// Used to repair drift, e.g. after an update whose recomputation failed.
func (e *Engine) Resync(ctx context.Context, vendorID uint) (*Result, error) {
	return e.recompute(ctx, vendorID, AllFields, false, TriggerResync)
}

// RecomputeAll resyncs every vendor, running up to the configured number of
// vendors in parallel. It stops at the first error.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := e.store.ListVendorIDs(ctx)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, id := range ids {
		g.Go(func() error {
			_, err := e.Resync(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (e *Engine) recompute(ctx context.Context, vendorID uint, fields []MetricField, appendLog bool, trigger string) (res *Result, err error) {
	started := time.Now()
	defer func() { telemetry.ObserveRecompute(trigger, started, err) }()

	var orders int

	release := e.locker.Lock(vendorID)
	defer release()

	err = e.store.WithVendorLock(ctx, vendorID, func(tx Store) error {
		vendor, err := tx.LoadVendor(ctx, vendorID)
		if err != nil {
			return err
		}
		history, err := tx.LoadHistory(ctx, vendorID)
		if err != nil {
			return err
		}
		orders = len(history)

		now := e.clock.Now()
		Compute(history, now).ApplyTo(vendor, fields)
		if err := tx.SaveVendorMetrics(ctx, vendorID, MetricsOf(vendor)); err != nil {
			return err
		}

		res = &Result{Vendor: *vendor, Recomputed: fields}
		if appendLog {
			log := Snapshot(vendor, now)
			if err := tx.AppendPerformanceLog(ctx, log); err != nil {
				return err
			}
			res.Log = log
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Vendor metric recomputation failed",
			zap.Uint("vendor_id", vendorID),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		return nil, fmt.Errorf("recompute metrics for vendor %d: %w", vendorID, err)
	}

	if res.Log != nil {
		telemetry.PerformanceLogsAppended.Inc()
	}
	e.logger.Debug("Vendor metrics recomputed",
		zap.Uint("vendor_id", vendorID),
		zap.String("trigger", trigger),
		zap.Int("orders", orders),
		zap.Any("fields", fields),
	)
	return res, nil
}
