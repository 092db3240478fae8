package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/pkg/metrics"
)

type OrderPersister struct {
	repo    domain.Repository
	metrics *metrics.Collector
	log     *zap.Logger
	now     func() time.Time
}

type PersisterOption func(*OrderPersister)

// WithClock overrides the clock used for defaulted timestamps.
func WithClock(now func() time.Time) PersisterOption {
	return func(p *OrderPersister) {
		p.now = now
	}
}

func NewOrderPersister(repo domain.Repository, m *metrics.Collector, log *zap.Logger, opts ...PersisterOption) *OrderPersister {
	p := &OrderPersister{
		repo:    repo,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Persist validates order and upserts it, stamping the current time if the
// producer did not supply a timestamp.
func (p *OrderPersister) Persist(ctx context.Context, order domain.Order) error {
	return p.PersistAt(ctx, order, time.Time{})
}

// PersistAt is Persist with an explicit instant for the default timestamp.
// A zero fallback means the current time.
func (p *OrderPersister) PersistAt(ctx context.Context, order domain.Order, fallback time.Time) error {
	if err := validateOrder(order); err != nil {
		return err
	}
	id := order.ID()

	if !order.HasTimestamp() {
		source := "sent"
		if fallback.IsZero() {
			fallback = p.now()
			source = "now"
		}
		order = order.WithTimestamp(fallback)
		p.metrics.TimestampsDefaulted.WithLabelValues(source).Inc()
	}

	start := time.Now()
	err := p.repo.Put(ctx, id, order)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	p.metrics.StoreWriteDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err != nil {
		p.log.Error("failed to store order",
			zap.String("order_id", id),
			zap.Error(err),
		)
		return &domain.StorageError{OrderID: id, Err: err}
	}

	p.log.Info("order saved",
		zap.String("order_id", id),
		zap.String("timestamp", order.Timestamp()),
	)
	return nil
}

func validateOrder(order domain.Order) error {
	raw, ok := order[domain.FieldOrderID]
	switch {
	case !ok || raw == nil:
		return &domain.ValidationError{Fields: []string{"orderId is required"}}
	case order.ID() == "":
		if _, isString := raw.(string); !isString {
			return &domain.ValidationError{Fields: []string{"orderId must be a string"}}
		}
		return &domain.ValidationError{Fields: []string{"orderId must not be empty"}}
	}
	return nil
}
