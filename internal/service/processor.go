package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/envelope"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/pkg/metrics"
)

const tracerName = "github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/service"

// Message is one queue record. SentAt is when the queue first accepted the
// message; it does not change across redeliveries.
type Message struct {
	ID     string
	Body   string
	SentAt time.Time
}

type TimestampSource string

const (
	// TimestampSent defaults missing timestamps to Message.SentAt so that
	// redelivered batches rewrite the same value.
	TimestampSent TimestampSource = "sent"
	// TimestampNow defaults missing timestamps to the time of the write.
	TimestampNow TimestampSource = "now"
)

type BatchProcessor struct {
	unwrapper *envelope.Unwrapper
	persister *OrderPersister
	source    TimestampSource
	metrics   *metrics.Collector
	log       *zap.Logger
	tracer    trace.Tracer
}

func NewBatchProcessor(
	unwrapper *envelope.Unwrapper,
	persister *OrderPersister,
	source TimestampSource,
	m *metrics.Collector,
	log *zap.Logger,
) *BatchProcessor {
	return &BatchProcessor{
		unwrapper: unwrapper,
		persister: persister,
		source:    source,
		metrics:   m,
		log:       log,
		tracer:    otel.Tracer(tracerName),
	}
}

// Process handles msgs strictly in order. The first failing message stops the
// batch and its error is returned; later messages are not touched so the
// whole batch is redelivered by the queue.
func (p *BatchProcessor) Process(ctx context.Context, msgs []Message) error {
	ctx, span := p.tracer.Start(ctx, "ProcessBatch", trace.WithAttributes(
		attribute.Int("batch.size", len(msgs)),
	))
	defer span.End()

	p.metrics.BatchSize.Observe(float64(len(msgs)))

	for i, msg := range msgs {
		if err := p.processMessage(ctx, msg); err != nil {
			p.metrics.BatchesTotal.WithLabelValues(metrics.StatusError).Inc()
			if skipped := len(msgs) - i - 1; skipped > 0 {
				p.log.Warn("aborting batch, remaining messages left for redelivery",
					zap.Int("failed_index", i),
					zap.Int("skipped", skipped),
				)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch aborted")
			return fmt.Errorf("message %d (%s): %w", i, msg.ID, err)
		}
	}

	p.metrics.BatchesTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	return nil
}

func (p *BatchProcessor) processMessage(ctx context.Context, msg Message) error {
	ctx, span := p.tracer.Start(ctx, "ProcessMessage", trace.WithAttributes(
		attribute.String("messaging.message.id", msg.ID),
	))
	defer span.End()

	log := p.log.With(zap.String("message_id", msg.ID))
	log.Info("processing message", zap.String("body", msg.Body))

	order, err := p.unwrapper.Unwrap(msg.Body)
	if err != nil {
		p.fail(span, log, err, zap.String("body", msg.Body))
		return err
	}
	span.SetAttributes(attribute.String("order.id", order.ID()))
	log.Debug("order data extracted", zap.Any("order", map[string]any(order)))

	fallback := time.Time{}
	if p.source == TimestampSent {
		fallback = msg.SentAt
	}
	if err := p.persister.PersistAt(ctx, order, fallback); err != nil {
		p.fail(span, log, err,
			zap.String("body", msg.Body),
			zap.String("order_id", order.ID()),
		)
		return err
	}

	p.metrics.MessagesTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	log.Info("successfully processed order", zap.String("order_id", order.ID()))
	return nil
}

func (p *BatchProcessor) fail(span trace.Span, log *zap.Logger, err error, fields ...zap.Field) {
	class := domain.Classify(err)
	p.metrics.MessagesTotal.WithLabelValues(metrics.StatusError).Inc()
	p.metrics.FailuresTotal.WithLabelValues(class).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, class)

	fields = append(fields, zap.String("error_class", class), zap.Error(err))
	log.Error("error processing message", fields...)
}
