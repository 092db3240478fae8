package dynamostore

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/pkg/metrics"
)

type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
}

// NewBreaker builds the circuit breaker guarding PutItem. It opens after
// MaxFailures consecutive write failures and lets a single probe through
// once OpenTimeout has passed.
func NewBreaker(cfg BreakerConfig, m *metrics.Collector, log *zap.Logger) *gobreaker.CircuitBreaker[*dynamodb.PutItemOutput] {
	return gobreaker.NewCircuitBreaker[*dynamodb.PutItemOutput](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// Cancellation does not count as a table failure.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.BreakerState.Set(float64(to))
			log.Warn("store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}
