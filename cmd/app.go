package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/config"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/envelope"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/handler"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/service"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/storage/dynamostore"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/storage/memory"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/pkg/tracer"
)

// app holds everything built once per process. Lambda reuses it across warm
// invocations.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	tp       *sdktrace.TracerProvider
	registry *prometheus.Registry
	metrics  *metrics.Collector

	repo    domain.Repository
	dynamo  *dynamostore.Store
	memory  *memory.Store
	handler *handler.SQSHandler
}

type appOptions struct {
	configPath string
	// dryRun keeps orders in memory instead of writing to DynamoDB.
	dryRun bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return nil, err
	}

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("initialising tracing: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.NewCollector(registry, cfg.Metrics.Namespace)

	a := &app{
		cfg:      cfg,
		log:      log,
		tp:       tp,
		registry: registry,
		metrics:  m,
	}

	if opts.dryRun {
		a.memory = memory.New()
		a.repo = a.memory
		log.Info("dry run: orders are kept in memory")
	} else {
		store, err := newDynamoStore(ctx, cfg, m, log)
		if err != nil {
			return nil, err
		}
		a.dynamo = store
		a.repo = store
	}

	persister := service.NewOrderPersister(a.repo, m, log)
	processor := service.NewBatchProcessor(
		envelope.New(cfg.Envelope.Field),
		persister,
		service.TimestampSource(cfg.Envelope.TimestampSource),
		m,
		log,
	)
	a.handler = handler.NewSQSHandler(processor, tp.ForceFlush, log)

	return a, nil
}

func newDynamoStore(ctx context.Context, cfg *config.Config, m *metrics.Collector, log *zap.Logger) (*dynamostore.Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.DynamoDB.Region),
		awsconfig.WithRetryMaxAttempts(cfg.DynamoDB.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDB.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
		}
	})

	var opts []dynamostore.Option
	if cfg.Breaker.Enabled {
		opts = append(opts, dynamostore.WithBreaker(dynamostore.NewBreaker(dynamostore.BreakerConfig{
			Name:        cfg.DynamoDB.Table,
			MaxFailures: cfg.Breaker.MaxFailures,
			OpenTimeout: cfg.Breaker.OpenTimeout,
		}, m, log)))
	}

	log.Info("dynamodb store ready",
		zap.String("table", cfg.DynamoDB.Table),
		zap.String("region", cfg.DynamoDB.Region),
		zap.Bool("breaker", cfg.Breaker.Enabled),
	)
	return dynamostore.New(client, cfg.DynamoDB.Table, log, opts...), nil
}

func (a *app) close(ctx context.Context) {
	if err := a.tp.Shutdown(ctx); err != nil {
		a.log.Warn("shutting down tracer provider", zap.Error(err))
	}
	_ = a.log.Sync()
}
