package handler

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/service"
)

const (
	completedMessage       = "Order processing completed successfully"
	sentTimestampAttribute = "SentTimestamp"
)

// Response is returned to the Lambda runtime when a whole batch succeeds.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type BatchProcessor interface {
	Process(ctx context.Context, msgs []service.Message) error
}

// Flusher is called once per invocation after the batch, successful or not.
type Flusher func(ctx context.Context) error

type SQSHandler struct {
	processor BatchProcessor
	flush     Flusher
	log       *zap.Logger
}

func NewSQSHandler(processor BatchProcessor, flush Flusher, log *zap.Logger) *SQSHandler {
	return &SQSHandler{
		processor: processor,
		flush:     flush,
		log:       log,
	}
}

// Handle processes one SQS batch. Any error is returned unchanged to the
// runtime so the batch becomes visible again and is redelivered.
func (h *SQSHandler) Handle(ctx context.Context, event events.SQSEvent) (Response, error) {
	log := h.log.With(zap.String("invocation_id", invocationID(ctx)))
	log.Info("received event", zap.Int("records", len(event.Records)))

	msgs := make([]service.Message, 0, len(event.Records))
	for _, record := range event.Records {
		msgs = append(msgs, toMessage(record))
	}

	err := h.processor.Process(ctx, msgs)
	if h.flush != nil {
		if ferr := h.flush(ctx); ferr != nil {
			log.Warn("flushing telemetry", zap.Error(ferr))
		}
	}
	if err != nil {
		log.Error("batch failed", zap.Error(err))
		return Response{}, err
	}

	body, _ := json.Marshal(completedMessage)
	log.Info("batch completed", zap.Int("records", len(msgs)))
	return Response{StatusCode: 200, Body: string(body)}, nil
}

func toMessage(record events.SQSMessage) service.Message {
	return service.Message{
		ID:     record.MessageId,
		Body:   record.Body,
		SentAt: sentTimestamp(record.Attributes),
	}
}

// sentTimestamp parses the SentTimestamp system attribute (epoch millis).
// It returns the zero time if the attribute is missing or invalid.
func sentTimestamp(attrs map[string]string) time.Time {
	raw, ok := attrs[sentTimestampAttribute]
	if !ok || raw == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func invocationID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}
