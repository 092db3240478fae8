package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/envelope"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/service"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/storage/memory"
	"github.com/dmehra2102/prod-golang-projects/order-ingestor/pkg/metrics"
)

type recordingProcessor struct {
	got []service.Message
	err error
}

func (r *recordingProcessor) Process(_ context.Context, msgs []service.Message) error {
	r.got = msgs
	return r.err
}

func sqsEvent(bodies ...string) events.SQSEvent {
	var ev events.SQSEvent
	for i, b := range bodies {
		ev.Records = append(ev.Records, events.SQSMessage{
			MessageId: string(rune('a' + i)),
			Body:      b,
			Attributes: map[string]string{
				"SentTimestamp":           "1717228799000",
				"ApproximateReceiveCount": "1",
			},
		})
	}
	return ev
}

func TestHandle_Success(t *testing.T) {
	proc := &recordingProcessor{}
	flushed := 0
	h := NewSQSHandler(proc, func(context.Context) error { flushed++; return nil }, zap.NewNop())

	resp, err := h.Handle(context.Background(), sqsEvent(`{"orderId":"A"}`, `{"orderId":"B"}`))
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, `"Order processing completed successfully"`, resp.Body)
	assert.Equal(t, 1, flushed)

	require.Len(t, proc.got, 2)
	assert.Equal(t, "a", proc.got[0].ID)
	assert.Equal(t, `{"orderId":"B"}`, proc.got[1].Body)
	assert.Equal(t, time.Date(2024, 6, 1, 7, 59, 59, 0, time.UTC), proc.got[0].SentAt)
}

func TestHandle_PropagatesError(t *testing.T) {
	failure := errors.New("message 1 (b): malformed envelope")
	proc := &recordingProcessor{err: failure}
	flushed := 0
	h := NewSQSHandler(proc, func(context.Context) error { flushed++; return errors.New("collector down") }, zap.NewNop())

	resp, err := h.Handle(context.Background(), sqsEvent(`{}`, `x`))

	require.ErrorIs(t, err, failure)
	assert.Zero(t, resp.StatusCode, "a failed batch must not look like success")
	assert.Equal(t, 1, flushed)
}

func TestHandle_UsesLambdaRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewSQSHandler(&recordingProcessor{}, nil, zap.New(core))

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-123"})
	_, err := h.Handle(ctx, sqsEvent(`{"orderId":"A"}`))
	require.NoError(t, err)

	entries := logs.FilterMessage("received event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["invocation_id"])
}

func TestSentTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]string
		want  time.Time
	}{
		{name: "valid", attrs: map[string]string{"SentTimestamp": "1704067200123"}, want: time.Date(2024, 1, 1, 0, 0, 0, 123_000_000, time.UTC)},
		{name: "missing", attrs: nil},
		{name: "empty", attrs: map[string]string{"SentTimestamp": ""}},
		{name: "garbage", attrs: map[string]string{"SentTimestamp": "soon"}},
		{name: "negative", attrs: map[string]string{"SentTimestamp": "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sentTimestamp(tt.attrs))
		})
	}
}

// A malformed second record stops the batch: the first order is stored, the
// third is never attempted and the error reaches the runtime.
func TestHandle_EndToEndAbort(t *testing.T) {
	store := memory.New()
	m := metrics.NewCollector(nil, "test")
	log := zap.NewNop()
	processor := service.NewBatchProcessor(
		envelope.New(envelope.DefaultField),
		service.NewOrderPersister(store, m, log),
		service.TimestampSent,
		m,
		log,
	)
	h := NewSQSHandler(processor, nil, log)

	_, err := h.Handle(context.Background(), sqsEvent(
		`{"Type":"Notification","Message":"{\"orderId\":\"A\"}"}`,
		`{"Type":"Notification","Message":"not-json"}`,
		`{"orderId":"C"}`,
	))

	require.ErrorIs(t, err, domain.ErrMalformedEnvelope)
	assert.Equal(t, 1, store.Puts())
	_, ok := store.Get(context.Background(), "C")
	assert.False(t, ok)

	a, ok := store.Get(context.Background(), "A")
	require.True(t, ok)
	assert.Equal(t, "2024-06-01T07:59:59Z", a.Timestamp())
}
