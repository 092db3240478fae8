package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrder_Accessors(t *testing.T) {
	o := Order{"orderId": "A", "timestamp": "2024-01-01T00:00:00Z"}
	assert.Equal(t, "A", o.ID())
	assert.True(t, o.HasTimestamp())
	assert.Equal(t, "2024-01-01T00:00:00Z", o.Timestamp())

	assert.Equal(t, "", Order{"orderId": 7}.ID())
	assert.False(t, Order{}.HasTimestamp())
	assert.False(t, Order{"timestamp": nil}.HasTimestamp())
	assert.True(t, Order{"timestamp": json.Number("0")}.HasTimestamp())
}

func TestOrder_WithTimestampDoesNotMutate(t *testing.T) {
	o := Order{"orderId": "A"}
	at := time.Date(2024, 3, 1, 12, 30, 0, 500, time.FixedZone("CET", 3600))

	stamped := o.WithTimestamp(at)

	assert.NotContains(t, o, FieldTimestamp)
	assert.Equal(t, "2024-03-01T11:30:00.0000005Z", stamped.Timestamp())
	assert.Equal(t, "A", stamped.ID())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: fmt.Errorf("%w: bad", ErrMalformedEnvelope), want: ClassMalformedEnvelope},
		{err: fmt.Errorf("message 0: %w", &ValidationError{Fields: []string{"orderId is required"}}), want: ClassValidation},
		{err: fmt.Errorf("message 1: %w", &StorageError{OrderID: "A", Err: errors.New("throttled")}), want: ClassStorage},
		{err: errors.New("boom"), want: ClassUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err))
	}
}

func TestStorageError_Unwrap(t *testing.T) {
	cause := errors.New("throttled")
	err := &StorageError{OrderID: "A", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storing order A: throttled", err.Error())
}
