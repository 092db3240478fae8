package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/domain"
)

// DefaultField is the key SNS uses for the forwarded payload when a topic
// delivers into SQS without raw message delivery.
const DefaultField = "Message"

// Unwrapper extracts the order from a queue message body. A body that is an
// object containing Field is treated as a wrapped notification whose Field
// value is the JSON-encoded order; any other body is the order itself.
type Unwrapper struct {
	Field string
}

func New(field string) *Unwrapper {
	if field == "" {
		field = DefaultField
	}
	return &Unwrapper{Field: field}
}

// Unwrap decodes raw using the default wrapping field.
func Unwrap(raw string) (domain.Order, error) {
	return New(DefaultField).Unwrap(raw)
}

func (u *Unwrapper) Unwrap(raw string) (domain.Order, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: body: %v", domain.ErrMalformedEnvelope, err)
	}

	if obj, ok := v.(map[string]any); ok {
		if wrapped, found := obj[u.Field]; found {
			inner, ok := wrapped.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s field is %T, want JSON string", domain.ErrMalformedEnvelope, u.Field, wrapped)
			}
			if v, err = decode(inner); err != nil {
				return nil, fmt.Errorf("%w: %s field: %v", domain.ErrMalformedEnvelope, u.Field, err)
			}
		}
	}

	order, ok := v.(map[string]any)
	if !ok {
		return nil, &domain.ValidationError{Fields: []string{fmt.Sprintf("order payload must be a JSON object, got %s", kind(v))}}
	}
	return domain.Order(order), nil
}

func decode(s string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func kind(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
