package domain

import (
	"maps"
	"time"
)

const (
	FieldOrderID   = "orderId"
	FieldTimestamp = "timestamp"
)

// Order is a decoded order notification. Only orderId and timestamp are
// interpreted; every other attribute is carried through to storage as-is.
//
// Values are the JSON value kinds produced by a decoder with UseNumber:
// string, json.Number, bool, nil, map[string]any and []any.
type Order map[string]any

// ID returns the order identifier, or "" if it is missing or not a string.
func (o Order) ID() string {
	id, _ := o[FieldOrderID].(string)
	return id
}

// HasTimestamp reports whether timestamp is present and not null. Its value
// is not otherwise checked.
func (o Order) HasTimestamp() bool {
	return o[FieldTimestamp] != nil
}

func (o Order) Timestamp() string {
	ts, _ := o[FieldTimestamp].(string)
	return ts
}

// WithTimestamp returns a shallow copy of the order with timestamp set to t
// in UTC. The receiver is left untouched.
func (o Order) WithTimestamp(t time.Time) Order {
	out := o.Clone()
	out[FieldTimestamp] = FormatTimestamp(t)
	return out
}

func (o Order) Clone() Order {
	out := make(Order, len(o)+1)
	maps.Copy(out, o)
	return out
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
