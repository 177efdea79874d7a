// Package realtime delivers row-change events to interested subscribers.
//
// A subscriber registers a Filter (table plus optional column equality) and
// a callback; Subscribe hands back the function that ends the subscription.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type ChangeType string

const (
	Insert ChangeType = "INSERT"
	Update ChangeType = "UPDATE"
	Delete ChangeType = "DELETE"
)

// Change describes one row mutation.
type Change struct {
	Table     string          `json:"table"`
	Type      ChangeType      `json:"type"`
	Record    json.RawMessage `json:"record,omitempty"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
	At        time.Time       `json:"at"`
}

// NewChange marshals record (and old, when non-nil) into a Change.
func NewChange(table string, typ ChangeType, record, old interface{}) (Change, error) {
	c := Change{Table: table, Type: typ, At: time.Now().UTC()}
	if record != nil {
		b, err := json.Marshal(record)
		if err != nil {
			return Change{}, fmt.Errorf("failed to marshal record: %w", err)
		}
		c.Record = b
	}
	if old != nil {
		b, err := json.Marshal(old)
		if err != nil {
			return Change{}, fmt.Errorf("failed to marshal old record: %w", err)
		}
		c.OldRecord = b
	}
	return c, nil
}

// Filter selects changes on Table. When Column is set, only changes whose
// record (or old record, for deletes) has Column equal to Value match.
type Filter struct {
	Table  string
	Column string
	Value  string
}

func (f Filter) Matches(c Change) bool {
	if f.Table != c.Table {
		return false
	}
	if f.Column == "" {
		return true
	}
	rec := c.Record
	if len(rec) == 0 {
		rec = c.OldRecord
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(rec, &fields); err != nil {
		return false
	}
	v, ok := fields[f.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}

type Handler func(Change)

// Unsubscribe stops delivery. It is safe to call more than once.
type Unsubscribe func()

type Feed interface {
	Subscribe(ctx context.Context, filter Filter, handler Handler) (Unsubscribe, error)
	Publish(ctx context.Context, change Change) error
}

// Channel is the broker channel a table's changes travel on.
func Channel(table string) string {
	return "changes:" + table
}
