// Package record defines the in-memory snapshot of a structured business
// record: its identity, owning kind and namespace, and field values.
// The engine treats field values as opaque key/value data; only individual
// handlers inspect specific keys.
package record

import (
	"strconv"
	"time"
)

// Values maps field names to field values. Supported value types are
// string, numbers, bool, and reference-to-record IDs (stored as strings).
type Values map[string]interface{}

// Record is a snapshot of a single business record. A record with an empty
// ID has not been persisted yet; CreatedBy and CreatedAt are immutable once
// it has been.
type Record struct {
	ID        string
	Kind      string
	Namespace string
	Values    Values
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an unpersisted record of the given kind and namespace
func New(kind, namespace string) *Record {
	return &Record{
		Kind:      kind,
		Namespace: namespace,
		Values:    make(Values),
	}
}

// IsNew reports whether the record has been persisted yet
func (r *Record) IsNew() bool {
	return r.ID == ""
}

// Set assigns a field value and returns the record for chaining
func (r *Record) Set(field string, value interface{}) *Record {
	if r.Values == nil {
		r.Values = make(Values)
	}
	r.Values[field] = value
	return r
}

// String returns the field value rendered as a string, or "" when the
// field is absent or nil
func (r *Record) String(field string) string {
	if r.Values == nil {
		return ""
	}
	switch v := r.Values[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Int returns the field value as an integer. The second return reports
// whether the value was present and numeric; counters stored as strings
// by an earlier writer still parse.
func (r *Record) Int(field string) (int, bool) {
	if r.Values == nil {
		return 0, false
	}
	switch v := r.Values[field].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Bool returns the field value as a bool, false when absent or not a bool
func (r *Record) Bool(field string) bool {
	if r.Values == nil {
		return false
	}
	v, _ := r.Values[field].(bool)
	return v
}

// Has reports whether the field carries a non-nil value
func (r *Record) Has(field string) bool {
	if r.Values == nil {
		return false
	}
	v, ok := r.Values[field]
	return ok && v != nil
}

// Clone returns a deep copy of the record. Stores hand out clones so that
// handler mutations never alias persisted state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Values = make(Values, len(r.Values))
	for k, v := range r.Values {
		clone.Values[k] = v
	}
	return &clone
}
