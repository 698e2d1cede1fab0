package record

import (
	"encoding/json"
	"time"
)

// Well-known field names.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Record is a single document: a mapping from field name to value.
type Record map[string]any

// Keyed is implemented by anything that carries a stable record identifier.
type Keyed interface {
	RecordID() string
}

// ID returns the record identifier, or "" if absent.
func (r Record) ID() string {
	s, _ := r.String(FieldID)
	return s
}

// RecordID implements Keyed.
func (r Record) RecordID() string {
	return r.ID()
}

// CreatedAt returns the creation timestamp and whether it is present.
func (r Record) CreatedAt() (time.Time, bool) {
	return r.Time(FieldCreatedAt)
}

// Has reports whether field is present with a non-nil value.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// String returns a string field.
func (r Record) String(field string) (string, bool) {
	switch v := r[field].(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	default:
		return "", false
	}
}

// Float returns a numeric field as float64.
func (r Record) Float(field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Bool returns a boolean field.
func (r Record) Bool(field string) (bool, bool) {
	switch v := r[field].(type) {
	case bool:
		return v, true
	case *bool:
		if v == nil {
			return false, false
		}
		return *v, true
	default:
		return false, false
	}
}

// Time returns a timestamp field. Zero times are treated as absent.
func (r Record) Time(field string) (time.Time, bool) {
	var t time.Time
	switch v := r[field].(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		t = *v
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		t = parsed
	default:
		return time.Time{}, false
	}
	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies every field of patch onto a clone of r.
// A nil value in patch removes the field.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Normalize returns a JSON-safe copy of r: times become RFC3339Nano UTC strings.
// Backends that persist records as JSON store the normalized form.
func (r Record) Normalize() Record {
	out := make(Record, len(r))
	for k, v := range r {
		switch tv := v.(type) {
		case time.Time:
			if tv.IsZero() {
				continue
			}
			out[k] = tv.UTC().Format(time.RFC3339Nano)
		case *time.Time:
			if tv == nil || tv.IsZero() {
				continue
			}
			out[k] = tv.UTC().Format(time.RFC3339Nano)
		default:
			out[k] = v
		}
	}
	return out
}

// IDs returns the identifiers of records, in order.
func IDs[T Keyed](records []T) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.RecordID()
	}
	return ids
}
