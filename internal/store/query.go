package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rshade/planfocus/internal/record"
)

// OrderCreatedAt is the only orderable field.
const OrderCreatedAt = record.FieldCreatedAt

// timeKeyLayout is fixed width so that keys sort lexically in time order.
const timeKeyLayout = "2006-01-02T15:04:05.000000000Z"

var identPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateQuery checks collection and field names, ordering, and limit.
func ValidateQuery(q Query) error {
	if !identPattern.MatchString(q.Collection) {
		return fmt.Errorf("%w: collection %q", ErrInvalidQuery, q.Collection)
	}
	for _, f := range q.Where {
		if !identPattern.MatchString(f.Field) {
			return fmt.Errorf("%w: field %q", ErrInvalidQuery, f.Field)
		}
	}
	if q.OrderBy != "" && q.OrderBy != OrderCreatedAt {
		return fmt.Errorf("%w: cannot order by %q", ErrInvalidQuery, q.OrderBy)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidQuery, q.Limit)
	}
	return nil
}

func validateCollection(collection string) error {
	if !identPattern.MatchString(collection) {
		return fmt.Errorf("%w: collection %q", ErrInvalidQuery, collection)
	}
	return nil
}

func timeKey(t time.Time) string {
	return t.UTC().Format(timeKeyLayout)
}

// cursorKey is the keyset position of a record.
type cursorKey struct {
	CreatedAt string `json:"createdAt,omitempty"`
	ID        string `json:"id"`
}

func keyOf(rec record.Record) cursorKey {
	k := cursorKey{ID: rec.ID()}
	if t, ok := rec.CreatedAt(); ok {
		k.CreatedAt = timeKey(t)
	}
	return k
}

func encodeCursor(k cursorKey) string {
	data, _ := json.Marshal(k)
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(s string) (cursorKey, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cursorKey{}, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	var k cursorKey
	if err := json.Unmarshal(data, &k); err != nil {
		return cursorKey{}, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	if k.ID == "" {
		return cursorKey{}, fmt.Errorf("%w: missing id", ErrInvalidCursor)
	}
	return k, nil
}

// compareKeys orders two keys the way q does: by creation time with absent
// times last, then by ID in the same direction. Unordered queries use ID alone.
func compareKeys(a, b cursorKey, ordered, desc bool) int {
	flip := func(c int) int {
		if ordered && desc {
			return -c
		}
		return c
	}
	if ordered {
		switch {
		case a.CreatedAt == "" && b.CreatedAt != "":
			return 1
		case a.CreatedAt != "" && b.CreatedAt == "":
			return -1
		case a.CreatedAt != b.CreatedAt:
			return flip(strings.Compare(a.CreatedAt, b.CreatedAt))
		}
	}
	return flip(strings.Compare(a.ID, b.ID))
}

// textValue renders a field value in the form used for equality filters.
func textValue(v any) (string, bool) {
	switch tv := v.(type) {
	case nil:
		return "", false
	case string:
		return tv, true
	case bool:
		return strconv.FormatBool(tv), true
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(tv), 'f', -1, 32), true
	case int:
		return strconv.Itoa(tv), true
	case int64:
		return strconv.FormatInt(tv, 10), true
	case json.Number:
		return tv.String(), true
	default:
		return fmt.Sprint(tv), true
	}
}

func matches(rec record.Record, where []Filter) bool {
	for _, f := range where {
		v, ok := textValue(rec[f.Field])
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}

// prepareCreate assigns ID and timestamps and normalizes rec for storage.
func prepareCreate(rec record.Record, now time.Time, newID func() string) record.Record {
	out := rec.Clone()
	if out == nil {
		out = record.Record{}
	}
	if out.ID() == "" {
		out[record.FieldID] = newID()
	}
	if _, ok := out.CreatedAt(); !ok {
		out[record.FieldCreatedAt] = now
	}
	out[record.FieldUpdatedAt] = now
	return out.Normalize()
}

// preparePatch strips immutable fields and stamps updatedAt.
func preparePatch(patch record.Record, now time.Time) record.Record {
	out := patch.Clone()
	if out == nil {
		out = record.Record{}
	}
	delete(out, record.FieldID)
	delete(out, record.FieldCreatedAt)
	out[record.FieldUpdatedAt] = now
	return out
}
