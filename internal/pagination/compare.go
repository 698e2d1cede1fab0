package pagination

import (
	"cmp"
	"strings"

	"github.com/rshade/planfocus/internal/record"
)

// Compare orders two records. It returns a negative number when a sorts before b,
// a positive number when b sorts before a, and zero when they are tied.
type Compare func(a, b record.Record) int

// PriorityRanks maps task priorities to their rank. Unknown values rank 1.
//
//nolint:gochecknoglobals // Read-only lookup table.
var PriorityRanks = map[string]int{
	record.PriorityLow:    1,
	record.PriorityMedium: 2,
	record.PriorityHigh:   3,
}

// StatusRanks maps task statuses to their rank. Unknown values rank 1.
//
//nolint:gochecknoglobals // Read-only lookup table.
var StatusRanks = map[string]int{
	record.StatusPending:    1,
	record.StatusInProgress: 2,
	record.StatusCompleted:  3,
}

// defaultRank is used for absent or unrecognized enum values.
const defaultRank = 1

// presence orders a present value before an absent one.
// It returns ok=false when both values are present and the caller must compare them.
func presence(aOK, bOK bool) (int, bool) {
	switch {
	case aOK && bOK:
		return 0, false
	case aOK:
		return -1, true
	case bOK:
		return 1, true
	default:
		return 0, true
	}
}

func direct(c int, desc bool) int {
	if desc {
		return -c
	}
	return c
}

// ByNumber orders records by a numeric field.
func ByNumber(field string, desc bool) Compare {
	return func(a, b record.Record) int {
		av, aOK := a.Float(field)
		bv, bOK := b.Float(field)
		if c, done := presence(aOK, bOK); done {
			return c
		}
		return direct(cmp.Compare(av, bv), desc)
	}
}

// ByTime orders records by a timestamp field.
func ByTime(field string, desc bool) Compare {
	return func(a, b record.Record) int {
		at, aOK := a.Time(field)
		bt, bOK := b.Time(field)
		if c, done := presence(aOK, bOK); done {
			return c
		}
		return direct(at.Compare(bt), desc)
	}
}

// CreatedDesc is the feed order: newest first, records without a timestamp last.
func CreatedDesc() Compare {
	return ByTime(record.FieldCreatedAt, true)
}

// ByText orders records by a string field, case-insensitively.
func ByText(field string, desc bool) Compare {
	return func(a, b record.Record) int {
		av, aOK := a.String(field)
		bv, bOK := b.String(field)
		if c, done := presence(aOK, bOK); done {
			return c
		}
		return direct(strings.Compare(strings.ToLower(av), strings.ToLower(bv)), desc)
	}
}

// ByRank orders records by the rank of an enumerated field.
// Absent or unknown values take rank 1, so they tie with the lowest rank.
func ByRank(field string, ranks map[string]int, desc bool) Compare {
	rank := func(r record.Record) int {
		v, ok := r.String(field)
		if !ok {
			return defaultRank
		}
		if n, known := ranks[v]; known {
			return n
		}
		return defaultRank
	}
	return func(a, b record.Record) int {
		return direct(cmp.Compare(rank(a), rank(b)), desc)
	}
}

// ByFlagGrouped puts records whose boolean field equals target first.
// Inside each group records are ordered by creation time, newest first. When either
// record lacks a timestamp the pair compares equal.
func ByFlagGrouped(field string, target bool) Compare {
	return func(a, b record.Record) int {
		af, _ := a.Bool(field)
		bf, _ := b.Bool(field)
		if af != bf {
			if af == target {
				return -1
			}
			return 1
		}
		at, aOK := a.CreatedAt()
		bt, bOK := b.CreatedAt()
		if !aOK || !bOK {
			return 0
		}
		return bt.Compare(at)
	}
}

// Then chains comparators; later ones break ties left by earlier ones.
func Then(cmps ...Compare) Compare {
	return func(a, b record.Record) int {
		for _, c := range cmps {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}
