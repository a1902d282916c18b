package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Filter maps a column to a condition. A plain value means equality, nil
// means IS NULL, a []any means IN, and the condition types below express the
// remaining comparisons.
type Filter map[string]any

// Sentinel conditions that carry no operand.
type Sentinel string

const (
	// NotNull matches rows whose column is set.
	NotNull Sentinel = "NOT NULL"
	// Any names the column without constraining it.
	Any Sentinel = "ANY"
)

// Range matches values between From and To inclusive. A nil bound is open.
type Range struct {
	From any
	To   any
}

// Contains matches string columns containing the value, case-insensitively.
type Contains string

// Has reports whether the filter names column, whatever its condition.
func (f Filter) Has(column string) bool {
	_, ok := f[column]
	return ok
}

// Clone copies the filter.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	return out
}

// With returns a copy of the filter with column set to cond.
func (f Filter) With(column string, cond any) Filter {
	out := f.Clone()
	out[column] = cond
	return out
}

// Columns returns the filtered columns in sorted order.
func (f Filter) Columns() []string {
	cols := make([]string, 0, len(f))
	for k := range f {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Match evaluates the filter against a record in memory.
func (f Filter) Match(r Record) bool {
	for col, cond := range f {
		if !matchCondition(r[col], cond) {
			return false
		}
	}
	return true
}

func matchCondition(value, cond any) bool {
	switch c := cond.(type) {
	case nil:
		return isNil(value)
	case Sentinel:
		switch c {
		case NotNull:
			return !isNil(value)
		case Any:
			return true
		}
		return Equal(value, string(c))
	case Range:
		if isNil(value) {
			return false
		}
		if c.From != nil && Compare(value, c.From) < 0 {
			return false
		}
		if c.To != nil && Compare(value, c.To) > 0 {
			return false
		}
		return true
	case Contains:
		s, ok := value.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(string(c)))
	case []any:
		for _, candidate := range c {
			if Equal(value, candidate) {
				return true
			}
		}
		return false
	case []string:
		for _, candidate := range c {
			if Equal(value, candidate) {
				return true
			}
		}
		return false
	default:
		return Equal(value, cond)
	}
}

// IsNil reports whether v is nil or a nil pointer, map, or slice.
func IsNil(v any) bool { return isNil(v) }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Equal compares two column values, normalising numeric kinds and times.
func Equal(a, b any) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	if ta, ok := asTime(a); ok {
		tb, ok := asTime(b)
		return ok && ta.Equal(tb)
	}
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(deref(a), deref(b))
}

// Compare orders two column values. Values of unrelated kinds are ordered by
// their string form.
func Compare(a, b any) int {
	switch {
	case isNil(a) && isNil(b):
		return 0
	case isNil(a):
		return -1
	case isNil(b):
		return 1
	}
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb)
		}
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(deref(a)), fmt.Sprint(deref(b)))
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func asTime(v any) (time.Time, bool) {
	switch t := deref(v).(type) {
	case time.Time:
		return t, true
	}
	return time.Time{}, false
}

func asFloat(v any) (float64, bool) {
	switch n := deref(v).(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
