package audit

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/agrocrm/backoffice/internal/store"
)

// maxSafeInteger is the largest integer a JSON consumer can hold exactly.
const maxSafeInteger = 1<<53 - 1

// Sanitize normalises a snapshot for JSON storage: times become RFC3339Nano
// UTC strings, integers beyond ±2^53 and big numbers become decimal strings,
// and nested maps and slices are recursed. A nil column value is SQL NULL and
// stays in the snapshot as JSON null; only keys the record never carried are
// absent.
func Sanitize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339Nano)
	case *big.Int:
		if t == nil {
			return nil
		}
		return t.String()
	case *big.Float:
		if t == nil {
			return nil
		}
		return t.Text('f', -1)
	case int64:
		if t > maxSafeInteger || t < -maxSafeInteger {
			return strconv.FormatInt(t, 10)
		}
		return t
	case uint64:
		if t > maxSafeInteger {
			return strconv.FormatUint(t, 10)
		}
		return t
	case int:
		return Sanitize(int64(t))
	case uint:
		return Sanitize(uint64(t))
	case json.RawMessage, []byte:
		return t
	case store.Record:
		return sanitizeMap(t)
	case map[string]any:
		return sanitizeMap(t)
	case []store.Record:
		out := make([]any, len(t))
		for i, rec := range t {
			out[i] = sanitizeMap(rec)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Sanitize(item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Sanitize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Sanitize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Sanitize(iter.Value().Interface())
		}
		return out
	}
	return v
}

func sanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = Sanitize(val)
	}
	return out
}

// snapshot sanitises v and encodes it. An absent snapshot encodes as nil.
func snapshot(v any) (json.RawMessage, error) {
	if store.IsNil(v) {
		return nil, nil
	}
	data, err := json.Marshal(Sanitize(v))
	if err != nil {
		return nil, err
	}
	return data, nil
}
