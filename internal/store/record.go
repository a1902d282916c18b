package store

import "time"

// Time returns the value under key when it is a time.
func (r Record) Time(key string) time.Time {
	switch t := r[key].(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	}
	return time.Time{}
}

// TimePtr is Time for nullable columns.
func (r Record) TimePtr(key string) *time.Time {
	ts := r.Time(key)
	if ts.IsZero() {
		return nil
	}
	return &ts
}

// Bool returns the value under key when it is a bool.
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Int64 returns the integer under key. PostgreSQL returns int64 for BIGINT
// and int32 for INTEGER; decoded JSON yields float64.
func (r Record) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// StringPtr is String for nullable columns.
func (r Record) StringPtr(key string) *string {
	switch v := r[key].(type) {
	case string:
		return &v
	case *string:
		return v
	}
	return nil
}
