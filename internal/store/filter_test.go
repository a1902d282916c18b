package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMatch(t *testing.T) {
	deletedAt := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	live := Record{"id": "a", "status": "PENDING", "deleted_at": nil, "qty": int64(5)}
	gone := Record{"id": "b", "status": "PENDING", "deleted_at": deletedAt, "qty": 7}

	cases := []struct {
		name   string
		filter Filter
		live   bool
		gone   bool
	}{
		{"equality", Filter{"status": "PENDING"}, true, true},
		{"is null", Filter{"deleted_at": nil}, true, false},
		{"not null", Filter{"deleted_at": NotNull}, false, true},
		{"any", Filter{"deleted_at": Any}, true, true},
		{"in", Filter{"id": []string{"b", "c"}}, false, true},
		{"numeric kinds", Filter{"qty": 5}, true, false},
		{"range", Filter{"qty": Range{From: 6}}, false, true},
		{"time equality", Filter{"deleted_at": deletedAt.In(time.FixedZone("WIB", 7*3600))}, false, true},
		{"missing column", Filter{"region": "west"}, false, false},
		{"empty", Filter{}, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.live, tc.filter.Match(live))
			assert.Equal(t, tc.gone, tc.filter.Match(gone))
		})
	}
}

func TestFilterWithDoesNotMutate(t *testing.T) {
	f := Filter{"id": "a"}
	g := f.With("deleted_at", nil)
	assert.False(t, f.Has("deleted_at"))
	assert.True(t, g.Has("deleted_at"))
	assert.Equal(t, []string{"deleted_at", "id"}, g.Columns())
}

func TestIsNilTypedPointers(t *testing.T) {
	var ts *time.Time
	assert.True(t, IsNil(ts))
	assert.True(t, IsNil(nil))
	assert.False(t, IsNil(""))
}

func TestRecordAccessors(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Record{"at": ts, "active": true, "qty": int32(7), "total": float64(12), "note": "x"}

	assert.Equal(t, ts, r.Time("at"))
	assert.Nil(t, r.TimePtr("missing"))
	assert.True(t, r.Bool("active"))
	assert.EqualValues(t, 7, r.Int64("qty"))
	assert.EqualValues(t, 12, r.Int64("total"))
	require.NotNil(t, r.StringPtr("note"))
	assert.Nil(t, r.StringPtr("qty"))
}
