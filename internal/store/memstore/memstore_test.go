package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrocrm/backoffice/internal/store"
)

func newTestStore() *Store {
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return New(store.CRMSchema()).WithClock(func() time.Time { return fixed })
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	s := newTestStore()
	rec, err := s.Create(context.Background(), store.ModelCustomer, store.Record{"code": "C-1", "name": "Tani Makmur"})
	require.NoError(t, err)
	require.NotEmpty(t, rec.String("id"))
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), rec["created_at"])
	assert.Equal(t, rec["created_at"], rec["updated_at"])
}

func TestCreateRejectsDuplicateLiveKey(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	first, err := s.Create(ctx, store.ModelCustomer, store.Record{"code": "C-1"})
	require.NoError(t, err)

	_, err = s.Create(ctx, store.ModelCustomer, store.Record{"code": "C-1"})
	require.ErrorIs(t, err, store.ErrConflict)
	var ce *store.ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "customers_code_key", ce.Constraint)

	_, err = s.Update(ctx, store.ModelCustomer, store.Filter{"id": first["id"]}, store.Record{store.DeletedAtColumn: time.Now()})
	require.NoError(t, err)
	_, err = s.Create(ctx, store.ModelCustomer, store.Record{"code": "C-1"})
	require.NoError(t, err, "a soft-deleted row frees its unique key")
}

func TestUpdateTouchesSingleRow(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	for _, code := range []string{"A", "B"} {
		_, err := s.Create(ctx, store.ModelCustomer, store.Record{"code": code, "region": "west"})
		require.NoError(t, err)
	}
	_, err := s.Update(ctx, store.ModelCustomer, store.Filter{"region": "west"}, store.Record{"region": "east"})
	require.NoError(t, err)

	n, err := s.Count(ctx, store.ModelCustomer, store.Filter{"region": "east"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.Update(ctx, store.ModelCustomer, store.Filter{"region": "north"}, store.Record{"region": "east"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindManyFiltersOrdersAndPages(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	for i, name := range []string{"Charlie", "alpha", "Bravo", "delta"} {
		_, err := s.Create(ctx, store.ModelProduct, store.Record{"sku": name, "name": name, "price": int64(i * 100)})
		require.NoError(t, err)
	}

	rows, err := s.FindMany(ctx, store.ModelProduct, store.Query{
		Where:   store.Filter{"price": store.Range{From: int64(100), To: 300}},
		OrderBy: []string{"price DESC"},
		Limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "delta", rows[0]["name"])
	assert.Equal(t, "Bravo", rows[1]["name"])

	rows, err = s.FindMany(ctx, store.ModelProduct, store.Query{Where: store.Filter{"name": store.Contains("LPH")}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alpha", rows[0]["name"])

	rows, err = s.FindMany(ctx, store.ModelProduct, store.Query{Where: store.Filter{"sku": []any{"alpha", "delta"}}, OrderBy: []string{"sku"}, Offset: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "delta", rows[0]["sku"])
}

func TestFindFirstAndFindOneAbsence(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	rec, err := s.FindFirst(ctx, store.ModelUser, store.Query{Where: store.Filter{"email": "nobody@example.com"}})
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = s.FindOne(ctx, store.ModelUser, store.Filter{"email": "nobody@example.com"})
	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, store.ModelUser, nf.Model)
}

func TestDeleteManyRemovesRows(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	for _, kind := range []string{"call", "visit", "call"} {
		_, err := s.Create(ctx, store.ModelInteraction, store.Record{"kind": kind})
		require.NoError(t, err)
	}
	n, err := s.DeleteMany(ctx, store.ModelInteraction, store.Filter{"kind": "call"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := s.Count(ctx, store.ModelInteraction, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, left)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.Create(ctx, store.ModelRoleDefinition, store.Record{"name": "ADMIN"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.Count(ctx, store.ModelRoleDefinition, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = s.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		_, err := tx.Create(ctx, store.ModelRoleDefinition, store.Record{"name": "ADMIN"})
		return err
	})
	require.NoError(t, err)
	n, err = s.Count(ctx, store.ModelRoleDefinition, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUnknownModel(t *testing.T) {
	s := newTestStore()
	_, err := s.Create(context.Background(), "Invoice", store.Record{})
	require.ErrorIs(t, err, store.ErrUnknownModel)
}
