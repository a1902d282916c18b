package softdelete_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrocrm/backoffice/internal/governance"
	"github.com/agrocrm/backoffice/internal/store"
	"github.com/agrocrm/backoffice/internal/store/memstore"
	"github.com/agrocrm/backoffice/internal/store/softdelete"
)

var deletedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newStores() (*memstore.Store, *softdelete.Store) {
	base := memstore.New(store.CRMSchema())
	return base, softdelete.New(base, governance.Default(), func() time.Time { return deletedAt })
}

func TestSoftDeletedRowsHiddenFromDefaultReads(t *testing.T) {
	_, s := newStores()
	ctx := context.Background()
	emp, err := s.Create(ctx, store.ModelEmployee, store.Record{"code": "E-1", "name": "Sari"})
	require.NoError(t, err)
	_, err = s.Create(ctx, store.ModelEmployee, store.Record{"code": "E-2", "name": "Budi"})
	require.NoError(t, err)

	_, err = s.Delete(ctx, store.ModelEmployee, store.Filter{"id": emp["id"]})
	require.NoError(t, err)

	rows, err := s.FindMany(ctx, store.ModelEmployee, store.Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "E-2", rows[0]["code"])

	n, err := s.Count(ctx, store.ModelEmployee, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	deleted, err := s.FindMany(ctx, store.ModelEmployee, store.Query{Where: store.Filter{store.DeletedAtColumn: store.NotNull}})
	require.NoError(t, err)
	require.Len(t, deleted, 1, "an explicit deleted-at condition wins")
	assert.Equal(t, "E-1", deleted[0]["code"])

	all, err := s.FindMany(ctx, store.ModelEmployee, store.Query{Where: store.Filter{store.DeletedAtColumn: store.Any}})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteRedirectsToTimestampUpdate(t *testing.T) {
	base, s := newStores()
	ctx := context.Background()
	user, err := s.Create(ctx, store.ModelUser, store.Record{"email": "sari@example.com"})
	require.NoError(t, err)

	_, err = s.Delete(ctx, store.ModelUser, store.Filter{"id": user["id"]})
	require.NoError(t, err)

	raw, err := base.FindOne(ctx, store.ModelUser, store.Filter{"id": user["id"]})
	require.NoError(t, err, "the row is still physically present")
	assert.Equal(t, deletedAt, raw[store.DeletedAtColumn])

	_, err = s.FindOne(ctx, store.ModelUser, store.Filter{"id": user["id"]})
	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, store.ModelUser, nf.Model)

	rec, err := s.FindFirst(ctx, store.ModelUser, store.Query{Where: store.Filter{"id": user["id"]}})
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = s.Delete(ctx, store.ModelUser, store.Filter{"id": user["id"]})
	require.ErrorIs(t, err, store.ErrNotFound, "deleting twice finds nothing live")
}

func TestUpdateOfDeletedRowIsNotFound(t *testing.T) {
	_, s := newStores()
	ctx := context.Background()
	p, err := s.Create(ctx, store.ModelProduct, store.Record{"sku": "NPK-50"})
	require.NoError(t, err)
	_, err = s.Delete(ctx, store.ModelProduct, store.Filter{"id": p["id"]})
	require.NoError(t, err)

	_, err = s.Update(ctx, store.ModelProduct, store.Filter{"id": p["id"]}, store.Record{"name": "renamed"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteManyRedirectsToUpdateMany(t *testing.T) {
	base, s := newStores()
	ctx := context.Background()
	for _, loc := range []string{"north", "south", "east"} {
		_, err := s.Create(ctx, store.ModelStock, store.Record{"product_id": "p-1", "location": loc, "quantity": int64(10)})
		require.NoError(t, err)
	}
	n, err := s.DeleteMany(ctx, store.ModelStock, store.Filter{"location": []string{"north", "south"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	physical, err := base.Count(ctx, store.ModelStock, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, physical)

	live, err := s.Count(ctx, store.ModelStock, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, live)
}

func TestNonGovernedModelHardDeletes(t *testing.T) {
	base, s := newStores()
	ctx := context.Background()
	sale, err := s.Create(ctx, store.ModelSale, store.Record{"customer_id": "c-1", "quantity": int64(3)})
	require.NoError(t, err)

	_, err = s.Delete(ctx, store.ModelSale, store.Filter{"id": sale["id"]})
	require.NoError(t, err)

	n, err := base.Count(ctx, store.ModelSale, nil)
	require.NoError(t, err)
	assert.Zero(t, n, "the row is physically removed")
}

func TestWithTxKeepsSoftDeleteSemantics(t *testing.T) {
	base, s := newStores()
	ctx := context.Background()
	role, err := s.Create(ctx, store.ModelRoleDefinition, store.Record{"name": "SALES_STAFF"})
	require.NoError(t, err)

	err = s.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		_, err := tx.Delete(ctx, store.ModelRoleDefinition, store.Filter{"id": role["id"]})
		return err
	})
	require.NoError(t, err)

	raw, err := base.FindOne(ctx, store.ModelRoleDefinition, store.Filter{"id": role["id"]})
	require.NoError(t, err)
	assert.NotNil(t, raw[store.DeletedAtColumn])
}
