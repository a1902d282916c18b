package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrocrm/backoffice/internal/store"
)

var fixedNow = time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock, store.CRMSchema()).WithClock(func() time.Time { return fixedNow }), mock
}

func TestCreateInsertsReturningRow(t *testing.T) {
	s, mock := newMockStore(t)
	rows := pgxmock.NewRows([]string{"id", "code", "name"}).AddRow("c-1", "C-1", "Tani Makmur")
	mock.ExpectQuery(`INSERT INTO customers \(code,created_at,id,name,updated_at\) VALUES \(\$1,\$2,\$3,\$4,\$5\) RETURNING \*`).
		WithArgs("C-1", fixedNow, "c-1", "Tani Makmur", fixedNow).
		WillReturnRows(rows)

	rec, err := s.Create(context.Background(), store.ModelCustomer, store.Record{"id": "c-1", "code": "C-1", "name": "Tani Makmur"})
	require.NoError(t, err)
	assert.Equal(t, "c-1", rec["id"])
	assert.Equal(t, "Tani Makmur", rec["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTargetsFirstMatchByPrimaryKey(t *testing.T) {
	s, mock := newMockStore(t)
	rows := pgxmock.NewRows([]string{"id", "status"}).AddRow("c-1", "APPROVED")
	mock.ExpectQuery(`UPDATE customers SET status = \$1, updated_at = \$2 WHERE id = \(SELECT id FROM customers WHERE \(deleted_at IS NULL AND id = \$3\) LIMIT 1\) RETURNING \*`).
		WithArgs("APPROVED", fixedNow, "c-1").
		WillReturnRows(rows)

	rec, err := s.Update(context.Background(), store.ModelCustomer,
		store.Filter{"id": "c-1", store.DeletedAtColumn: nil},
		store.Record{"status": "APPROVED"})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", rec["status"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithoutMatchIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`UPDATE employees SET`).
		WithArgs("Sari", fixedNow, "missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}))

	_, err := s.Update(context.Background(), store.ModelEmployee, store.Filter{"id": "missing"}, store.Record{"name": "Sari"})
	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, store.ModelEmployee, nf.Model)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueViolationBecomesConstraintError(t *testing.T) {
	s, mock := newMockStore(t)
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key", Message: "duplicate key value"}
	mock.ExpectQuery(`INSERT INTO products`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgErr)

	_, err := s.Create(context.Background(), store.ModelProduct, store.Record{"sku": "NPK-50"})
	require.ErrorIs(t, err, store.ErrConflict)
	var ce *store.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "products_sku_key", ce.Constraint)
	var raw *pgconn.PgError
	require.True(t, errors.As(err, &raw), "the driver error stays reachable")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindManyBuildsFilteredPagedSelect(t *testing.T) {
	s, mock := newMockStore(t)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "name"}).AddRow("c-2", "Kebun Jaya").AddRow("c-3", "Kebun Raya")
	mock.ExpectQuery(`SELECT \* FROM customers WHERE \(created_at >= \$1 AND deleted_at IS NULL AND name ILIKE \$2 AND type IN \(\$3,\$4\)\) ORDER BY created_at DESC LIMIT 10 OFFSET 20`).
		WithArgs(from, "%kebun%", "DEALER", "FARMER").
		WillReturnRows(rows)

	out, err := s.FindMany(context.Background(), store.ModelCustomer, store.Query{
		Where: store.Filter{
			"created_at":            store.Range{From: from},
			store.DeletedAtColumn:   nil,
			"name":                  store.Contains("kebun"),
			"type":                  []string{"DEALER", "FARMER"},
			"region":                store.Any,
		},
		OrderBy: []string{"created_at DESC"},
		Limit:   10,
		Offset:  20,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Kebun Raya", out[1]["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindManyRejectsUnsafeOrder(t *testing.T) {
	s, _ := newMockStore(t)
	_, err := s.FindMany(context.Background(), store.ModelCustomer, store.Query{OrderBy: []string{"name; DROP TABLE customers"}})
	require.Error(t, err)
}

func TestCountWithoutFilter(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM audit_logs$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	n, err := s.Count(context.Background(), store.ModelAuditLog, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommitsAndJoins(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	mock.ExpectExec(`UPDATE role_permissions SET deleted_at = \$1, updated_at = \$2 WHERE \(role_id = \$3\)`).
		WithArgs(fixedNow, fixedNow, "r-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Store) error {
		return tx.WithTx(ctx, func(ctx context.Context, inner store.Store) error {
			n, err := inner.UpdateMany(ctx, store.ModelRolePermission, store.Filter{"role_id": "r-1"}, store.Record{store.DeletedAtColumn: fixedNow})
			if err != nil {
				return err
			}
			assert.EqualValues(t, 3, n)
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Store) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteManyReportsAffectedRows(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM sales WHERE \(customer_id = \$1\)`).
		WithArgs("c-9").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := s.DeleteMany(context.Background(), store.ModelSale, store.Filter{"customer_id": "c-9"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
