//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/agrocrm/backoffice/internal/audit"
	"github.com/agrocrm/backoffice/internal/governance"
	"github.com/agrocrm/backoffice/internal/platform/db"
	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/internal/store"
	"github.com/agrocrm/backoffice/internal/store/postgres"
	"github.com/agrocrm/backoffice/internal/store/softdelete"
)

// startPostgres runs a disposable PostgreSQL and applies the embedded goose
// migrations to it.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "backoffice",
				"POSTGRES_PASSWORD": "backoffice",
				"POSTGRES_DB":       "backoffice",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://backoffice:backoffice@%s:%s/backoffice?sslmode=disable", host, port.Port())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, db.Migrate(ctx, dsn, logger))
	return dsn
}

type governed struct {
	base  *postgres.Store
	store store.Store
}

func newGoverned(t *testing.T, dsn string) governed {
	t.Helper()
	pool, err := db.New(context.Background(), dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema := store.CRMSchema()
	policy := governance.Default()
	base := postgres.New(pool, schema)
	gov := audit.NewInterceptor(
		softdelete.New(base, policy, nil),
		policy,
		audit.NewRecorder(audit.StoreSink{Store: base}, nil, nil),
		audit.WithSchema(schema),
		audit.WithStrict(true),
	)
	return governed{base: base, store: gov}
}

func TestGovernedStoreAgainstPostgres(t *testing.T) {
	dsn := startPostgres(t)
	g := newGoverned(t, dsn)
	ctx := shared.ContextWithActor(context.Background(), "operator-1")

	created, err := g.store.Create(ctx, store.ModelCustomer, store.Record{
		"code": "DLR-0001", "name": "Tani Makmur", "type": "DEALER", "status": "PENDING",
	})
	require.NoError(t, err)
	id := created.String("id")
	require.NotEmpty(t, id)

	_, err = g.store.Create(ctx, store.ModelCustomer, store.Record{
		"code": "DLR-0001", "name": "Duplikat", "type": "DEALER", "status": "PENDING",
	})
	assert.ErrorIs(t, err, store.ErrConflict, "live codes are unique")

	approveCtx := audit.WithIntent(ctx, audit.ActionApprove)
	_, err = g.store.Update(approveCtx, store.ModelCustomer, store.Filter{"id": id}, store.Record{"status": "APPROVED"})
	require.NoError(t, err)

	_, err = g.store.Delete(ctx, store.ModelCustomer, store.Filter{"id": id})
	require.NoError(t, err)

	_, err = g.store.FindOne(ctx, store.ModelCustomer, store.Filter{"id": id})
	assert.ErrorIs(t, err, store.ErrNotFound)

	raw, err := g.base.FindOne(ctx, store.ModelCustomer, store.Filter{"id": id})
	require.NoError(t, err)
	assert.False(t, store.IsNil(raw[store.DeletedAtColumn]))

	_, err = g.store.Create(ctx, store.ModelCustomer, store.Record{
		"code": "DLR-0001", "name": "Tani Makmur Baru", "type": "DEALER", "status": "PENDING",
	})
	assert.NoError(t, err, "a deleted row frees its code")

	entries, err := audit.NewService(g.base).History(ctx, store.ModelCustomer, id)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
	assert.Nil(t, entries[0].Before)
	assert.Equal(t, audit.ActionApprove, entries[1].Action)
	assert.Contains(t, string(entries[1].After), `"APPROVED"`)
	assert.Equal(t, audit.ActionDelete, entries[2].Action)
	assert.Contains(t, string(entries[2].After), store.DeletedAtColumn)
	for _, e := range entries {
		require.NotNil(t, e.PerformedByUserID)
		assert.Equal(t, "operator-1", *e.PerformedByUserID)
	}
}

func TestUngovernedModelsHardDelete(t *testing.T) {
	dsn := startPostgres(t)
	g := newGoverned(t, dsn)
	ctx := context.Background()

	customer, err := g.store.Create(ctx, store.ModelCustomer, store.Record{
		"code": "FRM-0001", "name": "Pak Budi", "type": "FARMER", "status": "APPROVED",
	})
	require.NoError(t, err)
	interaction, err := g.store.Create(ctx, store.ModelInteraction, store.Record{
		"customer_id": customer.String("id"), "kind": "VISIT", "notes": "kunjungan", "occurred_at": time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = g.store.Delete(ctx, store.ModelInteraction, store.Filter{"id": interaction.String("id")})
	require.NoError(t, err)
	n, err := g.base.Count(ctx, store.ModelInteraction, store.Filter{"id": interaction.String("id")})
	require.NoError(t, err)
	assert.Zero(t, n)

	logs, err := g.base.Count(ctx, store.ModelAuditLog, store.Filter{"model": store.ModelInteraction})
	require.NoError(t, err)
	assert.Zero(t, logs)
}
