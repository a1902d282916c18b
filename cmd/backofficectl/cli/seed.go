package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agrocrm/backoffice/internal/app"
	"github.com/agrocrm/backoffice/internal/platform/db"
	"github.com/agrocrm/backoffice/internal/roles"
)

// governedStore opens the pool and builds the governed store over it, so
// seeded rows are audited like any other write.
func (rt *runtime) governedStore(ctx context.Context) (*app.Stores, func(), error) {
	pool, err := db.New(ctx, rt.cfg.PGDSN, rt.cfg.PGMaxConns)
	if err != nil {
		return nil, nil, err
	}
	stores, err := app.BuildStores(app.StoreParams{
		Config: &app.Config{AppStore: app.StorePostgres, AuditSink: app.AuditSinkDirect},
		Pool:   pool,
		Logger: rt.logger,
	})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return stores, pool.Close, nil
}

func newSeedCommand(rt *runtime) *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the permission catalog, default roles and the admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				email = rt.cfg.SeedAdminEmail
			}
			if password == "" {
				password = rt.cfg.SeedAdminPassword
			}
			stores, closeFn, err := rt.governedStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			result, err := app.Seed(cmd.Context(), app.SeedParams{
				Store:         stores.Governed,
				Logger:        rt.logger,
				AdminEmail:    email,
				AdminName:     name,
				AdminPassword: password,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "permissions created: %d\n", result.PermissionsCreated)
			for _, role := range []string{app.RoleAdmin, app.RoleSalesStaff} {
				fmt.Fprintf(out, "role %-12s %s\n", role, result.Roles[role])
			}
			if result.AdminID != "" {
				fmt.Fprintf(out, "admin %s\n", result.AdminID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "admin-email", "", "admin account email (defaults to SEED_ADMIN_EMAIL)")
	cmd.Flags().StringVar(&name, "admin-name", "Administrator", "admin display name")
	cmd.Flags().StringVar(&password, "admin-password", "", "admin password (defaults to SEED_ADMIN_PASSWORD)")
	return cmd
}

func newCatalogCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the permission catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Insert catalog keys missing from the Permission table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, closeFn, err := rt.governedStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			created, err := roles.NewService(roles.NewRepository(stores.Governed), rt.logger).SyncCatalog(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "permissions created: %d\n", created)
			return nil
		},
	})
	return cmd
}
