package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/database"
	"github.com/ekaya-inc/ekaya-tracker/pkg/logging"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			return database.RunMigrationsFromPool(a.db, a.logger)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert every catalog vendor that is not yet tracked",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := bootstrap(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			svcs, err := a.services(false)
			if err != nil {
				return err
			}

			scoped, release, err := a.db.WithScope(ctx)
			if err != nil {
				return fmt.Errorf("failed to acquire database connection: %w", err)
			}
			defer release()

			created, err := svcs.vendors.Seed(scoped)
			if err != nil {
				return err
			}
			a.logger.Info("Seeded vendors",
				zap.Int("created", created),
				zap.Int("catalog_size", svcs.catalog.Len()))
			return nil
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one vendor refresh pass and print the result as JSON",
		Long: "Asks the configured oracle for recent AI news on every catalog vendor and " +
			"reconciles the answer into the database. Runs regardless of refresh.enabled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := bootstrap(ctx, true)
			if err != nil {
				return err
			}
			defer a.close()

			svcs, err := a.services(true)
			if err != nil {
				return err
			}

			result, err := svcs.refresh.Refresh(ctx)
			if err != nil {
				a.logger.Error("Refresh failed", zap.String("error", logging.SanitizeError(err)))
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
