// Command funnelctl runs operator tasks against the Funnel database.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funnel/internal/config"
	"funnel/internal/database"
	"funnel/internal/database/migration"
	dbpostgres "funnel/internal/database/postgres"
	"funnel/internal/database/seeder"
	"funnel/internal/pkg/logger"
	"funnel/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "funnelctl",
		Short:         "Funnel operator tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(migrateCmd(), seedVCsCmd())
	return cmd
}

func migrateCmd() *cobra.Command {
	var (
		dir    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Long: `Apply pending SQL migrations. The schema embedded in this binary is used
unless --dir or MIGRATIONS_DIR points at a directory of V<n>__name.sql files.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, cfg config.Config, db database.DB, log *zap.Logger) error {
				r := migration.Runner{FS: migrations.Files, Logger: log}
				if dir == "" {
					dir = cfg.App.MigrationsDir
				}
				if dir != "" {
					r = migration.Runner{Dir: dir, Logger: log}
				}

				ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
				defer cancel()

				if dryRun {
					pending, err := r.Pending(ctx, db.SQLDB())
					if err != nil {
						return fmt.Errorf("list pending migrations: %w", err)
					}
					for _, m := range pending {
						fmt.Fprintln(cmd.OutOrStdout(), m.Filename)
					}
					return nil
				}

				if err := r.Run(ctx, db.SQLDB()); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				log.Info("migrations up to date")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the embedded schema")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print pending migrations without applying them")
	return cmd
}

func seedVCsCmd() *cobra.Command {
	var (
		count    int
		workers  int
		password string
		seed     uint64
	)

	cmd := &cobra.Command{
		Use:   "seed-vcs",
		Short: "Insert demo VC users and profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			return withDB(cmd.Context(), func(ctx context.Context, _ config.Config, db database.DB, log *zap.Logger) error {
				s := seeder.VCSeeder{
					Count:        count,
					Workers:      workers,
					PasswordHash: string(hash),
					Logger:       log,
				}
				if cmd.Flags().Changed("seed") {
					s.Rand = rand.New(rand.NewPCG(seed, seed>>1))
				}
				return seeder.Runner{Seeders: []seeder.Seeder{s}, Logger: log}.Run(ctx, db)
			})
		},
	}

	cmd.Flags().IntVar(&count, "count", 100, "number of demo VCs")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent inserts")
	cmd.Flags().StringVar(&password, "password", "password", "password for every demo account")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible data")
	return cmd
}

func withDB(parent context.Context, fn func(ctx context.Context, cfg config.Config, db database.DB, log *zap.Logger) error) error {
	cfg, err := config.LoadOperator()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.App.AppName, cfg.App.Environment)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := dbpostgres.Connect(connectCtx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()

	return fn(ctx, cfg, db, log.Named("funnelctl"))
}
