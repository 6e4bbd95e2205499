package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iliyamo/campus-facility-reservation/internal/config"
	"github.com/iliyamo/campus-facility-reservation/internal/database"
	"github.com/iliyamo/campus-facility-reservation/internal/logger"
)

var (
	cfg config.Config
	log zerolog.Logger

	adminPassword string
	userPassword  string
	timeout       time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the reservation database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		log = logger.Init("migrate", cfg.Env)
		return err
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: withDB(func(ctx context.Context, db *sql.DB) error {
		applied, err := database.Migrate(ctx, db, log)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("schema is up to date")
			return nil
		}
		for _, name := range applied {
			fmt.Println("applied", name)
		}
		return nil
	}),
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo catalogue data, accounts and system tokens",
	RunE: withDB(func(ctx context.Context, db *sql.DB) error {
		res, err := database.Seed(ctx, db, database.SeedOptions{
			AdminPassword: adminPassword,
			UserPassword:  userPassword,
			BcryptCost:    cfg.BcryptCost,
		})
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d facilities\n", res.Facilities)
		fmt.Printf("ADMIN_REG_TOKEN=%s\nRESET_PASS_TOKEN=%s\n", res.AdminRegToken, res.ResetPassToken)
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and when they were applied",
	RunE: withDB(func(ctx context.Context, db *sql.DB) error {
		list, err := database.Status(ctx, db)
		if err != nil {
			return err
		}
		for _, m := range list {
			at := "pending"
			if m.AppliedAt != nil {
				at = m.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%-40s %s\n", m.Name, at)
		}
		return nil
	}),
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the database is reachable",
	RunE: withDB(func(ctx context.Context, db *sql.DB) error {
		var version string
		if err := db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
			return err
		}
		fmt.Println("connected to MySQL", version)
		return nil
	}),
}

// withDB opens the pool for the duration of one command.
func withDB(fn func(ctx context.Context, db *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		db, err := database.Open(ctx, cfg.DSN, cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(ctx, db)
	}
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the command")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", envOr("SEED_ADMIN_PASSWORD", "admin123"), "password of the seeded admin account")
	seedCmd.Flags().StringVar(&userPassword, "user-password", envOr("SEED_USER_PASSWORD", "password123"), "password of the seeded user account")
	rootCmd.AddCommand(upCmd, seedCmd, statusCmd, pingCmd)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
