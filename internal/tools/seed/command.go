package seed

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Shalbulov/zentro-risk-prediction/internal/config"
	"github.com/Shalbulov/zentro-risk-prediction/internal/database"
)

type options struct {
	bootstrapAdminEmail string
	demoPassword        string
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database migration and seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.bootstrapAdminEmail, "bootstrap-admin-email", "", "override bootstrap admin email")
	cmd.AddCommand(newApplyCommand(opts), newDemoCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Migrate the schema and promote the bootstrap admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := loadConfigDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			email := cfg.BootstrapAdminEmail
			if opts.bootstrapAdminEmail != "" {
				email = opts.bootstrapAdminEmail
			}
			if err := database.Seed(db, email); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			cmd.Println("migration complete")
			if email != "" {
				cmd.Println("admin promotion applied for: " + email)
			}
			return nil
		},
	}
}

func newDemoCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Insert pre-verified demo accounts for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.demoPassword == "" {
				return fmt.Errorf("--password is required")
			}
			_, db, err := loadConfigDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := database.SeedDemoUsers(db, opts.demoPassword); err != nil {
				return fmt.Errorf("seed demo users: %w", err)
			}
			cmd.Println("demo users seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.demoPassword, "password", "", "password shared by the demo accounts")
	return cmd
}

func loadConfigDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
