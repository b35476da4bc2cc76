package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/userauth/internal/config"
	"github.com/yourusername/userauth/internal/users"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply user store schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(os.Stdout)
			if err != nil {
				return err
			}

			switch cfg.UserStore {
			case config.UserStorePostgres, config.UserStoreSQLite:
			default:
				logger.Info("user store has no schema", "user_store", cfg.UserStore)
				return nil
			}

			// SQL ストアは Open の中でマイグレーションを適用する
			store, err := users.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", "user_store", cfg.UserStore)
			return store.Close()
		},
	}
}
