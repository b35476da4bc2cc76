package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/yourusername/userauth/internal/config"
	"github.com/yourusername/userauth/internal/logging"
)

type rootOptions struct {
	envFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "userauth",
		Short:         "Username/password web application",
		SilenceUsage:  true,
		SilenceErrors: true,
		// サブコマンド省略時は serve と同じ
		RunE: runServe(opts),
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "path to a dotenv file (default: .env.local)")

	cmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newHashPasswordCommand(),
	)
	return cmd
}

// load は設定を読み込み、設定に従ったロガーを返します。
func (o *rootOptions) load(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.Setup(cfg.LogFormat, cfg.LogLevel, w)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
