package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/Christiano300/mcn-ls/internal/compiler"
	"github.com/Christiano300/mcn-ls/internal/config"
	"github.com/Christiano300/mcn-ls/internal/lspserver"
)

func lspCommand() *cli.Command {
	return &cli.Command{
		Name:  "lsp",
		Usage: "Run the MCN language server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "Serve over stdin/stdout",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log verbosity (overrides config): panic, fatal, error, warn, info, debug, trace",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			overrides := map[string]any{}
			if v := cmd.String("log-level"); v != "" {
				overrides["lsp.log_level"] = v
			}
			cfg, err := config.Load(cmd.String("config"), overrides)
			if err != nil {
				return err
			}

			level, err := logrus.ParseLevel(cfg.LSP.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LSP.LogLevel, err)
			}
			// stdout carries the protocol; logs must stay on stderr
			logrus.SetOutput(os.Stderr)
			logrus.SetLevel(level)

			if !cmd.Bool("stdio") {
				return fmt.Errorf("only stdio transport is supported")
			}

			server := lspserver.New(compiler.New(cfg.Compile.MaxSourceBytes))
			return server.RunStdio(ctx)
		},
	}
}
