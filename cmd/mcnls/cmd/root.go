package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Christiano300/mcn-ls/internal/version"
)

// NewApp creates the CLI application
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "mcnls",
		Usage:   "Compiler and language server for MCN",
		Version: version.Version(),
		Description: `mcnls compiles MCN programs to redstone computer assembly and serves
editor diagnostics over the Language Server Protocol.

Examples:
  mcnls compile main.mcn
  mcnls compile --format json 'src/**/*.mcn'
  mcnls highlight main.mcn
  mcnls lsp --stdio`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file (default: .mcnls.toml in the working directory)",
			},
		},
		Commands: []*cli.Command{
			compileCommand(),
			highlightCommand(),
			lspCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
