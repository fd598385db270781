package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/urfave/cli/v3"

	"github.com/Christiano300/mcn-ls/internal/config"
	"github.com/Christiano300/mcn-ls/internal/lang"
)

func highlightCommand() *cli.Command {
	return &cli.Command{
		Name:      "highlight",
		Usage:     "Print an MCN source file with syntax highlighting",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "style",
				Usage: "Color style (overrides config)",
			},
			&cli.StringFlag{
				Name:  "formatter",
				Usage: "Output formatter, e.g. terminal256, html (overrides config)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one file argument")
			}
			overrides := map[string]any{}
			if v := cmd.String("style"); v != "" {
				overrides["highlight.style"] = v
			}
			if v := cmd.String("formatter"); v != "" {
				overrides["highlight.formatter"] = v
			}
			cfg, err := config.Load(cmd.String("config"), overrides)
			if err != nil {
				return err
			}

			source, err := os.ReadFile(cmd.Args().First())
			if err != nil {
				return err
			}

			iterator, err := chroma.Coalesce(lang.Lexer).Tokenise(nil, string(source))
			if err != nil {
				return fmt.Errorf("tokenizing: %w", err)
			}
			return formatters.Get(cfg.Highlight.Formatter).Format(os.Stdout, styles.Get(cfg.Highlight.Style), iterator)
		},
	}
}
