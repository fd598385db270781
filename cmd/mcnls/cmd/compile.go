package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/Christiano300/mcn-ls/internal/compiler"
	"github.com/Christiano300/mcn-ls/internal/config"
	"github.com/Christiano300/mcn-ls/internal/lang"
	"github.com/Christiano300/mcn-ls/internal/reporter"
)

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "Compile MCN source files to assembly",
		ArgsUsage: "[FILE|GLOB...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Diagnostics output format: text, json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for assembly output (default: print to stdout)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"), nil)
			if err != nil {
				return err
			}

			files, err := expandArgs(cmd.Args().Slice())
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no %s files matched", lang.FileExtension)
			}

			adapter := compiler.New(cfg.Compile.MaxSourceBytes)
			format := cmd.String("format")
			outDir := cmd.String("output")

			hasErrors := false
			for _, file := range files {
				source, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading %s: %w", file, err)
				}

				result := adapter.Compile(string(source))
				if len(result.Diagnostics) > 0 {
					hasErrors = true
					switch format {
					case "json":
						if err := reporter.PrintJSON(os.Stdout, file, result.Diagnostics); err != nil {
							return err
						}
					default:
						if err := reporter.PrintText(os.Stderr, file, result.Diagnostics, source); err != nil {
							return err
						}
					}
					continue
				}

				if err := writeAssembly(file, outDir, result.Assembly); err != nil {
					return err
				}
			}

			if hasErrors {
				return fmt.Errorf("compilation failed")
			}
			return nil
		},
	}
}

// expandArgs resolves file and glob arguments to MCN source files. A
// bare argument without meta characters is taken literally so a typo'd
// filename still errors instead of silently matching nothing.
func expandArgs(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"*" + lang.FileExtension}
	}

	var files []string
	seen := make(map[string]bool)
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			if !seen[arg] {
				seen[arg] = true
				files = append(files, arg)
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		for _, m := range matches {
			if filepath.Ext(m) != lang.FileExtension || seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files, nil
}

// writeAssembly emits the compiled program, either to stdout or to a
// sibling file under outDir with the extension swapped to .mcnasm.
func writeAssembly(sourceFile, outDir, assembly string) error {
	if outDir == "" {
		_, err := fmt.Print(assembly)
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(sourceFile), lang.FileExtension) + ".mcnasm"
	return os.WriteFile(filepath.Join(outDir, base), []byte(assembly), 0o644)
}
