// Package config loads mcn-ls configuration from defaults, an optional
// TOML file and MCNLS_-prefixed environment variables, in that order of
// precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultFileName is the config file searched in the working directory
// when no explicit path is given.
const DefaultFileName = ".mcnls.toml"

const envPrefix = "MCNLS_"

// Config is the complete mcn-ls configuration.
type Config struct {
	Compile   CompileConfig   `koanf:"compile"`
	LSP       LSPConfig       `koanf:"lsp"`
	Highlight HighlightConfig `koanf:"highlight"`
}

// CompileConfig bounds the compiler.
type CompileConfig struct {
	// MaxSourceBytes rejects larger documents before lexing.
	MaxSourceBytes int `koanf:"max_source_bytes"`
}

// LSPConfig tunes the language server.
type LSPConfig struct {
	// LogLevel is a logrus level name (panic..trace).
	LogLevel string `koanf:"log_level"`
}

// HighlightConfig selects terminal highlighting output.
type HighlightConfig struct {
	// Style is a chroma style name.
	Style string `koanf:"style"`
	// Formatter is a chroma formatter name, e.g. "terminal16m".
	Formatter string `koanf:"formatter"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Compile: CompileConfig{
			MaxSourceBytes: 1 << 20,
		},
		LSP: LSPConfig{
			LogLevel: "info",
		},
		Highlight: HighlightConfig{
			Style:     "monokai",
			Formatter: "terminal256",
		},
	}
}

// Load resolves the configuration. path selects an explicit config file;
// when empty, DefaultFileName is used if it exists. Environment
// variables override file values (MCNLS_COMPILE_MAX_SOURCE_BYTES maps to
// compile.max_source_bytes) and overrides, typically CLI flags keyed by
// config path, win over everything.
func Load(path string, overrides map[string]any) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", path, err)
		}
	} else if explicit {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "_", ".")
			// compile.max.source.bytes -> compile.max_source_bytes
			if i := strings.Index(key, "."); i >= 0 {
				key = key[:i+1] + strings.ReplaceAll(key[i+1:], ".", "_")
			}
			return key, value
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("applying overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
