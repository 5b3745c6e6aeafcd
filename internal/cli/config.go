package cli

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppConfig is the CLI's own configuration: where to find inputs and
// where to put outputs. Engine tuning lives in its own file, loaded
// separately, so organizers can share one tuning profile across
// events.
type AppConfig struct {
	// EngineConfig is the path to the engine tuning YAML. Empty means
	// built-in defaults.
	EngineConfig string `koanf:"engine_config"`

	// Roster is the path to the roster snapshot YAML.
	Roster string `koanf:"roster"`

	// Tournament identifies the event; it keys the output document and
	// guards against stale roster files.
	Tournament string `koanf:"tournament"`

	// Evidence is an optional path to an external skill-history dump.
	Evidence string `koanf:"evidence"`

	// OutputDir is where the teams document is written.
	OutputDir string `koanf:"output_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		OutputDir: "teams",
		LogLevel:  "info",
	}
}

// LoadAppConfig builds the CLI configuration by layering defaults, an
// optional YAML file, and environment variables.
// Order of precedence (low -> high):
//  1. defaults
//  2. file (YAML) if path is non-empty
//  3. env (prefix NEXUS_)
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := defaultAppConfig()

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	// NEXUS_ROSTER -> roster, NEXUS_OUTPUT_DIR -> output_dir.
	envProvider := env.Provider("NEXUS_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "nexus_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
