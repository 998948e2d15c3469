package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"assessment-backend/models"
)

// Load reads the configuration file at path on top of the defaults and
// applies the environment overrides. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	return cfg, nil
}

// LoadModel reads a scoring model from path. An empty path yields the
// default model. Labels left out of the file default to the standard bands.
func LoadModel(path string) (*models.Model, error) {
	if path == "" {
		return models.DefaultModel(), nil
	}
	m := &models.Model{}
	if err := decodeFile(path, m); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if len(m.Labels) == 0 {
		m.Labels = models.DefaultLabels()
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

// Parse builds the configuration from the -config file, the environment
// and the command-line flags, in that order of precedence (flags win). The
// positional arguments left after the flags are returned as well.
func Parse(name string, args []string) (*Config, []string, error) {
	// The first pass only finds the config file path.
	var path string
	pre := flag.NewFlagSet(name, flag.ContinueOnError)
	bindFlags(pre, DefaultConfig(), &path)
	if err := pre.Parse(args); err != nil {
		return nil, nil, err
	}
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	bindFlags(fs, cfg, &path)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, fs.Args(), nil
}

func bindFlags(fs *flag.FlagSet, cfg *Config, path *string) {
	fs.StringVar(path, "config", *path, "Configuration file (.toml, .yaml, .yml or .json)")

	fs.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "Server listen address")
	fs.Func("cors-origins", "Comma-separated list of allowed CORS origins", func(s string) error {
		cfg.Server.AllowedOrigins = splitList(s)
		return nil
	})
	fs.Var(&cfg.Server.RequestTimeout, "request-timeout", "Per-request timeout")
	fs.Var(&cfg.Server.ShutdownTimeout, "shutdown-timeout", "Graceful shutdown timeout")

	fs.StringVar(&cfg.Scoring.Scheme, "scheme", cfg.Scoring.Scheme, "Homomorphic encryption scheme")
	fs.IntVar(&cfg.Scoring.KeySize, "key-size", cfg.Scoring.KeySize, "Key size in bits")
	fs.StringVar(&cfg.Scoring.ModelFile, "model", cfg.Scoring.ModelFile, "Scoring model file")
	fs.IntVar(&cfg.Scoring.Workers, "workers", cfg.Scoring.Workers, "Number of evaluation workers")
	fs.IntVar(&cfg.Scoring.QueueSize, "queue", cfg.Scoring.QueueSize, "Evaluation queue capacity")
	fs.Var(&cfg.Scoring.ProcessingDelay, "delay", "Artificial delay before each evaluation")
	fs.BoolVar(&cfg.Scoring.InitOnStart, "init", cfg.Scoring.InitOnStart, "Initialize the scoring engine at startup")

	fs.StringVar(&cfg.Client.ServerURL, "server", cfg.Client.ServerURL, "Scoring service base URL")
	fs.StringVar(&cfg.Client.Identity, "identity", cfg.Client.Identity, "Key identity; empty picks a random one-off identity")
	fs.StringVar(&cfg.Client.KeyStore, "keystore", cfg.Client.KeyStore, "Key store backend (memory, file, sealed, sqlite)")
	fs.StringVar(&cfg.Client.KeyStorePath, "keystore-path", cfg.Client.KeyStorePath, "Key store directory or database file")
	fs.Var(&cfg.Client.Timeout, "timeout", "Client request timeout")
}

func decodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := filepath.Ext(path); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), v); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return errors.New("unsupported file extension " + ext)
	}
	return nil
}
