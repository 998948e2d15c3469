// Package config holds the settings of the scoring server and the
// questionnaire client.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"assessment-backend/encryption"
	"assessment-backend/storage"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SCORING_"

// Config is the full configuration. The server reads Server and Scoring,
// the client reads Scoring.Scheme/KeySize and Client.
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server" json:"server"`
	Scoring ScoringConfig `toml:"scoring" yaml:"scoring" json:"scoring"`
	Client  ClientConfig  `toml:"client" yaml:"client" json:"client"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `toml:"addr" yaml:"addr" json:"addr"`
	AllowedOrigins  []string `toml:"allowed_origins" yaml:"allowedOrigins" json:"allowedOrigins"`
	RequestTimeout  Duration `toml:"request_timeout" yaml:"requestTimeout" json:"requestTimeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" yaml:"shutdownTimeout" json:"shutdownTimeout"`
}

// ScoringConfig configures the encryption scheme and the evaluation pool.
type ScoringConfig struct {
	Scheme          string   `toml:"scheme" yaml:"scheme" json:"scheme"`
	KeySize         int      `toml:"key_size" yaml:"keySize" json:"keySize"`
	ModelFile       string   `toml:"model_file" yaml:"modelFile" json:"modelFile"`
	Workers         int      `toml:"workers" yaml:"workers" json:"workers"`
	QueueSize       int      `toml:"queue_size" yaml:"queueSize" json:"queueSize"`
	ProcessingDelay Duration `toml:"processing_delay" yaml:"processingDelay" json:"processingDelay"`
	InitOnStart     bool     `toml:"init_on_start" yaml:"initOnStart" json:"initOnStart"`
}

// ClientConfig configures the questionnaire client and its key store.
type ClientConfig struct {
	ServerURL    string   `toml:"server_url" yaml:"serverUrl" json:"serverUrl"`
	Identity     string   `toml:"identity" yaml:"identity" json:"identity"`
	KeyStore     string   `toml:"key_store" yaml:"keyStore" json:"keyStore"`
	KeyStorePath string   `toml:"key_store_path" yaml:"keyStorePath" json:"keyStorePath"`
	Passphrase   string   `toml:"-" yaml:"-" json:"-"`
	Timeout      Duration `toml:"timeout" yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:3000"},
			RequestTimeout:  Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Scoring: ScoringConfig{
			Scheme:    encryption.PaillierName,
			KeySize:   encryption.DefaultPaillierKeySize,
			Workers:   4,
			QueueSize: 64,
		},
		Client: ClientConfig{
			ServerURL:    "http://localhost:8080/ml",
			Identity:     "default",
			KeyStore:     storage.BackendFile,
			KeyStorePath: "keys",
			Timeout:      Duration(30 * time.Second),
		},
	}
}

// ApplyEnvOverrides replaces settings with SCORING_* environment variables
// where they are set.
func (c *Config) ApplyEnvOverrides() error {
	var errs []error
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *Duration) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			if err := dst.Set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
		}
	}

	str("ADDR", &c.Server.Addr)
	if v := os.Getenv(EnvPrefix + "ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	dur("REQUEST_TIMEOUT", &c.Server.RequestTimeout)
	dur("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	str("SCHEME", &c.Scoring.Scheme)
	num("KEY_SIZE", &c.Scoring.KeySize)
	str("MODEL_FILE", &c.Scoring.ModelFile)
	num("WORKERS", &c.Scoring.Workers)
	num("QUEUE_SIZE", &c.Scoring.QueueSize)
	dur("PROCESSING_DELAY", &c.Scoring.ProcessingDelay)

	str("SERVER_URL", &c.Client.ServerURL)
	str("IDENTITY", &c.Client.Identity)
	str("KEYSTORE", &c.Client.KeyStore)
	str("KEYSTORE_PATH", &c.Client.KeyStorePath)
	str("KEYSTORE_PASSPHRASE", &c.Client.Passphrase)
	dur("CLIENT_TIMEOUT", &c.Client.Timeout)

	return errors.Join(errs...)
}

// Validate checks the configuration for values the programs cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.RequestTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}

	if c.Scoring.Scheme != encryption.PaillierName {
		errs = append(errs, fmt.Errorf("scoring.scheme %q is not supported", c.Scoring.Scheme))
	}
	if c.Scoring.KeySize < encryption.MinPaillierKeySize {
		errs = append(errs, fmt.Errorf("scoring.key_size must be at least %d", encryption.MinPaillierKeySize))
	}
	if c.Scoring.Workers < 1 {
		errs = append(errs, errors.New("scoring.workers must be at least 1"))
	}
	if c.Scoring.QueueSize < 0 {
		errs = append(errs, errors.New("scoring.queue_size must not be negative"))
	}
	if c.Scoring.ProcessingDelay < 0 {
		errs = append(errs, errors.New("scoring.processing_delay must not be negative"))
	}

	switch c.Client.KeyStore {
	case storage.BackendMemory, storage.BackendFile, storage.BackendSQLite:
	case storage.BackendSealed:
		if c.Client.Passphrase == "" {
			errs = append(errs, fmt.Errorf("client.key_store %q needs %sKEYSTORE_PASSPHRASE", storage.BackendSealed, EnvPrefix))
		}
	default:
		errs = append(errs, fmt.Errorf("client.key_store %q is not supported", c.Client.KeyStore))
	}
	if c.Client.KeyStore != storage.BackendMemory && c.Client.KeyStorePath == "" {
		errs = append(errs, errors.New("client.key_store_path is required"))
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, errors.New("client.timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// StorageOptions returns the key store options of the client section.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:    c.Client.KeyStore,
		Path:       c.Client.KeyStorePath,
		Passphrase: c.Client.Passphrase,
	}
}

// Duration is a time.Duration written as "30s" in every config format.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(text []byte) error { return d.Set(string(text)) }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error { return d.Set(node.Value) }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
