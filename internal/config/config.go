// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables and
// an optional JSON config file.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Duration is a time.Duration that reads "45s" style strings from JSON,
// environment variables and flags.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error { return d.Set(string(b)) }

// List is a comma separated list of strings.
type List []string

func (l List) String() string { return strings.Join(l, ",") }

// Set implements flag.Value.
func (l *List) Set(s string) error {
	*l = nil
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `json:"address" envconfig:"SERVER_ADDRESS" default:"localhost:8080"`
	// LogLevel is a zap level name.
	LogLevel string `json:"log_level" envconfig:"LOG_LEVEL" default:"info"`

	// Store selects the persistence backend: memory, file, postgres or redis.
	Store       string `json:"store" envconfig:"STORE" default:"memory"`
	FilePath    string `json:"file_path" envconfig:"STORE_FILE" default:"scrollie.json"`
	DatabaseDSN string `json:"database_dsn" envconfig:"DATABASE_DSN"`
	RedisAddr   string `json:"redis_addr" envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPrefix string `json:"redis_prefix" envconfig:"REDIS_PREFIX" default:"scrollie:"`

	GeneratorBaseURL string `json:"generator_base_url" envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	// GeneratorAPIKey enables model generation. Without it every project
	// gets placeholder content.
	GeneratorAPIKey string   `json:"generator_api_key" envconfig:"OPENAI_API_KEY"`
	GeneratorModel  string   `json:"generator_model" envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	GenerateTimeout Duration `json:"generate_timeout" envconfig:"GENERATE_TIMEOUT" default:"45s"`
	GenerateRPS     float64  `json:"generate_rps" envconfig:"GENERATE_RPS" default:"1"`

	AllowedOrigins List `json:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert" envconfig:"TLS_CERT"`
	TLSKey  string `json:"tls_key" envconfig:"TLS_KEY"`

	ShutdownTimeout Duration `json:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Config is the path to the Config file.
	Config string `json:"-" envconfig:"CONFIG" default:"config.json"`
}

// Parse builds Options from, in increasing order of precedence: defaults,
// environment variables (a .env file in the working directory is loaded
// first), the JSON config file and explicitly set command-line flags.
func Parse(args []string) (*Options, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	options := &Options{}
	if err := envconfig.Process("", options); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	fs := flag.NewFlagSet("scrollie", flag.ContinueOnError)
	fs.StringVar(&options.Addr, "a", options.Addr, "run on ip:port server")
	fs.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	fs.StringVar(&options.Store, "s", options.Store, "store backend: memory, file, postgres or redis")
	fs.StringVar(&options.FilePath, "f", options.FilePath, "path of the file store")
	fs.StringVar(&options.DatabaseDSN, "d", options.DatabaseDSN, "db address")
	fs.StringVar(&options.RedisAddr, "redis", options.RedisAddr, "redis address")
	fs.StringVar(&options.RedisPrefix, "redis-prefix", options.RedisPrefix, "redis key prefix")
	fs.StringVar(&options.GeneratorBaseURL, "generator-url", options.GeneratorBaseURL, "chat completions API base URL")
	fs.StringVar(&options.GeneratorModel, "model", options.GeneratorModel, "text generation model")
	fs.Var(&options.GenerateTimeout, "generate-timeout", "generation deadline")
	fs.Float64Var(&options.GenerateRPS, "generate-rps", options.GenerateRPS, "max generation requests per second")
	fs.Var(&options.AllowedOrigins, "origins", "comma separated CORS origins")
	fs.StringVar(&options.TLSCert, "tls-cert", options.TLSCert, "TLS certificate file")
	fs.StringVar(&options.TLSKey, "tls-key", options.TLSKey, "TLS key file")
	fs.Var(&options.ShutdownTimeout, "shutdown-timeout", "graceful shutdown deadline")
	fs.StringVar(&options.Config, "config", options.Config, "path to config file")
	fs.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	explicit := map[string]string{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = f.Value.String() })

	if options.Config != "" {
		data, err := os.ReadFile(options.Config)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("error while reading config file: %w", err)
		default:
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return nil, err
		}
	}

	if err := options.validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func (o *Options) validate() error {
	switch o.Store {
	case StoreMemory, StoreFile, StoreRedis:
	case StorePostgres:
		if o.DatabaseDSN == "" {
			return errors.New("postgres store needs a database DSN")
		}
	default:
		return fmt.Errorf("unknown store %q", o.Store)
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return errors.New("tls cert and key must be set together")
	}
	if o.GenerateRPS < 0 {
		return errors.New("generate rps cannot be negative")
	}
	return nil
}
