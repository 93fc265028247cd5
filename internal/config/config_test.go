package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParse_Defaults(t *testing.T) {
	opts, err := Parse([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", opts.Addr)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, StoreMemory, opts.Store)
	assert.Equal(t, "gpt-4o", opts.GeneratorModel)
	assert.Equal(t, 45*time.Second, time.Duration(opts.GenerateTimeout))
	assert.Equal(t, 10*time.Second, time.Duration(opts.ShutdownTimeout))
	assert.InDelta(t, 1.0, opts.GenerateRPS, 0.0001)
	assert.Empty(t, opts.GeneratorAPIKey)
}

func TestParse_Precedence(t *testing.T) {
	path := writeConfig(t, `{
		"address": "file:1",
		"log_level": "warn",
		"store": "file",
		"generate_timeout": "30s",
		"allowed_origins": ["https://file.example"]
	}`)
	t.Setenv("SERVER_ADDRESS", "env:1")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_PREFIX", "env:")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	opts, err := Parse([]string{"-c", path, "-a", "flag:1"})
	require.NoError(t, err)

	assert.Equal(t, "flag:1", opts.Addr, "explicit flag beats config file")
	assert.Equal(t, "warn", opts.LogLevel, "config file beats environment")
	assert.Equal(t, "env:", opts.RedisPrefix, "environment beats default")
	assert.Equal(t, StoreFile, opts.Store)
	assert.Equal(t, 30*time.Second, time.Duration(opts.GenerateTimeout))
	assert.Equal(t, List{"https://file.example"}, opts.AllowedOrigins)
}

func TestParse_EnvOnly(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("GENERATE_TIMEOUT", "2m")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	opts, err := Parse([]string{"-c", ""})
	require.NoError(t, err)
	assert.Equal(t, List{"https://a.example", "https://b.example"}, opts.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, time.Duration(opts.GenerateTimeout))
	assert.Equal(t, "sk-env", opts.GeneratorAPIKey)
}

func TestParse_FlagTypes(t *testing.T) {
	opts, err := Parse([]string{
		"-c", "",
		"-generate-timeout", "5s",
		"-generate-rps", "2.5",
		"-origins", "https://x.example",
		"-s", "redis",
	})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, time.Duration(opts.GenerateTimeout))
	assert.InDelta(t, 2.5, opts.GenerateRPS, 0.0001)
	assert.Equal(t, List{"https://x.example"}, opts.AllowedOrigins)
	assert.Equal(t, StoreRedis, opts.Store)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{name: "unknown store", args: []string{"-c", "", "-s", "mongo"}, want: `unknown store "mongo"`},
		{name: "postgres without dsn", args: []string{"-c", "", "-s", "postgres"}, want: "database DSN"},
		{name: "half tls", args: []string{"-c", "", "-tls-cert", "server.crt"}, want: "tls cert and key"},
		{name: "bad duration", args: []string{"-c", "", "-generate-timeout", "soon"}, want: "invalid value"},
		{name: "bad env", args: []string{"-c", ""}, env: map[string]string{"GENERATE_RPS": "fast"}, want: "read environment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_BadConfigFile(t *testing.T) {
	_, err := Parse([]string{"-c", writeConfig(t, `{not json`)})
	assert.ErrorContains(t, err, "error while parsing config file")
}
