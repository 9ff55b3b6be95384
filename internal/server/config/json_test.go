package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":              "www.example:8000",
		"endpoint_addr_grpc":              "www.example:9000",
		"database_dsn":                    "postgres://db",
		"secret_key":                      "my_secret_key",
		"refresh_secret_key":              "my_refresh_key",
		"access_token_validity_duration":  "1m",
		"refresh_token_validity_duration": "72h",
		"bcrypt_cost":                     11,
		"mail_server":                     "smtp.example.com",
		"mail_port":                       465,
		"mail_username":                   "mailer",
		"mail_password":                   "pw",
		"mail_from":                       "noreply@example.com",
		"mail_starttls":                   false,
		"mail_ssl_tls":                    true,
		"cors_origins":                    "https://app.example.com",
		"cookie_secure":                   true,
		"notifier_workers":                4,
		"notifier_queue_size":             8,
		"log_backend":                     "zap",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:8000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.AccessSecretKey)
		assert.Equal(t, "my_refresh_key", cfg.RefreshSecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 72*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 11, cfg.BcryptCost)
		assert.Equal(t, "smtp.example.com", cfg.MailServer)
		assert.Equal(t, 465, cfg.MailPort)
		assert.Equal(t, "mailer", cfg.MailUsername)
		assert.Equal(t, "pw", cfg.MailPassword)
		assert.Equal(t, "noreply@example.com", cfg.MailFrom)
		assert.False(t, cfg.MailStartTLS)
		assert.True(t, cfg.MailSSLTLS)
		assert.Equal(t, "https://app.example.com", cfg.CORSOrigins)
		assert.True(t, cfg.CookieSecure)
		assert.Equal(t, 4, cfg.NotifierWorkers)
		assert.Equal(t, 8, cfg.NotifierQueueSize)
		assert.Equal(t, "zap", cfg.LogBackend)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"endpoint_addr_http": ":9999",
		})
		os.Args = []string{"testbin", "-c", partial}

		var cfg Config
		cfg.LoadDefaults()
		parseJson(&cfg)

		assert.Equal(t, ":9999", cfg.EndpointAddrHTTP)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
		assert.Equal(t, "secretKey", cfg.AccessSecretKey)
		assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
		assert.True(t, cfg.MailStartTLS)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrHTTP:            "defaults:1234",
			AccessSecretKey:             "key",
			AccessTokenValidityDuration: 2 * time.Minute,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.AccessSecretKey)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
