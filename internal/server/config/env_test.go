package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverridesFromEnvironment(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("SECRET_KEY", "env-access")
	t.Setenv("REFRESH_SECRET_KEY", "env-refresh")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "2")
	t.Setenv("MAIL_STARTTLS", "false")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/auth")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, ":7000", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, "env-access", c.AccessSecretKey)
	assert.Equal(t, "env-refresh", c.RefreshSecretKey)
	assert.Equal(t, 5*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 48*time.Hour, c.RefreshTokenValidityDuration)
	assert.False(t, c.MailStartTLS)
	assert.True(t, c.CookieSecure)
	assert.Equal(t, "postgres://u:p@db:5432/auth", c.DatabaseDSN)
}

func TestParseEnv_BuildsDSNFromPostgresParts(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Setenv("POSTGRES_USER", "auth")
	t.Setenv("POSTGRES_PASSWORD", "p@ss")
	t.Setenv("POSTGRES_SERVER", "pg")
	t.Setenv("POSTGRES_DB", "authdb")

	var c Config
	parseEnv(&c)

	assert.Equal(t, "postgres://auth:p%40ss@pg:5432/authdb?sslmode=disable", c.DatabaseDSN)
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GRPC_ADDR=:6000\nBCRYPT_COST=6\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("GRPC_ADDR")
		os.Unsetenv("BCRYPT_COST")
	})

	os.Args = []string{"testbin", "-env-file", path}

	var c Config
	parseEnv(&c)

	assert.Equal(t, ":6000", c.EndpointAddrGRPC)
	assert.Equal(t, 6, c.BcryptCost)
}

func TestParseEnv_MissingExplicitFilePanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-env-file", filepath.Join(t.TempDir(), "absent.env")}

	require.Panics(t, func() { parseEnv(&Config{}) })
}

func TestParseEnv_InvalidValuePanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	t.Setenv("BCRYPT_COST", "many")

	require.Panics(t, func() { parseEnv(&Config{}) })
}
