package config

import (
	"errors"
	"io/fs"
	"net"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// EnvConfig mirrors the environment variables understood by the server.
// Unset variables stay nil and leave the current value untouched.
type EnvConfig struct {
	HTTPAddr                 *string `env:"HTTP_ADDR"`
	GRPCAddr                 *string `env:"GRPC_ADDR"`
	DatabaseURL              *string `env:"DATABASE_URL"`
	PostgresUser             *string `env:"POSTGRES_USER"`
	PostgresPassword         *string `env:"POSTGRES_PASSWORD"`
	PostgresServer           *string `env:"POSTGRES_SERVER"`
	PostgresPort             *string `env:"POSTGRES_PORT"`
	PostgresDB               *string `env:"POSTGRES_DB"`
	SecretKey                *string `env:"SECRET_KEY"`
	RefreshSecretKey         *string `env:"REFRESH_SECRET_KEY"`
	AccessTokenExpireMinutes *int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	RefreshTokenExpireDays   *int    `env:"REFRESH_TOKEN_EXPIRE_DAYS"`
	BcryptCost               *int    `env:"BCRYPT_COST"`
	MailServer               *string `env:"MAIL_SERVER"`
	MailPort                 *int    `env:"MAIL_PORT"`
	MailUsername             *string `env:"MAIL_USERNAME"`
	MailPassword             *string `env:"MAIL_PASSWORD"`
	MailFrom                 *string `env:"MAIL_FROM"`
	MailStartTLS             *bool   `env:"MAIL_STARTTLS"`
	MailSSLTLS               *bool   `env:"MAIL_SSL_TLS"`
	CORSOrigins              *string `env:"CORS_ORIGINS"`
	CookieSecure             *bool   `env:"COOKIE_SECURE"`
	NotifierWorkers          *int    `env:"NOTIFIER_WORKERS"`
	NotifierQueueSize        *int    `env:"NOTIFIER_QUEUE_SIZE"`
	LogBackend               *string `env:"LOG_BACKEND"`
}

// parseEnv loads a dotenv file (the -env-file flag, or ./.env when present)
// and then overlays the process environment onto config. Variables already
// set in the environment win over the dotenv file.
func parseEnv(config *Config) {
	if err := loadDotEnv(flagx.EnvFileFlags()); err != nil {
		panic(err)
	}

	c := &EnvConfig{}
	if err := env.Parse(c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func loadDotEnv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	err := godotenv.Load(defaultEnvFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *EnvConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.HTTPAddr)
	setString(&config.EndpointAddrGRPC, c.GRPCAddr)

	switch {
	case c.DatabaseURL != nil:
		config.DatabaseDSN = *c.DatabaseURL
	case c.PostgresServer != nil:
		config.DatabaseDSN = c.postgresDSN()
	}

	setString(&config.AccessSecretKey, c.SecretKey)
	setString(&config.RefreshSecretKey, c.RefreshSecretKey)
	if c.AccessTokenExpireMinutes != nil {
		config.AccessTokenValidityDuration = time.Duration(*c.AccessTokenExpireMinutes) * time.Minute
	}
	if c.RefreshTokenExpireDays != nil {
		config.RefreshTokenValidityDuration = time.Duration(*c.RefreshTokenExpireDays) * 24 * time.Hour
	}
	setValue(&config.BcryptCost, c.BcryptCost)
	setString(&config.MailServer, c.MailServer)
	setValue(&config.MailPort, c.MailPort)
	setString(&config.MailUsername, c.MailUsername)
	setString(&config.MailPassword, c.MailPassword)
	setString(&config.MailFrom, c.MailFrom)
	setValue(&config.MailStartTLS, c.MailStartTLS)
	setValue(&config.MailSSLTLS, c.MailSSLTLS)
	setString(&config.CORSOrigins, c.CORSOrigins)
	setValue(&config.CookieSecure, c.CookieSecure)
	setValue(&config.NotifierWorkers, c.NotifierWorkers)
	setValue(&config.NotifierQueueSize, c.NotifierQueueSize)
	setString(&config.LogBackend, c.LogBackend)
}

// postgresDSN assembles a DSN from the POSTGRES_* variables.
func (c *EnvConfig) postgresDSN() string {
	port := "5432"
	if c.PostgresPort != nil && *c.PostgresPort != "" {
		port = *c.PostgresPort
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(deref(c.PostgresServer), port),
		Path:     "/" + deref(c.PostgresDB),
		RawQuery: "sslmode=disable",
	}
	if user := deref(c.PostgresUser); user != "" {
		u.User = url.UserPassword(user, deref(c.PostgresPassword))
	}
	return u.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
