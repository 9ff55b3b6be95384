package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON configuration file.
// Pointer fields distinguish "absent" from "zero", so a partial file only
// overrides the keys it contains. Durations use timex.Duration and accept
// both "30m" style strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	RefreshSecretKey             *string         `json:"refresh_secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
	MailServer                   *string         `json:"mail_server"`
	MailPort                     *int            `json:"mail_port"`
	MailUsername                 *string         `json:"mail_username"`
	MailPassword                 *string         `json:"mail_password"`
	MailFrom                     *string         `json:"mail_from"`
	MailStartTLS                 *bool           `json:"mail_starttls"`
	MailSSLTLS                   *bool           `json:"mail_ssl_tls"`
	CORSOrigins                  *string         `json:"cors_origins"`
	CookieSecure                 *bool           `json:"cookie_secure"`
	NotifierWorkers              *int            `json:"notifier_workers"`
	NotifierQueueSize            *int            `json:"notifier_queue_size"`
	LogBackend                   *string         `json:"log_backend"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag. Without the flag nothing is loaded.
// An unreadable file or invalid JSON causes a panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessSecretKey, c.SecretKey)
	setString(&config.RefreshSecretKey, c.RefreshSecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
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

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
