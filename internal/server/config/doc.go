// Package config handles configuration for the gophauth server.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A dotenv file: -env-file, or ./.env when present.
//  3. Environment variables (caarlos0/env), e.g. DATABASE_URL or the
//     POSTGRES_* parts, SECRET_KEY, REFRESH_SECRET_KEY, MAIL_*.
//  4. Optional JSON file selected via -c or -config. Only keys present in
//     the file are applied.
//  5. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   HTTP listen address
//	-g string   gRPC health listen address
//	-d string   database DSN
//	-s string   access token secret
//	-f string   refresh token secret
//	-t int      access token validity (minutes)
//	-r int      refresh token validity (days)
//
// LoadConfig panics on unreadable or malformed sources; call
// (*Config).Validate before using the result.
package config
