// Package config loads runtime configuration for the gophauth client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config:
//
//	{
//	  "server_url": "http://localhost:8000",
//	  "request_timeout": "10s"
//	}
//
//  3. Command-line flags, which override earlier values:
//
//	-a string   base URL of the API server
//	-t int      request timeout (seconds)
package config
