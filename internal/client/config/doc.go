// Package config loads runtime configuration for the TaskKeeper CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Supported flags
//
//	-a string   base URL of the TaskKeeper HTTP API
//	-t int      per-request timeout in seconds
//
// The JSON file uses timex.Duration for the timeout, so "10s" and integer
// nanoseconds are both accepted:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "10s"
//	}
package config
