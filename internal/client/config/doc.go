// Package config loads runtime configuration for the reviewctl client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJSON) selected via flags: -c or -config.
//  3. Optional .env file selected via -envfile, loaded into the environment.
//  4. Environment variables (REVIEWHUB_ACCOUNT_URL, REVIEWHUB_CATEGORY_URL,
//     REVIEWHUB_STORE, REVIEWHUB_TIMEOUT).
//  5. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string     base URL of the account service
//	-k string     base URL of the category service
//	-f string     path of the local session store
//	-t duration   per-request timeout
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so it can be either a
// string like "10s" or integer nanoseconds:
//
//	{
//	  "account_url": "http://localhost:8080",
//	  "category_url": "http://localhost:8081",
//	  "store_path": "reviewhub.db",
//	  "request_timeout": "10s"
//	}
package config
