// Package config loads runtime configuration for the wsdrive CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the server HTTP API
//	-w string   workspace to open
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "workspace": "ws1",
//	  "request_timeout": "30s",
//	  "download_dir": "downloads"
//	}
//
// The access token is never read from configuration; the CLI prompts for it.
package config
