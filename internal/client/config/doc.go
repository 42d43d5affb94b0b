// Package config loads runtime configuration for the restodash client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c / --config. Files ending in
//     .yaml or .yml are read as YAML, anything else as JSON.
//  3. Environment variables prefixed with RESTODASH_, with a .env file in the
//     working directory filling in variables that are not already set.
//  4. Command-line flags (see BindFlags), which override everything else.
//
// # File schema
//
// Durations may be strings like "15s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:3000/api",
//	  "storage_path": "/home/me/.config/restodash/restodash.db",
//	  "request_timeout": "15s",
//	  "log_level": "info",
//	  "log_format": "text",
//	  "otlp_endpoint": ""
//	}
//
// # Environment
//
//	RESTODASH_API_BASE_URL, RESTODASH_STORAGE_PATH, RESTODASH_REQUEST_TIMEOUT,
//	RESTODASH_LOG_LEVEL, RESTODASH_LOG_FORMAT, RESTODASH_OTLP_ENDPOINT
package config
