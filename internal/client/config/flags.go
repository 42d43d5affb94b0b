package config

import (
	"github.com/spf13/pflag"
)

// Flag names.
const (
	FlagConfig         = "config"
	FlagAPIBaseURL     = "api-url"
	FlagStoragePath    = "storage"
	FlagRequestTimeout = "timeout"
	FlagLogLevel       = "log-level"
	FlagLogFormat      = "log-format"
	FlagOTLPEndpoint   = "otlp-endpoint"
)

// BindFlags registers the configuration flags on fs. Their defaults are
// empty: only flags set explicitly override the other sources.
//
//	-c, --config string          config file (JSON or YAML)
//	-a, --api-url string         backend API base URL
//	    --storage string         path of the local SQLite database
//	    --timeout duration       per-request timeout
//	    --log-level string       debug, info, warn or error
//	    --log-format string      text or json
//	    --otlp-endpoint string   OTLP/HTTP trace collector (host:port)
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "config file (JSON or YAML)")
	fs.StringP(FlagAPIBaseURL, "a", "", "backend API base URL")
	fs.String(FlagStoragePath, "", "path of the local SQLite database")
	fs.Duration(FlagRequestTimeout, 0, "per-request timeout")
	fs.String(FlagLogLevel, "", "log level: debug, info, warn or error")
	fs.String(FlagLogFormat, "", "log format: text or json")
	fs.String(FlagOTLPEndpoint, "", "OTLP/HTTP trace collector endpoint (host:port)")
}

// applyFlags copies every flag that was set on fs into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagAPIBaseURL:
			cfg.APIBaseURL = f.Value.String()
		case FlagStoragePath:
			cfg.StoragePath = f.Value.String()
		case FlagRequestTimeout:
			cfg.RequestTimeout, err = fs.GetDuration(FlagRequestTimeout)
		case FlagLogLevel:
			cfg.LogLevel = f.Value.String()
		case FlagLogFormat:
			cfg.LogFormat = f.Value.String()
		case FlagOTLPEndpoint:
			cfg.OTLPEndpoint = f.Value.String()
		}
	})
	return err
}
