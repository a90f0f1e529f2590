package observe

import (
	"errors"

	"github.com/jonwraymond/cachestats/observe/exporters"
)

// Errors returned by Config.Validate. Each is wrapped with the offending
// value where there is one.
var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample percentage must be between 0.0 and 1.0")
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: invalid log level")
)

var (
	// ErrNilObserver is returned by constructors handed a nil Observer.
	ErrNilObserver = errors.New("observe: observer is nil")

	// ErrMissingCacheName is returned when CacheMeta has no Name.
	ErrMissingCacheName = errors.New("observe: cache name is required")

	// ErrEndpointNotConfigured re-exports the exporters sentinel so callers
	// need not import that package.
	ErrEndpointNotConfigured = exporters.ErrEndpointNotConfigured
)

// Sampling bounds for TracingConfig.SamplePct.
const (
	MinSamplePct = 0.0
	MaxSamplePct = 1.0
)

// Accepted values for the exporter and level fields. The empty string means
// the default for each.
var (
	ValidTracingExporters = []string{"", "none", "stdout", "otlp", "jaeger"}
	ValidMetricsExporters = []string{"", "none", "stdout", "otlp", "prometheus"}
	ValidLogLevels        = []string{"", "debug", "info", "warn", "error"}
)

// RedactedFields are log field keys whose values the logger replaces with
// "[REDACTED]". Store DSNs and redis passwords are the ones this module emits.
var RedactedFields = []string{
	"authorization",
	"credential",
	"dsn",
	"password",
	"secret",
	"token",
	"api_key",
	"apiKey",
}
