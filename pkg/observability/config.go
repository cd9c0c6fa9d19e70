package observability

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Config holds the tracing settings of the service.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TracingEnabled bool
	OTLPEndpoint   string
	OTLPHeaders    map[string]string
	OTLPInsecure   bool
	SamplingRate   float64 // 0.0 - 1.0

	TraceBatchTimeout time.Duration
	ResourceAttrs     []attribute.KeyValue
}

// DefaultConfig returns defaults for a local collector.
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:       serviceName,
		ServiceVersion:    "unknown",
		Environment:       "development",
		TracingEnabled:    false,
		OTLPEndpoint:      "localhost:4318",
		OTLPInsecure:      true,
		SamplingRate:      1.0,
		TraceBatchTimeout: 5 * time.Second,
	}
}
