package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledUsesGlobalTracer(t *testing.T) {
	cfg := DefaultConfig("jobsuche-mcp")
	require.False(t, cfg.TracingEnabled)

	provider, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, provider.Tracer)
	assert.Nil(t, provider.TracerProvider)
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestShutdown_NilProvider(t *testing.T) {
	var provider *Provider
	assert.NoError(t, provider.Shutdown(context.Background()))
}
