package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplication_UsesConfigLoadedBySetup(t *testing.T) {
	t.Cleanup(func() { loadedConfig = nil })
	t.Setenv("JOBSUCHE_CONFIG_FILE", "")
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("JOBSUCHE_API_URL", "http://first.example")

	require.NoError(t, setup(statusCmd, nil))
	loaded := loadedConfig
	require.NotNil(t, loaded)

	// Later environment changes must not be picked up by a second load.
	t.Setenv("JOBSUCHE_API_URL", "http://second.example")

	app, err := newApplication(context.Background())
	require.NoError(t, err)
	defer app.Close()

	assert.Same(t, loaded, app.config)
	assert.Equal(t, "http://first.example", app.config.APIURL)
}

func TestNewApplication_RequiresSetup(t *testing.T) {
	loadedConfig = nil

	_, err := newApplication(context.Background())
	assert.ErrorContains(t, err, "configuration not loaded")
}
