package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/orbiter/internal/config"
	"github.com/zeusync/orbiter/internal/core/input"
)

func TestInitializeAppWiresFeedToSimulation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbiter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0o600))

	app, err := InitializeApp(ConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "error", app.Config.Log.Level)
	assert.Equal(t, uint64(1), app.Events.Metrics().SubscribersActive)

	_, err = app.Simulation.Step(0.1, input.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), app.Events.Metrics().DeliveredHandlers)
}

func TestInitializeAppRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbiter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera:\n  damping_factor: 2\n"), 0o600))

	_, err := InitializeApp(ConfigPath(path))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
