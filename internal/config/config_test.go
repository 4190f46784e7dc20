package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate_Defaults verifies that Validate fills every tunable with its default.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{ServerAddress: "localhost:8080"}

	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultWindowSeconds, cfg.WindowSeconds)
	require.Equal(t, DefaultMaxBufferSize, cfg.MaxBufferSize)
	require.Equal(t, DefaultCorrelationWindowSeconds, cfg.CorrelationWindowSeconds)
	require.Equal(t, []string{DefaultEmergencyEntityType}, cfg.EmergencyEntityTypes)
	require.Equal(t, DefaultTimeout, cfg.Timeout)

	require.Equal(t, 300*time.Second, cfg.Window())
	require.Equal(t, 300*time.Second, cfg.CorrelationWindow())
}

// TestValidate_Errors verifies rejection of nil configs and missing or bad addresses.
func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))
	require.Error(t, Validate(&Config{}))
	require.Error(t, Validate(&Config{ServerAddress: "not a socket"}))
}

// TestLoadSaveRoundTrip verifies that Save followed by Load preserves settings.
func TestLoadSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	original := &Config{
		ServerAddress:            "localhost:9000",
		DatabaseURL:              "postgres://correlator@localhost:5432/incidents",
		WindowSeconds:            60,
		MaxBufferSize:            50,
		CorrelationWindowSeconds: 120,
		EmergencyEntityTypes:     []string{"EMERGENCY_SERVICE", "E911"},
		LogLevel:                 "debug",
		Timeout:                  2 * time.Second,
	}

	require.NoError(t, Save(path, original))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, original, loaded)
}

// TestLoad_MissingFile verifies the wrapped read error for absent files.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestSave_NilConfig verifies the sentinel error for nil configurations.
func TestSave_NilConfig(t *testing.T) {
	t.Parallel()

	require.Error(t, Save(filepath.Join(t.TempDir(), "settings.yaml"), nil))
}
