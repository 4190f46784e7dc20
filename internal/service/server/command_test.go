package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/faultmesh/alarm-correlator/internal/config"
	incidentrepo "github.com/faultmesh/alarm-correlator/internal/repository/incident"
)

// TestResolveListenAddress covers the override and port-extraction rules.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configAddr string
		override   string
		want       string
		wantErr    bool
	}{
		{
			name:     "override wins",
			override: "127.0.0.1:9090",
			want:     "127.0.0.1:9090",
		},
		{
			name:       "port extracted from config address",
			configAddr: "correlator.internal:8080",
			want:       ":8080",
		},
		{
			name:    "no address configured",
			wantErr: true,
		},
		{
			name:       "malformed config address",
			configAddr: "no-port-here",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveListenAddress(tt.configAddr, tt.override)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

// TestOpenRepository_NoDSNFallsBackToMemory verifies a missing database URL
// yields the in-memory incident store.
func TestOpenRepository_NoDSNFallsBackToMemory(t *testing.T) {
	t.Parallel()

	repository, closeRepository, err := openRepository(context.Background(), &config.Config{})
	require.NoError(t, err)

	defer closeRepository()

	_, ok := repository.(*incidentrepo.MemoryRepository)
	require.True(t, ok)
}
