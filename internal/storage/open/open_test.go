package open

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcircle/internal/config"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		backend string
		wantErr bool
	}{
		{name: "memory", cfg: &config.Config{StorageDriver: config.DriverMemory}, backend: "memory"},
		{name: "default", cfg: &config.Config{}, backend: "memory"},
		{
			name: "sqlite",
			cfg: &config.Config{
				StorageDriver: config.DriverSQLite,
				SQLitePath:    "file:open_test?mode=memory&cache=shared",
				DBAutoMigrate: true,
			},
			backend: "sqlite",
		},
		{name: "unknown", cfg: &config.Config{StorageDriver: "cassandra"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := Open(ctx, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close(ctx) })
			assert.Equal(t, tt.backend, s.Backend())
			assert.NoError(t, s.Ping(ctx))
		})
	}
}
