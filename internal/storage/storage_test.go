package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/starmap/internal/config"
	"github.com/cory-johannsen/starmap/internal/route"
)

func TestOpen_None(t *testing.T) {
	store, closer, err := Open(context.Background(), config.Config{Storage: config.StorageConfig{Driver: "none"}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, store)
	closer()
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.Config{Storage: config.StorageConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "routes.db"),
	}}
	store, closer, err := Open(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer closer()

	rec, err := store.Save(context.Background(), "empty", route.New())
	require.NoError(t, err)
	got, err := store.GetByName(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), config.Config{Storage: config.StorageConfig{Driver: "mongo"}}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, `unknown storage driver "mongo"`)
}
