package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pribylovaa/campus-portal/internal/config"

	"github.com/stretchr/testify/require"
)

func TestOpen_Drivers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st, err := Open(ctx, config.SessionConfig{Driver: DriverMemory})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, st)

	path := filepath.Join(t.TempDir(), "s.json")
	st, err = Open(ctx, config.SessionConfig{Driver: DriverFile, Path: path})
	require.NoError(t, err)
	fs, ok := st.(*FileStore)
	require.True(t, ok)
	require.Equal(t, path, fs.Path())

	_, err = Open(ctx, config.SessionConfig{Driver: "sqlite"})
	require.ErrorIs(t, err, ErrUnknownDriver)
}

func TestOpen_Redis_BadURL(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), config.SessionConfig{Driver: DriverRedis, RedisURL: "://nope"})
	require.Error(t, err)
}
