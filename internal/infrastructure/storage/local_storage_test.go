package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStore_Write(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalFileStore(filepath.Join(dir, "exports"))
	require.NoError(t, err)

	path, err := store.Write(ctx, "export.json", []byte(`{"version":"2.0"}`))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	data, err := store.Read(ctx, "export.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"2.0"}`, string(data))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"export.json"}, names)
}

func TestLocalFileStore_RejectsPathTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../escape.json", "a/b.json", `a\b.json`, ""} {
		_, err := store.Write(ctx, name, []byte("x"))
		assert.Error(t, err, name)
	}
}

func TestLocalFileStore_HonorsCancelledContext(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Write(ctx, "export.json", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
