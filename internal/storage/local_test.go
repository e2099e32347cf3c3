package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalImageStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalImageStore(dir, "uploads/")
	require.NoError(t, err)
	assert.Equal(t, "/uploads", store.Prefix())

	ref, err := store.Save(context.Background(), "Rex.PNG", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/uploads/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	content, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
}

func TestLocalImageStore_ExtensionFromContentType(t *testing.T) {
	store, err := NewLocalImageStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), "blob", "image/gif", strings.NewReader("gif"))
	require.NoError(t, err)
	assert.Equal(t, ".gif", filepath.Ext(ref))
}

func TestLocalImageStore_CanceledContext(t *testing.T) {
	store, err := NewLocalImageStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, "a.jpg", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalImageStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalImageStore(dir, "/uploads")
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Save(ctx, "rex.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, ref))

	_, err = os.Stat(filepath.Join(dir, filepath.Base(ref)))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.NoError(t, store.Delete(ctx, ref), "deleting twice is a no-op")
	assert.Error(t, store.Delete(ctx, "/uploads/../secrets.txt"))
	assert.Error(t, store.Delete(ctx, "/elsewhere/rex.png"))
}
