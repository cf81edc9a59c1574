package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveFileIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "http://localhost:8080/static/")
	ctx := context.Background()

	url, err := s.SaveFile(ctx, bytes.NewReader([]byte("v1")), "p223340.png", "photos")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/static/photos/p223340.png", url)

	again, err := s.SaveFile(ctx, bytes.NewReader([]byte("v2")), "p223340.png", "photos")
	require.NoError(t, err)
	assert.Equal(t, url, again)

	data, err := os.ReadFile(filepath.Join(dir, "photos", "p223340.png"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "photos"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSaveFileStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "")

	url, err := s.SaveFile(context.Background(), bytes.NewReader([]byte("x")), "../../escape.png", "../up")
	require.NoError(t, err)
	assert.Equal(t, "/up/escape.png", filepath.ToSlash(url))

	_, err = os.Stat(filepath.Join(dir, "up", "escape.png"))
	assert.NoError(t, err)
}

func TestDeleteFile(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "http://cdn/static")
	ctx := context.Background()

	url, err := s.SaveFile(ctx, bytes.NewReader([]byte("x")), "a.png", "photos")
	require.NoError(t, err)

	require.NoError(t, s.DeleteFile(ctx, url))
	_, err = os.Stat(filepath.Join(dir, "photos", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// 再删一次也成功
	assert.NoError(t, s.DeleteFile(ctx, url))
}
