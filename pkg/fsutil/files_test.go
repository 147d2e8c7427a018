package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		dst     string
		wantErr bool
	}{
		{
			name:    "empty source",
			src:     "",
			dst:     "somewhere",
			wantErr: true,
		},
		{
			name:    "empty destination",
			src:     "somewhere",
			dst:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Move(tt.src, tt.dst)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMove_SameDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tas_Amon_CESM2.nc.tmp")
	dst := filepath.Join(dir, "tas_Amon_CESM2.nc")
	require.NoError(t, os.WriteFile(src, []byte("netcdf payload"), FileModeDefault))

	require.NoError(t, Move(src, dst))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source should be gone after move")

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "netcdf payload", string(content))
}

func TestMove_CreatesDestinationDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "data.bin")
	dst := filepath.Join(dir, "tas", "100km", "CMIP", "data.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), FileModeDefault))

	require.NoError(t, Move(src, dst))

	_, err := os.Stat(dst)
	assert.NoError(t, err)
}

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(src, []byte("payload"), FileModeDefault))

	require.NoError(t, Copy(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))

	// Source stays in place on plain copy.
	_, err = os.Stat(src)
	assert.NoError(t, err)
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "metadata")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
