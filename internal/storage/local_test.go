package storage

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUpload(t *testing.T) {
	fs := afero.NewMemMapFs()
	local := NewLocal(fs, "/data/agreements", "http://localhost:3000/files/")

	result, err := local.Upload(context.Background(), "agreement_1.pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "http://localhost:3000/files/agreement_1.pdf", result.URL)
	assert.Equal(t, "agreement_1.pdf", result.PublicID)

	stored, err := afero.ReadFile(fs, "/data/agreements/agreement_1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(stored))
}

func TestLocalUploadStaysInsideDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	local := NewLocal(fs, "/data", "http://files")

	result, err := local.Upload(context.Background(), "../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "http://files/etc/passwd", result.URL)

	exists, err := afero.Exists(fs, "/data/etc/passwd")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalUploadRejectsEmptyName(t *testing.T) {
	result, err := NewLocal(afero.NewMemMapFs(), "/data", "http://files").Upload(context.Background(), "/", []byte("x"))
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestLocalFileSystemServesUploads(t *testing.T) {
	fs := afero.NewMemMapFs()
	local := NewLocal(fs, "/data", "http://files")
	_, err := local.Upload(context.Background(), "lease.pdf", []byte("lease"))
	require.NoError(t, err)

	file, err := local.FileSystem().Open("/lease.pdf")
	require.NoError(t, err)
	defer file.Close()

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "lease", string(content))
}
