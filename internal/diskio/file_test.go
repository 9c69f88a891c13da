package diskio_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwanVanDongen/DiscUtils/internal/diskio"
	"github.com/TwanVanDongen/DiscUtils/internal/extent"
)

func writeTestImage(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFileStreamReadsWholeBlocksAndCaches(t *testing.T) {
	path := writeTestImage(t, diskio.BlockSize*2)
	f, err := diskio.Open(path, 64)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, diskio.BlockSize)
	_, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.Stats().CacheHits())
	assert.Equal(t, int64(1), f.Stats().CacheMisses())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.Stats().CacheHits())
}

func TestFileStreamClearCacheForcesReread(t *testing.T) {
	path := writeTestImage(t, diskio.BlockSize)
	f, err := diskio.Open(path, 64)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, diskio.BlockSize)
	_, err = f.Read(buf)
	require.NoError(t, err)

	f.ClearCache()
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.Stats().CacheHits())
	assert.Equal(t, int64(2), f.Stats().CacheMisses())
}

func TestFileStreamIsReadOnly(t *testing.T) {
	path := writeTestImage(t, 16)
	f, err := diskio.Open(path, 64)
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, f.CanWrite())
	_, err = f.Write([]byte("x"))
	assert.Error(t, err)
	assert.Error(t, f.SetLength(32))
}

func TestFileStreamReadReturnsEOFAtEnd(t *testing.T) {
	path := writeTestImage(t, 4)
	f, err := diskio.Open(path, 64)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 4)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = f.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestFileStreamExtentsCoverWholeFile(t *testing.T) {
	path := writeTestImage(t, 100)
	f, err := diskio.Open(path, 64)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, int64(100), f.Length())
	got, err := extent.Collect(f.Extents())
	require.NoError(t, err)
	assert.Equal(t, []extent.Extent{{Start: 0, Length: 100}}, got)
}

func TestFileStreamCacheHitRateReflectsUsage(t *testing.T) {
	path := writeTestImage(t, diskio.BlockSize)
	f, err := diskio.Open(path, 64)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, 0.0, f.Stats().CacheHitRate())

	buf := make([]byte, diskio.BlockSize)
	_, _ = f.Read(buf)
	_, _ = f.Seek(0, io.SeekStart)
	_, _ = f.Read(buf)

	assert.Equal(t, 50.0, f.Stats().CacheHitRate())
}
