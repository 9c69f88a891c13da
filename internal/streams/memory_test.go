package streams_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwanVanDongen/DiscUtils/internal/streamerr"
	"github.com/TwanVanDongen/DiscUtils/internal/streams"
)

func TestMemoryStreamGrowsOnWritePastEnd(t *testing.T) {
	m := streams.NewMemoryStream(nil)
	n, err := m.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, int64(5), m.Length())
	assert.Equal(t, "hello", string(m.Bytes()))
}

func TestMemoryStreamReadOnlyRejectsWrite(t *testing.T) {
	m := streams.NewReadOnlyMemoryStream([]byte("hello"))
	_, err := m.Write([]byte("x"))
	assert.ErrorIs(t, err, streamerr.ErrReadOnly)
}

func TestMemoryStreamReadReturnsEOFAtEnd(t *testing.T) {
	m := streams.NewMemoryStream([]byte("hi"))
	buf := make([]byte, 2)
	n, err := m.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestMemoryStreamSeekBeforeZeroFails(t *testing.T) {
	m := streams.NewMemoryStream([]byte("hi"))
	_, err := m.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, streamerr.ErrSeekBeforeStart)
}

func TestMemoryStreamSetLengthShrinksAndGrows(t *testing.T) {
	m := streams.NewMemoryStream([]byte("hello"))
	require.NoError(t, m.SetLength(2))
	assert.Equal(t, "he", string(m.Bytes()))

	require.NoError(t, m.SetLength(4))
	assert.Equal(t, int64(4), m.Length())
}

func TestMemoryStreamDisposalBlocksFurtherUse(t *testing.T) {
	m := streams.NewMemoryStream([]byte("hi"))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Read(make([]byte, 1))
	assert.ErrorIs(t, err, streamerr.ErrObjectDisposed)
}
