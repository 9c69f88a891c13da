package streams_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwanVanDongen/DiscUtils/internal/extent"
	"github.com/TwanVanDongen/DiscUtils/internal/streams"
)

func TestWindowClipsReadsToBounds(t *testing.T) {
	parent := streams.NewMemoryStream([]byte("0123456789"))
	w := streams.NewWindow(parent, 2, 4, streams.OwnershipNone) // "2345"

	buf := make([]byte, 10)
	n, err := w.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(buf[:n]))

	n, err = w.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestWindowWriteClipsToBounds(t *testing.T) {
	parent := streams.NewMemoryStream([]byte("0123456789"))
	w := streams.NewWindow(parent, 2, 4, streams.OwnershipNone)

	n, err := w.Write([]byte("ABCDEFGH"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "01ABCD6789", string(parent.Bytes()))
}

func TestWindowExtentsAreClippedAndTranslated(t *testing.T) {
	parent := streams.NewMemoryStream([]byte("0123456789"))
	w := streams.NewWindow(parent, 3, 4, streams.OwnershipNone)

	got, err := extent.Collect(w.Extents())
	require.NoError(t, err)
	assert.Equal(t, []extent.Extent{{Start: 0, Length: 4}}, got)
}

func TestWindowPositionInBaseStreamDelegatesToParent(t *testing.T) {
	parent := streams.NewMemoryStream([]byte("0123456789"))
	w := streams.NewWindow(parent, 3, 4, streams.OwnershipNone)

	pos, ok := w.PositionInBaseStream(parent, 1)
	require.True(t, ok)
	assert.Equal(t, int64(4), pos)

	pos, ok = w.PositionInBaseStream(w, 1)
	require.True(t, ok)
	assert.Equal(t, int64(1), pos)
}

func TestWindowCloseWithOwnershipDisposeClosesParent(t *testing.T) {
	parent := streams.NewMemoryStream([]byte("0123456789"))
	w := streams.NewWindow(parent, 0, 10, streams.OwnershipDispose)
	require.NoError(t, w.Close())

	_, err := parent.Read(make([]byte, 1))
	assert.Error(t, err)
}

func TestWindowGrowsParentWhenExtendingPastCapacity(t *testing.T) {
	parent := streams.NewMemoryStream([]byte("01234"))
	w := streams.NewWindow(parent, 0, 5, streams.OwnershipNone)

	require.NoError(t, w.SetLength(8))
	assert.Equal(t, int64(8), w.Length())
	assert.Equal(t, int64(8), parent.Length())
}
