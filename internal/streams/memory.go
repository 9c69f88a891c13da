package streams

import (
	"io"

	"github.com/TwanVanDongen/DiscUtils/internal/extent"
	"github.com/TwanVanDongen/DiscUtils/internal/streamerr"
)

// MemoryStream is a leaf SparseStream backed entirely by an in-memory
// buffer. It reports its whole length as one populated extent: nothing
// about an in-memory buffer is a hole. It is used for tests and as the
// canonical "extend here" zero-length tail appendix in a Concat Stream.
type MemoryStream struct {
	buf      []byte
	pos      int64
	writable bool
	growable bool
	disposed bool
}

// NewMemoryStream wraps buf as a read/write MemoryStream that can grow.
func NewMemoryStream(buf []byte) *MemoryStream {
	return &MemoryStream{buf: buf, writable: true, growable: true}
}

// NewReadOnlyMemoryStream wraps buf as a read-only, fixed-length
// MemoryStream.
func NewReadOnlyMemoryStream(buf []byte) *MemoryStream {
	return &MemoryStream{buf: buf, writable: false, growable: false}
}

func (m *MemoryStream) CanRead() bool  { return true }
func (m *MemoryStream) CanWrite() bool { return m.writable }
func (m *MemoryStream) CanSeek() bool  { return true }

func (m *MemoryStream) Length() int64 { return int64(len(m.buf)) }

func (m *MemoryStream) SetLength(length int64) error {
	if m.disposed {
		return streamerr.ErrObjectDisposed
	}
	if !m.growable {
		return streamerr.ErrReadOnly
	}
	if length < 0 {
		return streamerr.ErrSeekBeforeStart
	}
	switch {
	case length == int64(len(m.buf)):
		return nil
	case length < int64(len(m.buf)):
		m.buf = m.buf[:length]
	default:
		grown := make([]byte, length)
		copy(grown, m.buf)
		m.buf = grown
	}
	return nil
}

func (m *MemoryStream) Position() int64 { return m.pos }

func (m *MemoryStream) Read(p []byte) (int, error) {
	if m.disposed {
		return 0, streamerr.ErrObjectDisposed
	}
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryStream) Write(p []byte) (int, error) {
	if m.disposed {
		return 0, streamerr.ErrObjectDisposed
	}
	if !m.writable {
		return 0, streamerr.ErrReadOnly
	}
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		if !m.growable {
			if m.pos >= int64(len(m.buf)) {
				return 0, nil
			}
			p = p[:int64(len(m.buf))-m.pos]
			end = int64(len(m.buf))
		} else {
			grown := make([]byte, end)
			copy(grown, m.buf)
			m.buf = grown
		}
	}
	n := copy(m.buf[m.pos:end], p)
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryStream) Seek(offset int64, whence int) (int64, error) {
	if m.disposed {
		return 0, streamerr.ErrObjectDisposed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, streamerr.ErrInvalidWhence
	}
	if abs < 0 {
		return 0, streamerr.ErrSeekBeforeStart
	}
	m.pos = abs
	return abs, nil
}

func (m *MemoryStream) Extents() extent.Iterator {
	if len(m.buf) == 0 {
		return extent.Empty()
	}
	return extent.NewSliceIterator([]extent.Extent{{Start: 0, Length: int64(len(m.buf))}})
}

func (m *MemoryStream) PositionInBaseStream(base SparseStream, virtualPosition int64) (int64, bool) {
	if same, ok := base.(*MemoryStream); ok && same == m {
		return virtualPosition, true
	}
	return 0, false
}

func (m *MemoryStream) Flush() error { return nil }

func (m *MemoryStream) Close() error {
	m.disposed = true
	return nil
}

// Bytes returns the stream's current backing buffer. Intended for tests.
func (m *MemoryStream) Bytes() []byte { return m.buf }
