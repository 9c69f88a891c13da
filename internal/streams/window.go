package streams

import (
	"io"

	"github.com/TwanVanDongen/DiscUtils/internal/extent"
	"github.com/TwanVanDongen/DiscUtils/internal/streamerr"
)

// Window is a SparseStream view over a fixed byte range [first, first+count)
// of a parent stream, forwarding reads and writes with bounds clipping. The
// Volume Manager uses Window to present a disk partition as a stream without
// copying its bytes.
type Window struct {
	parent    SparseStream
	first     int64
	count     int64
	pos       int64
	ownership Ownership
	disposed  bool
}

// NewWindow returns a Window over parent's [first, first+count) byte range.
func NewWindow(parent SparseStream, first, count int64, ownership Ownership) *Window {
	return &Window{parent: parent, first: first, count: count, ownership: ownership}
}

func (w *Window) CanRead() bool  { return w.parent.CanRead() }
func (w *Window) CanWrite() bool { return w.parent.CanWrite() }
func (w *Window) CanSeek() bool  { return w.parent.CanSeek() }

func (w *Window) Length() int64 { return w.count }

// SetLength can only grow a Window whose parent has spare capacity (or can
// itself grow to make room). Shrinking only reduces the Window's own count;
// the parent's length is left unchanged.
func (w *Window) SetLength(length int64) error {
	if w.disposed {
		return streamerr.ErrObjectDisposed
	}
	if length < 0 {
		return streamerr.ErrSeekBeforeStart
	}
	needed := w.first + length
	if needed > w.parent.Length() {
		if err := w.parent.SetLength(needed); err != nil {
			return err
		}
	}
	w.count = length
	return nil
}

func (w *Window) Position() int64 { return w.pos }

func (w *Window) Read(p []byte) (int, error) {
	if w.disposed {
		return 0, streamerr.ErrObjectDisposed
	}
	if w.pos >= w.count {
		return 0, io.EOF
	}
	remaining := w.count - w.pos
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if _, err := w.parent.Seek(w.first+w.pos, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := w.parent.Read(p)
	w.pos += int64(n)
	return n, err
}

func (w *Window) Write(p []byte) (int, error) {
	if w.disposed {
		return 0, streamerr.ErrObjectDisposed
	}
	if !w.parent.CanWrite() {
		return 0, streamerr.ErrReadOnly
	}
	remaining := w.count - w.pos
	if remaining <= 0 {
		return 0, nil
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if _, err := w.parent.Seek(w.first+w.pos, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := w.parent.Write(p)
	w.pos += int64(n)
	return n, err
}

func (w *Window) Seek(offset int64, whence int) (int64, error) {
	if w.disposed {
		return 0, streamerr.ErrObjectDisposed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = w.pos + offset
	case io.SeekEnd:
		abs = w.count + offset
	default:
		return 0, streamerr.ErrInvalidWhence
	}
	if abs < 0 {
		return 0, streamerr.ErrSeekBeforeStart
	}
	w.pos = abs
	return abs, nil
}

func (w *Window) Extents() extent.Iterator {
	return &windowExtentIterator{parent: w.parent.Extents(), first: w.first, count: w.count}
}

func (w *Window) PositionInBaseStream(base SparseStream, virtualPosition int64) (int64, bool) {
	if same, ok := base.(*Window); ok && same == w {
		return virtualPosition, true
	}
	return w.parent.PositionInBaseStream(base, w.first+virtualPosition)
}

func (w *Window) Flush() error { return w.parent.Flush() }

// Close releases the window's parent if it owns it. Double-close is a no-op.
func (w *Window) Close() error {
	if w.disposed {
		return nil
	}
	w.disposed = true
	if w.ownership == OwnershipDispose {
		return w.parent.Close()
	}
	return nil
}

// windowExtentIterator clips and translates a parent's extent sequence down
// to the window's [first, first+count) range without ever materializing the
// parent's full extent list.
type windowExtentIterator struct {
	parent extent.Iterator
	first  int64
	count  int64
}

func (it *windowExtentIterator) Next() (extent.Extent, bool, error) {
	bound := extent.Extent{Start: it.first, Length: it.count}
	for {
		e, ok, err := it.parent.Next()
		if err != nil || !ok {
			return extent.Extent{}, false, err
		}
		if !e.Overlaps(bound) {
			if e.Start >= bound.End() {
				return extent.Extent{}, false, nil
			}
			continue
		}
		start := e.Start
		if start < bound.Start {
			start = bound.Start
		}
		end := e.End()
		if end > bound.End() {
			end = bound.End()
		}
		return extent.Extent{Start: start - it.first, Length: end - start}, true, nil
	}
}
