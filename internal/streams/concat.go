package streams

import (
	"errors"
	"io"

	"github.com/TwanVanDongen/DiscUtils/internal/extent"
	"github.com/TwanVanDongen/DiscUtils/internal/streamerr"
)

// ConcatStream exposes an ordered list of Sparse Streams as a single
// virtual, seekable, sparse stream. Its virtual length is the sum of its
// sub-streams' lengths; only the last sub-stream may grow.
type ConcatStream struct {
	streams   []SparseStream
	ownership Ownership
	canRead   bool
	canWrite  bool
	canSeek   bool
	position  int64
	live      bool
}

// NewConcatStream composes subs into a single ConcatStream. subs must
// contain at least one stream. canWrite is computed once, over the slice
// this ConcatStream stores internally rather than over the caller's
// variadic backing array, so later mutation of a slice the caller still
// holds can never change the reported capability after construction.
func NewConcatStream(ownership Ownership, subs ...SparseStream) (*ConcatStream, error) {
	if len(subs) == 0 {
		return nil, errors.New("concat stream requires at least one sub-stream")
	}
	stored := make([]SparseStream, len(subs))
	copy(stored, subs)

	canRead, canWrite, canSeek := true, true, true
	for _, s := range stored {
		canRead = canRead && s.CanRead()
		canWrite = canWrite && s.CanWrite()
		canSeek = canSeek && s.CanSeek()
	}

	return &ConcatStream{
		streams:   stored,
		ownership: ownership,
		canRead:   canRead,
		canWrite:  canWrite,
		canSeek:   canSeek,
		live:      true,
	}, nil
}

func (c *ConcatStream) CanRead() bool  { return c.canRead }
func (c *ConcatStream) CanWrite() bool { return c.canWrite }
func (c *ConcatStream) CanSeek() bool  { return c.canSeek }

// Length returns the sum of every sub-stream's current length.
func (c *ConcatStream) Length() int64 {
	var total int64
	for _, s := range c.streams {
		total += s.Length()
	}
	return total
}

func (c *ConcatStream) Position() int64 { return c.position }

// selectStream implements the stream-selection contract: scan k = 0..n-1,
// accumulating start, stopping at the first k with start+length(k) > t or at
// n-1. This always terminates at n-1 even when t equals the total length, so
// a write at end-of-stream attaches to the tail.
func (c *ConcatStream) selectStream(t int64) (k int, start int64) {
	last := len(c.streams) - 1
	for k = 0; k < last; k++ {
		length := c.streams[k].Length()
		if start+length > t {
			return k, start
		}
		start += length
	}
	return last, start
}

func (c *ConcatStream) Read(p []byte) (int, error) {
	if !c.live {
		return 0, streamerr.ErrObjectDisposed
	}
	var total int
	pos := c.position
	for total < len(p) {
		k, start := c.selectStream(pos)
		sub := c.streams[k]
		if _, err := sub.Seek(pos-start, io.SeekStart); err != nil {
			c.position = pos
			return total, err
		}
		n, err := sub.Read(p[total:])
		total += n
		pos += int64(n)
		if err != nil && err != io.EOF {
			c.position = pos
			return total, err
		}
		if n == 0 {
			break
		}
	}
	c.position = pos
	if total == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return total, nil
}

func (c *ConcatStream) Write(p []byte) (int, error) {
	if !c.live {
		return 0, streamerr.ErrObjectDisposed
	}
	if !c.canWrite {
		return 0, streamerr.ErrReadOnly
	}
	var total int
	pos := c.position
	last := len(c.streams) - 1
	for total < len(p) {
		k, start := c.selectStream(pos)
		sub := c.streams[k]
		offset := pos - start
		remaining := p[total:]

		if k < last {
			avail := sub.Length() - offset
			if avail < 0 {
				avail = 0
			}
			if int64(len(remaining)) > avail {
				remaining = remaining[:avail]
			}
			if len(remaining) == 0 {
				break
			}
		}

		if _, err := sub.Seek(offset, io.SeekStart); err != nil {
			c.position = pos
			return total, err
		}
		n, err := sub.Write(remaining)
		total += n
		pos += int64(n)
		if err != nil {
			c.position = pos
			return total, err
		}
		if n == 0 {
			break
		}
	}
	c.position = pos
	return total, nil
}

func (c *ConcatStream) Seek(offset int64, whence int) (int64, error) {
	if !c.live {
		return 0, streamerr.ErrObjectDisposed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = c.position + offset
	case io.SeekEnd:
		abs = c.Length() + offset
	default:
		return 0, streamerr.ErrInvalidWhence
	}
	if abs < 0 {
		return 0, streamerr.ErrSeekBeforeStart
	}
	c.position = abs
	return abs, nil
}

// SetLength delegates to the last sub-stream only. Truncating earlier
// sub-streams is not supported by design: it would invalidate the address
// space of everything after them.
func (c *ConcatStream) SetLength(newLength int64) error {
	if !c.live {
		return streamerr.ErrObjectDisposed
	}
	last := len(c.streams) - 1
	var startLast int64
	for i := 0; i < last; i++ {
		startLast += c.streams[i].Length()
	}
	if newLength < startLast {
		return streamerr.NewShrinkError(startLast)
	}
	return c.streams[last].SetLength(newLength - startLast)
}

// Extents emits, for each sub-stream in order, its extents translated by its
// cumulative start offset. Lazy: a caller taking a short prefix never forces
// the remaining sub-streams' extents to be computed.
func (c *ConcatStream) Extents() extent.Iterator {
	return &concatExtentIterator{c: c}
}

type concatExtentIterator struct {
	c     *ConcatStream
	idx   int
	base  int64
	inner extent.Iterator
}

func (it *concatExtentIterator) Next() (extent.Extent, bool, error) {
	for {
		if it.inner == nil {
			if it.idx >= len(it.c.streams) {
				return extent.Extent{}, false, nil
			}
			it.inner = it.c.streams[it.idx].Extents()
		}
		e, ok, err := it.inner.Next()
		if err != nil {
			return extent.Extent{}, false, err
		}
		if !ok {
			it.base += it.c.streams[it.idx].Length()
			it.idx++
			it.inner = nil
			continue
		}
		return e.Offset(it.base), true, nil
	}
}

// PositionInBaseStream returns virtualPosition unchanged when base is this
// ConcatStream itself; otherwise it selects the active sub-stream at
// virtualPosition and delegates the lookup to it.
func (c *ConcatStream) PositionInBaseStream(base SparseStream, virtualPosition int64) (int64, bool) {
	if same, ok := base.(*ConcatStream); ok && same == c {
		return virtualPosition, true
	}
	k, start := c.selectStream(virtualPosition)
	return c.streams[k].PositionInBaseStream(base, virtualPosition-start)
}

// Flush flushes every sub-stream in order.
func (c *ConcatStream) Flush() error {
	if !c.live {
		return streamerr.ErrObjectDisposed
	}
	for _, s := range c.streams {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every sub-stream in order, exactly once, if the Concat
// Stream owns them. Double-close is a no-op. Once closed, Read, Write, Seek,
// SetLength and Flush fail with ErrObjectDisposed; Length, Position, the
// capability flags, Extents and PositionInBaseStream do not check for
// disposal and keep answering from the sub-streams.
func (c *ConcatStream) Close() error {
	if !c.live {
		return nil
	}
	c.live = false
	if c.ownership != OwnershipDispose {
		return nil
	}
	var first error
	for _, s := range c.streams {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
