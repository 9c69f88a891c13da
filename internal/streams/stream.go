// Package streams defines the Sparse Stream contract and its concrete
// implementations: an in-memory leaf stream, a bounded window over a parent
// stream, and the Concat Stream that composes many sparse streams into one
// virtual address space.
package streams

import (
	"io"

	"github.com/TwanVanDongen/DiscUtils/internal/extent"
)

// SparseStream is a seekable byte stream that also reports which ranges
// hold explicit data; everything else reads as zero. It is the polymorphic
// type every format-specific reader in this ecosystem consumes.
//
// Implementations are not safe for concurrent use: Position is an implicit
// mutable cursor shared by Read, Write and Seek.
type SparseStream interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	// CanRead reports whether Read is supported.
	CanRead() bool
	// CanWrite reports whether Write is supported.
	CanWrite() bool
	// CanSeek reports whether Seek is supported.
	CanSeek() bool

	// Length returns the current stream length in bytes.
	Length() int64
	// SetLength resizes the stream. Not every implementation supports
	// shrinking or growing; unsupported resizes return an error.
	SetLength(length int64) error

	// Position returns the current cursor position.
	Position() int64

	// Extents returns a lazy sequence of the byte ranges holding explicit
	// data. The complement is implicit zero.
	Extents() extent.Iterator

	// PositionInBaseStream returns the offset within base that corresponds
	// to virtualPosition in this stream, if a direct mapping exists.
	PositionInBaseStream(base SparseStream, virtualPosition int64) (int64, bool)

	// Flush commits any buffered state to the underlying resource.
	Flush() error
}

// Ownership selects whether a container releases a child stream when the
// container itself is closed.
type Ownership int

const (
	// OwnershipNone means the caller retains lifetime responsibility for
	// the child stream.
	OwnershipNone Ownership = iota
	// OwnershipDispose means the container closes the child stream when
	// it is itself closed.
	OwnershipDispose
)
