// Package streamerr holds the sentinel errors shared by the stream and
// volume layers, following the wrap-with-%w convention used throughout this
// module rather than a dedicated errors framework.
package streamerr

import (
	"errors"
	"fmt"
)

// ErrObjectDisposed is returned by stream operations after Close has
// released the stream.
var ErrObjectDisposed = errors.New("object disposed")

// ErrSeekBeforeStart is returned when a seek would move the position
// negative.
var ErrSeekBeforeStart = errors.New("move before beginning")

// ErrReadOnly is returned when Write is called on a stream that cannot
// write.
var ErrReadOnly = errors.New("stream is read-only")

// ErrInvalidWhence is returned by Seek when given a whence value other than
// io.SeekStart, io.SeekCurrent, or io.SeekEnd.
var ErrInvalidWhence = errors.New("invalid whence")

// ErrDiskIdentityUnavailable is returned by AddDisk when a disk carries
// neither a GPT GUID nor an MBR signature and the manager's configuration
// disables falling back to an ordinal identity.
var ErrDiskIdentityUnavailable = errors.New("disk has no GPT GUID or MBR signature and ordinal fallback is disabled")

// ErrShrinkPastTail is the sentinel wrapped by SetLength when a Concat
// stream's requested length would fall before the start of its last
// sub-stream.
var ErrShrinkPastTail = errors.New("unable to reduce stream length")

// NewShrinkError builds the length-specific error message for
// ErrShrinkPastTail, still matchable with errors.Is(err, ErrShrinkPastTail).
func NewShrinkError(minLength int64) error {
	return fmt.Errorf("%w: unable to reduce stream length to less than %d", ErrShrinkPastTail, minLength)
}

// DuplicateIdentityError is raised when a scan produces two physical or
// logical volumes sharing the same identity string, which the Volume
// Manager treats as a programming error in a supplied factory or prober.
type DuplicateIdentityError struct {
	Kind     string // "physical volume" or "logical volume"
	Identity string
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("duplicate %s identity %q", e.Kind, e.Identity)
}
