// Package diskvol holds the data model and external-collaborator interfaces
// the Volume Manager is built from: physical/logical volume records, the
// partition table prober, and the logical volume factory contract. Keeping
// these free of a dependency on the volume manager itself lets the GPT
// prober and the manager import the same vocabulary without a cycle.
package diskvol

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/TwanVanDongen/DiscUtils/internal/streams"
)

// Partition describes one entry read from a disk's partition table.
type Partition struct {
	// Index is the entry's slot number within the partition table,
	// including empty slots skipped during parsing, so identities stay
	// stable across re-scans of the same disk.
	Index int
	// TypeGUID identifies the partition's contents (GPT) or is the zero
	// value for tables that only carry a legacy type byte.
	TypeGUID uuid.UUID
	// UniqueGUID is the partition's own identifier (GPT only).
	UniqueGUID uuid.UUID
	// FirstLBA and LastLBA are inclusive sector bounds.
	FirstLBA, LastLBA uint64
	// Name is the partition's human-readable label, if the table format
	// carries one.
	Name string
	// BiosType is the legacy MBR partition type byte this partition's
	// TypeGUID maps to under the prober's well-known GUID table, or 0 if
	// the GUID has no recognized mapping.
	BiosType byte
}

// ByteRange converts the partition's inclusive LBA bounds to a byte start
// and length using sectorSize.
func (p Partition) ByteRange(sectorSize int64) (start, length int64) {
	start = int64(p.FirstLBA) * sectorSize
	length = (int64(p.LastLBA) - int64(p.FirstLBA) + 1) * sectorSize
	return start, length
}

// PartitionTable is the set of partitions found by a single probe of a
// disk, plus the disk-level GUID that probe exposed (zero if none).
type PartitionTable struct {
	DiskGUID   uuid.UUID
	Partitions []Partition
}

// PartitionTableProber is the external collaborator a disk's content is
// handed to in order to discover whether, and how, it is partitioned.
type PartitionTableProber interface {
	// IsPartitioned reports whether disk carries a partition table this
	// prober recognizes. A disk that fails every recognized format is not
	// an error: it is treated as a single whole-disk volume.
	IsPartitioned(disk streams.SparseStream) (bool, error)
	// GetPartitionTables returns every partition table this prober found
	// on disk.
	GetPartitionTables(disk streams.SparseStream) ([]PartitionTable, error)
}

// Disk is a registered disk stream plus the identity-bearing metadata
// discovered about it when it was added to the Volume Manager.
type Disk struct {
	Ordinal      int
	Stream       streams.SparseStream
	GPTGUID      *uuid.UUID
	MBRSignature uint32
}

// Identity derives the disk's stable string identity using the priority
// order: GPT disk GUID, then MBR signature, then insertion ordinal.
func (d *Disk) Identity() string {
	if d.GPTGUID != nil && *d.GPTGUID != uuid.Nil {
		return fmt.Sprintf("DG{%s}", strings.ToUpper(d.GPTGUID.String()))
	}
	if d.MBRSignature != 0 {
		return fmt.Sprintf("DS%08X", d.MBRSignature)
	}
	return fmt.Sprintf("DO%d", d.Ordinal)
}

// VolumeStatus reports the health of a logical volume.
type VolumeStatus int

const (
	// StatusHealthy means every physical volume backing the logical
	// volume is present and readable.
	StatusHealthy VolumeStatus = iota
	// StatusFailed means the logical volume is missing a required
	// physical volume or otherwise cannot be opened.
	StatusFailed
)

// StreamOpener lazily opens the stream backing a physical or logical
// volume. It is called once per caller that needs the stream; repeated
// calls may return independent stream instances over the same bytes.
type StreamOpener func() (streams.SparseStream, error)

// PhysicalVolumeInfo describes one partition, or a whole unpartitioned
// disk, discovered during a scan.
type PhysicalVolumeInfo struct {
	// Identity is globally unique: derived from the disk identity and the
	// partition index, or "<disk-identity>:disk" for a whole-disk volume.
	Identity string
	// DiskIdentity is the owning disk's identity string.
	DiskIdentity string
	// PartitionIndex is the partition's slot number, or -1 for a
	// whole-disk volume.
	PartitionIndex int
	// Length is the volume's size in bytes.
	Length int64
	// BiosType is the legacy MBR partition type byte this volume maps to,
	// if any; 0 otherwise. Logical Volume Factories use it to recognize
	// volumes they should claim.
	BiosType byte
	// Open returns a stream over the volume's bytes.
	Open StreamOpener
}

// LogicalVolumeInfo describes a file-system-visible volume: either a
// passthrough wrap of a single unclaimed physical volume, or a composite
// produced by a Logical Volume Factory.
type LogicalVolumeInfo struct {
	Identity string
	Length   int64
	BiosType byte
	Status   VolumeStatus
	Open     StreamOpener
}

// LogicalVolumeFactory is the external collaborator that claims physical
// volumes and aggregates them into logical volumes spanning one or more
// disks.
type LogicalVolumeFactory interface {
	// Name identifies the factory; re-registering a factory whose Name
	// already exists in the registry is a no-op.
	Name() string
	// HandlesPhysicalVolume reports whether this factory claims pvi. A
	// factory that returns true here takes pvi out of consideration for
	// the default one-to-one passthrough wrap.
	HandlesPhysicalVolume(pvi PhysicalVolumeInfo) bool
	// MapDisks may insert or override logical volumes in result. It runs
	// after every physical volume has been offered to
	// HandlesPhysicalVolume, so a stateful factory can use what it
	// claimed to build composite volumes here.
	MapDisks(disks []*Disk, result map[string]LogicalVolumeInfo) error
}

// ScanResetter is an optional capability a LogicalVolumeFactory may
// implement when it needs to clear state accumulated by
// HandlesPhysicalVolume before a fresh scan begins.
type ScanResetter interface {
	ResetScan()
}
