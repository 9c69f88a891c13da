// Package gpt is the reference PartitionTableProber implementation: it
// walks a GPT header and partition-entry array the same way the disk-image
// offset detector in the teacher codebase located an APFS container, but
// generalized from "find one partition type" to "enumerate every
// partition," plus a legacy MBR signature probe for disks with no GPT.
package gpt

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/TwanVanDongen/DiscUtils/internal/diskvol"
	"github.com/TwanVanDongen/DiscUtils/internal/streams"
)

// SectorSize is the logical sector size this prober assumes.
const SectorSize = 512

const (
	gptHeaderLBA              = 1
	signatureOffset           = 0
	diskGUIDOffset            = 56
	partitionEntryLBAOffset   = 72
	numPartitionEntriesOffset = 80
	partitionEntrySizeOffset  = 84

	entryTypeGUIDOffset   = 0
	entryUniqueGUIDOffset = 16
	entryFirstLBAOffset   = 32
	entryLastLBAOffset    = 40
	entryNameOffset       = 56
	entryNameLength       = 72 // 36 UTF-16LE code units

	mbrSignatureOffset = 440
	mbrBootSigOffset   = 510
)

var gptSignature = []byte("EFI PART")

// biosTypeByGUID maps well-known GPT partition type GUIDs to the legacy MBR
// partition type byte a Logical Volume Factory (such as LinearFactory) can
// key its claim predicate on, the same way a hybrid MBR/GPT disk carries
// both identifiers for the same partition.
var biosTypeByGUID = map[uuid.UUID]byte{
	uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B"): 0xEF, // EFI System
	uuid.MustParse("0FC63DAF-8483-4772-8E79-3D69D8477DE4"): 0x83, // Linux filesystem data
	uuid.MustParse("E6D6D379-F507-44C2-A23C-238F2A3DF928"): 0x8E, // Linux LVM
	uuid.MustParse("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7"): 0x07, // Microsoft basic data
	uuid.MustParse("21686148-6449-6E6F-744E-656564454649"): 0xDA, // BIOS boot
}

// Prober implements diskvol.PartitionTableProber against the GPT on-disk
// layout, falling back to an MBR 32-bit disk signature when no GPT header
// is present.
type Prober struct{}

// NewProber returns a ready-to-use GPT/MBR prober.
func NewProber() *Prober { return &Prober{} }

// IsPartitioned reports whether disk carries a GPT header. A disk without
// one is not an error; it is simply not partitioned as far as this prober
// is concerned, leaving MBR signature detection to the disk-identity
// fallback chain.
func (p *Prober) IsPartitioned(disk streams.SparseStream) (bool, error) {
	header, err := readAt(disk, gptHeaderLBA*SectorSize, SectorSize)
	if err == io.EOF {
		// A disk too short to reach LBA1 cannot carry a GPT header.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return hasGPTSignature(header), nil
}

// GetPartitionTables reads the GPT header and its partition-entry array,
// returning every non-empty entry.
func (p *Prober) GetPartitionTables(disk streams.SparseStream) ([]diskvol.PartitionTable, error) {
	header, err := readAt(disk, gptHeaderLBA*SectorSize, SectorSize)
	if err != nil {
		return nil, err
	}
	if !hasGPTSignature(header) {
		return nil, fmt.Errorf("gpt: no valid GPT signature found")
	}

	diskGUID := guidFromMixedEndianBytes(header[diskGUIDOffset : diskGUIDOffset+16])
	entryLBA := binary.LittleEndian.Uint64(header[partitionEntryLBAOffset : partitionEntryLBAOffset+8])
	numEntries := binary.LittleEndian.Uint32(header[numPartitionEntriesOffset : numPartitionEntriesOffset+4])
	entrySize := binary.LittleEndian.Uint32(header[partitionEntrySizeOffset : partitionEntrySizeOffset+4])

	entriesBuf, err := readAt(disk, int64(entryLBA)*SectorSize, int64(numEntries)*int64(entrySize))
	if err != nil {
		return nil, err
	}

	var partitions []diskvol.Partition
	for i := uint32(0); i < numEntries; i++ {
		entry := entriesBuf[int64(i)*int64(entrySize) : int64(i+1)*int64(entrySize)]
		typeGUID := guidFromMixedEndianBytes(entry[entryTypeGUIDOffset : entryTypeGUIDOffset+16])
		if typeGUID == uuid.Nil {
			continue
		}
		uniqueGUID := guidFromMixedEndianBytes(entry[entryUniqueGUIDOffset : entryUniqueGUIDOffset+16])
		firstLBA := binary.LittleEndian.Uint64(entry[entryFirstLBAOffset : entryFirstLBAOffset+8])
		lastLBA := binary.LittleEndian.Uint64(entry[entryLastLBAOffset : entryLastLBAOffset+8])
		name := utf16leToString(entry[entryNameOffset : entryNameOffset+entryNameLength])

		partitions = append(partitions, diskvol.Partition{
			Index:      int(i),
			TypeGUID:   typeGUID,
			UniqueGUID: uniqueGUID,
			FirstLBA:   firstLBA,
			LastLBA:    lastLBA,
			Name:       name,
			BiosType:   biosTypeByGUID[typeGUID],
		})
	}

	return []diskvol.PartitionTable{{DiskGUID: diskGUID, Partitions: partitions}}, nil
}

func hasGPTSignature(header []byte) bool {
	return len(header) >= signatureOffset+8 && string(header[signatureOffset:signatureOffset+8]) == string(gptSignature)
}

// DetectDiskSignature reads the classic MBR 32-bit disk signature at byte
// offset 440, returning ok=false when the sector has no valid MBR boot
// signature (0x55AA) or the signature field is zero.
func DetectDiskSignature(disk streams.SparseStream) (uint32, bool, error) {
	sector, err := readAt(disk, 0, SectorSize)
	if err != nil {
		return 0, false, err
	}
	if len(sector) < mbrBootSigOffset+2 {
		return 0, false, nil
	}
	if sector[mbrBootSigOffset] != 0x55 || sector[mbrBootSigOffset+1] != 0xAA {
		return 0, false, nil
	}
	signature := binary.LittleEndian.Uint32(sector[mbrSignatureOffset : mbrSignatureOffset+4])
	if signature == 0 {
		return 0, false, nil
	}
	return signature, true, nil
}

func readAt(disk streams.SparseStream, offset, length int64) ([]byte, error) {
	if _, err := disk.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	n, err := io.ReadFull(disk, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}

// guidFromMixedEndianBytes converts a 16-byte GPT-encoded GUID (whose
// first three fields are little-endian, the remainder byte-for-byte) into
// the RFC 4122 big-endian layout uuid.UUID expects.
func guidFromMixedEndianBytes(b []byte) uuid.UUID {
	var out uuid.UUID
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:16])
	return out
}

func utf16leToString(b []byte) string {
	n := len(b) / 2
	units := make([]uint16, 0, n)
	for i := 0; i < n; i++ {
		u := binary.LittleEndian.Uint16(b[i*2 : i*2+2])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16Decode(units))
}

// utf16Decode is a minimal UTF-16 (no surrogate pairs needed for GPT
// partition names in practice) to rune decoder.
func utf16Decode(units []uint16) []rune {
	out := make([]rune, 0, len(units))
	for _, u := range units {
		out = append(out, rune(u))
	}
	return out
}
