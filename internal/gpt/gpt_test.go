package gpt_test

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwanVanDongen/DiscUtils/internal/gpt"
	"github.com/TwanVanDongen/DiscUtils/internal/streams"
)

// buildGPTImage constructs a minimal synthetic disk image with a GPT
// header at LBA1 and one partition entry, for tests.
func buildGPTImage(t *testing.T, diskGUID uuid.UUID, partTypeGUID, partUniqueGUID uuid.UUID, firstLBA, lastLBA uint64, name string) []byte {
	t.Helper()
	const entrySize = 128
	const numEntries = 4
	const entryLBA = 2

	img := make([]byte, (entryLBA+numEntries)*gpt.SectorSize)

	header := img[1*gpt.SectorSize : 2*gpt.SectorSize]
	copy(header[0:8], []byte("EFI PART"))
	copy(header[56:72], mixedEndianBytes(diskGUID))
	binary.LittleEndian.PutUint64(header[72:80], entryLBA)
	binary.LittleEndian.PutUint32(header[80:84], numEntries)
	binary.LittleEndian.PutUint32(header[84:88], entrySize)

	entries := img[entryLBA*gpt.SectorSize : (entryLBA+numEntries)*gpt.SectorSize]
	entry := entries[0:entrySize]
	copy(entry[0:16], mixedEndianBytes(partTypeGUID))
	copy(entry[16:32], mixedEndianBytes(partUniqueGUID))
	binary.LittleEndian.PutUint64(entry[32:40], firstLBA)
	binary.LittleEndian.PutUint64(entry[40:48], lastLBA)
	putUTF16LE(entry[56:56+72], name)

	return img
}

func mixedEndianBytes(u uuid.UUID) []byte {
	b := make([]byte, 16)
	b[0], b[1], b[2], b[3] = u[3], u[2], u[1], u[0]
	b[4], b[5] = u[5], u[4]
	b[6], b[7] = u[7], u[6]
	copy(b[8:], u[8:16])
	return b
}

func putUTF16LE(dst []byte, s string) {
	i := 0
	for _, r := range s {
		if i+2 > len(dst) {
			break
		}
		binary.LittleEndian.PutUint16(dst[i:i+2], uint16(r))
		i += 2
	}
}

func TestProberDetectsGPTSignature(t *testing.T) {
	diskGUID := uuid.New()
	partType := uuid.New()
	img := buildGPTImage(t, diskGUID, partType, uuid.New(), 34, 1000, "root")
	disk := streams.NewReadOnlyMemoryStream(img)

	p := gpt.NewProber()
	partitioned, err := p.IsPartitioned(disk)
	require.NoError(t, err)
	assert.True(t, partitioned)
}

func TestProberReturnsDiskGUIDAndPartitions(t *testing.T) {
	diskGUID := uuid.New()
	partType := uuid.New()
	partUnique := uuid.New()
	img := buildGPTImage(t, diskGUID, partType, partUnique, 34, 1033, "root")
	disk := streams.NewReadOnlyMemoryStream(img)

	p := gpt.NewProber()
	tables, err := p.GetPartitionTables(disk)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, diskGUID, tables[0].DiskGUID)
	require.Len(t, tables[0].Partitions, 1)

	part := tables[0].Partitions[0]
	assert.Equal(t, partType, part.TypeGUID)
	assert.Equal(t, partUnique, part.UniqueGUID)
	assert.Equal(t, uint64(34), part.FirstLBA)
	assert.Equal(t, uint64(1033), part.LastLBA)
	assert.Equal(t, "root", part.Name)

	start, length := part.ByteRange(gpt.SectorSize)
	assert.Equal(t, int64(34*gpt.SectorSize), start)
	assert.Equal(t, int64(1000*gpt.SectorSize), length)
}

func TestProberMapsKnownTypeGUIDToLegacyBiosType(t *testing.T) {
	lvmType := uuid.MustParse("E6D6D379-F507-44C2-A23C-238F2A3DF928")
	img := buildGPTImage(t, uuid.New(), lvmType, uuid.New(), 34, 1000, "lvm")
	disk := streams.NewReadOnlyMemoryStream(img)

	p := gpt.NewProber()
	tables, err := p.GetPartitionTables(disk)
	require.NoError(t, err)
	require.Len(t, tables[0].Partitions, 1)
	assert.Equal(t, byte(0x8E), tables[0].Partitions[0].BiosType)
}

func TestProberLeavesBiosTypeZeroForUnknownGUID(t *testing.T) {
	img := buildGPTImage(t, uuid.New(), uuid.New(), uuid.New(), 34, 1000, "unknown")
	disk := streams.NewReadOnlyMemoryStream(img)

	p := gpt.NewProber()
	tables, err := p.GetPartitionTables(disk)
	require.NoError(t, err)
	assert.Equal(t, byte(0), tables[0].Partitions[0].BiosType)
}

func TestProberSkipsEmptyEntries(t *testing.T) {
	img := buildGPTImage(t, uuid.New(), uuid.New(), uuid.New(), 34, 100, "only")
	disk := streams.NewReadOnlyMemoryStream(img)

	p := gpt.NewProber()
	tables, err := p.GetPartitionTables(disk)
	require.NoError(t, err)
	// 4 entry slots were allocated in the image but only 1 was filled in.
	assert.Len(t, tables[0].Partitions, 1)
}

func TestProberIsPartitionedFalseWithoutGPTSignature(t *testing.T) {
	disk := streams.NewReadOnlyMemoryStream(make([]byte, 4*gpt.SectorSize))
	p := gpt.NewProber()
	partitioned, err := p.IsPartitioned(disk)
	require.NoError(t, err)
	assert.False(t, partitioned)
}

func TestDetectDiskSignatureReadsMBRSignature(t *testing.T) {
	sector := make([]byte, gpt.SectorSize)
	binary.LittleEndian.PutUint32(sector[440:444], 0xDEADBEEF)
	sector[510], sector[511] = 0x55, 0xAA
	disk := streams.NewReadOnlyMemoryStream(sector)

	sig, ok, err := gpt.DetectDiskSignature(disk)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(0xDEADBEEF), sig)
}

func TestDetectDiskSignatureFalseWithoutBootSignature(t *testing.T) {
	sector := make([]byte, gpt.SectorSize)
	binary.LittleEndian.PutUint32(sector[440:444], 0xDEADBEEF)
	disk := streams.NewReadOnlyMemoryStream(sector)

	_, ok, err := gpt.DetectDiskSignature(disk)
	require.NoError(t, err)
	assert.False(t, ok)
}
