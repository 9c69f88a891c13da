// Package diskstreams is the module's external entry point: it re-exports
// the Sparse Stream contract, Concat Stream, and Volume Manager from
// internal packages as the thin, stable surface other modules import,
// mirroring how the teacher codebase's pkg layer fronts its internal
// services rather than exposing them directly.
package diskstreams

import (
	"github.com/TwanVanDongen/DiscUtils/internal/config"
	"github.com/TwanVanDongen/DiscUtils/internal/diag"
	"github.com/TwanVanDongen/DiscUtils/internal/diskio"
	"github.com/TwanVanDongen/DiscUtils/internal/diskvol"
	"github.com/TwanVanDongen/DiscUtils/internal/extent"
	"github.com/TwanVanDongen/DiscUtils/internal/gpt"
	"github.com/TwanVanDongen/DiscUtils/internal/streamerr"
	"github.com/TwanVanDongen/DiscUtils/internal/streams"
	"github.com/TwanVanDongen/DiscUtils/internal/volumes"
)

// Stream types.

type (
	SparseStream = streams.SparseStream
	Ownership    = streams.Ownership
	ConcatStream = streams.ConcatStream
	Window       = streams.Window
	MemoryStream = streams.MemoryStream
	Extent       = extent.Extent
)

const (
	OwnershipNone    = streams.OwnershipNone
	OwnershipDispose = streams.OwnershipDispose
)

// NewConcatStream composes subs into a single Sparse Stream, per Ownership.
func NewConcatStream(ownership Ownership, subs ...SparseStream) (*ConcatStream, error) {
	return streams.NewConcatStream(ownership, subs...)
}

// NewWindow returns a Sparse Stream view over parent's
// [first, first+count) byte range.
func NewWindow(parent SparseStream, first, count int64, ownership Ownership) *Window {
	return streams.NewWindow(parent, first, count, ownership)
}

// NewMemoryStream wraps buf as a growable, read/write Sparse Stream.
func NewMemoryStream(buf []byte) *MemoryStream {
	return streams.NewMemoryStream(buf)
}

// OpenDiskImage opens path as a read-only leaf Sparse Stream with a block
// cache bounded to maxCacheSizeMB megabytes.
func OpenDiskImage(path string, maxCacheSizeMB int) (*diskio.FileStream, error) {
	return diskio.Open(path, maxCacheSizeMB)
}

// OpenDiskImageWithConfig opens path the same way OpenDiskImage does, using
// cfg.CacheSizeMB as the block cache bound instead of a caller-supplied one.
func OpenDiskImageWithConfig(path string, cfg *Config) (*diskio.FileStream, error) {
	return diskio.Open(path, cfg.CacheSizeMB)
}

// Volume Manager surface.

type (
	Manager              = volumes.Manager
	ManagerOption        = volumes.Option
	PhysicalVolumeInfo   = diskvol.PhysicalVolumeInfo
	LogicalVolumeInfo    = diskvol.LogicalVolumeInfo
	VolumeInfo           = volumes.VolumeInfo
	VolumeStatus         = diskvol.VolumeStatus
	LogicalVolumeFactory = diskvol.LogicalVolumeFactory
)

const (
	StatusHealthy = diskvol.StatusHealthy
	StatusFailed  = diskvol.StatusFailed
)

// NewManager returns an empty Volume Manager using the GPT/MBR partition
// table prober and the process-wide logical volume factory registry.
func NewManager(opts ...ManagerOption) *Manager {
	return volumes.NewManager(opts...)
}

// WithProber overrides the default partition table prober.
func WithProber(p diskvol.PartitionTableProber) ManagerOption {
	return volumes.WithProber(p)
}

// WithLogger attaches diagnostics logging to a Manager's scan activity.
func WithLogger(l diag.Logger) ManagerOption {
	return volumes.WithLogger(l)
}

// WithConfig applies a loaded Config to a new Manager: it gates ordinal
// disk-identity fallback, turns on diagnostics logging, and auto-registers
// the built-in PassthroughFactory and LinearFactory per cfg's settings.
func WithConfig(cfg *Config) ManagerOption {
	return volumes.WithConfig(cfg)
}

// GetPhysicalVolumes is the static convenience form of Manager.AddDisk
// followed by Manager.GetPhysicalVolumes for a single disk stream.
func GetPhysicalVolumes(disk SparseStream) ([]PhysicalVolumeInfo, error) {
	return volumes.GetPhysicalVolumesForDisk(disk)
}

// RegisterLogicalVolumeFactory augments the process-wide factory registry.
// Re-registering a factory whose Name() is already present is a no-op.
func RegisterLogicalVolumeFactory(factory LogicalVolumeFactory) {
	volumes.DefaultRegistry().Register(factory)
}

// NewPassthroughFactory returns the reference no-op Logical Volume Factory.
func NewPassthroughFactory() *volumes.PassthroughFactory {
	return volumes.NewPassthroughFactory()
}

// NewLinearFactory returns a Logical Volume Factory that concatenates every
// physical volume tagged with biosType into one logical volume.
func NewLinearFactory(biosType byte) *volumes.LinearFactory {
	return volumes.NewLinearFactory(biosType)
}

// NewGPTProber returns the reference GPT/MBR PartitionTableProber.
func NewGPTProber() *gpt.Prober {
	return gpt.NewProber()
}

// Configuration and diagnostics surface.

type Config = config.VolumeManagerConfig

// LoadConfig loads runtime configuration from a diskstreams-config file and
// DISKSTREAMS_* environment variables, using DefaultConfig's values for
// anything neither sets.
func LoadConfig() (*Config, error) {
	return config.Load()
}

// DefaultConfig returns the configuration LoadConfig would produce with no
// config file and no environment overrides.
func DefaultConfig() *Config {
	return config.Default()
}

// Logger is the opt-in diagnostics logger used by Manager.
type Logger = diag.Logger

// NewLogger returns an active or inactive diagnostics logger.
func NewLogger(active bool) Logger {
	return diag.New(active, nil)
}

// Sentinel errors re-exported for callers that need errors.Is checks
// against this module's failure modes without reaching into internal/.
var (
	ErrObjectDisposed  = streamerr.ErrObjectDisposed
	ErrSeekBeforeStart = streamerr.ErrSeekBeforeStart
	ErrReadOnly        = streamerr.ErrReadOnly
	ErrShrinkPastTail  = streamerr.ErrShrinkPastTail
)
