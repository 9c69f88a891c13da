package volumes

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/TwanVanDongen/DiscUtils/internal/config"
	"github.com/TwanVanDongen/DiscUtils/internal/diag"
	"github.com/TwanVanDongen/DiscUtils/internal/diskvol"
	"github.com/TwanVanDongen/DiscUtils/internal/gpt"
	"github.com/TwanVanDongen/DiscUtils/internal/streamerr"
	"github.com/TwanVanDongen/DiscUtils/internal/streams"
)

// VolumeInfo is the union type GetVolume returns: exactly one of Physical
// or Logical is non-nil.
type VolumeInfo struct {
	Physical *diskvol.PhysicalVolumeInfo
	Logical  *diskvol.LogicalVolumeInfo
}

// Manager maintains a mutable set of disks and, on demand, scans them into
// physical and logical volumes. Its per-instance maps are not safe for
// concurrent mutation; callers serialize access per the concurrency model
// every Sparse Stream implementation in this module follows.
type Manager struct {
	prober                 diskvol.PartitionTableProber
	registry               *FactoryRegistry
	log                    diag.Logger
	ordinalFallbackEnabled bool

	mu        sync.Mutex
	disks     []*diskvol.Disk
	physical  map[string]diskvol.PhysicalVolumeInfo
	logical   map[string]diskvol.LogicalVolumeInfo
	scanDirty bool
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithProber overrides the default GPT/MBR partition-table prober.
func WithProber(p diskvol.PartitionTableProber) Option {
	return func(m *Manager) { m.prober = p }
}

// WithRegistry overrides the default process-wide factory registry,
// primarily for test isolation.
func WithRegistry(r *FactoryRegistry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithLogger attaches diagnostics logging to scan activity.
func WithLogger(l diag.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithConfig applies a loaded VolumeManagerConfig to the manager: it gates
// ordinal disk-identity fallback, turns on internal/diag logging, and
// auto-registers the built-in PassthroughFactory and LinearFactory the same
// way the teacher's config-driven constructors wire optional collaborators.
func WithConfig(cfg *config.VolumeManagerConfig) Option {
	return func(m *Manager) {
		m.ordinalFallbackEnabled = cfg.OrdinalFallbackEnabled
		if cfg.DiagnosticsEnabled {
			m.log = diag.New(true, nil)
		}
		if cfg.AutoRegisterFactories {
			m.registry.Register(NewPassthroughFactory())
			m.registry.Register(NewLinearFactory(byte(cfg.LinearBiosType)))
		}
	}
}

// NewManager returns an empty Manager using the GPT/MBR prober and the
// process-wide factory registry by default.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		prober:                 gpt.NewProber(),
		registry:               defaultRegistry,
		log:                    diag.Noop(),
		ordinalFallbackEnabled: true,
		physical:               make(map[string]diskvol.PhysicalVolumeInfo),
		logical:                make(map[string]diskvol.LogicalVolumeInfo),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddDisk registers stream as a new disk, deriving its identity from a GPT
// GUID, then an MBR signature, then its insertion ordinal, and marks the
// manager's scan state dirty. It returns the derived disk identity.
func (m *Manager) AddDisk(stream streams.SparseStream) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	disk := &diskvol.Disk{Ordinal: len(m.disks), Stream: stream}

	partitioned, err := m.prober.IsPartitioned(stream)
	if err != nil {
		return "", fmt.Errorf("volumes: probing disk %d for a partition table failed: %w", disk.Ordinal, err)
	}
	if partitioned {
		tables, err := m.prober.GetPartitionTables(stream)
		if err != nil {
			return "", fmt.Errorf("volumes: reading partition tables for disk %d failed: %w", disk.Ordinal, err)
		}
		if len(tables) > 0 && tables[0].DiskGUID != uuid.Nil {
			guid := tables[0].DiskGUID
			disk.GPTGUID = &guid
		}
	}
	if disk.GPTGUID == nil {
		if sig, ok, err := gpt.DetectDiskSignature(stream); err == nil && ok {
			disk.MBRSignature = sig
		}
	}
	if disk.GPTGUID == nil && disk.MBRSignature == 0 && !m.ordinalFallbackEnabled {
		return "", streamerr.ErrDiskIdentityUnavailable
	}

	m.disks = append(m.disks, disk)
	m.scanDirty = true
	m.log.Info(fmt.Sprintf("volumes: added disk %s", disk.Identity()))
	return disk.Identity(), nil
}

// GetPhysicalVolumes returns every physical volume discovered across all
// registered disks, re-scanning first if the manager's state is dirty.
func (m *Manager) GetPhysicalVolumes() ([]diskvol.PhysicalVolumeInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.rescanIfDirty(); err != nil {
		return nil, err
	}
	out := make([]diskvol.PhysicalVolumeInfo, 0, len(m.physical))
	for _, pvi := range m.physical {
		out = append(out, pvi)
	}
	return out, nil
}

// GetLogicalVolumes returns every logical volume produced by the last
// scan, re-scanning first if the manager's state is dirty.
func (m *Manager) GetLogicalVolumes() ([]diskvol.LogicalVolumeInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.rescanIfDirty(); err != nil {
		return nil, err
	}
	out := make([]diskvol.LogicalVolumeInfo, 0, len(m.logical))
	for _, lvi := range m.logical {
		out = append(out, lvi)
	}
	return out, nil
}

// GetVolume looks up identity among both physical and logical volumes,
// re-scanning first if the manager's state is dirty. It returns nil if
// identity is not found in either map.
func (m *Manager) GetVolume(identity string) (*VolumeInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.rescanIfDirty(); err != nil {
		return nil, err
	}
	if pvi, ok := m.physical[identity]; ok {
		return &VolumeInfo{Physical: &pvi}, nil
	}
	if lvi, ok := m.logical[identity]; ok {
		return &VolumeInfo{Logical: &lvi}, nil
	}
	return nil, nil
}

// RegisterLogicalVolumeFactory augments the manager's factory registry.
// Re-registering a factory whose Name() is already present is a no-op.
func (m *Manager) RegisterLogicalVolumeFactory(factory diskvol.LogicalVolumeFactory) {
	m.registry.Register(factory)
	m.mu.Lock()
	m.scanDirty = true
	m.mu.Unlock()
}

// GetPhysicalVolumesForDisk is the static convenience form: it scans a
// single disk stream without constructing a persistent Manager.
func GetPhysicalVolumesForDisk(stream streams.SparseStream) ([]diskvol.PhysicalVolumeInfo, error) {
	m := NewManager()
	if _, err := m.AddDisk(stream); err != nil {
		return nil, err
	}
	return m.GetPhysicalVolumes()
}

// rescanIfDirty rebuilds the physical and logical maps atomically if
// add_disk or factory registration has marked the manager dirty since the
// last scan. Callers must hold m.mu.
func (m *Manager) rescanIfDirty() error {
	if !m.scanDirty {
		return nil
	}

	physical, err := m.scanPhysical()
	if err != nil {
		return err
	}
	logical, err := m.scanLogical(physical)
	if err != nil {
		return err
	}

	m.physical = physical
	m.logical = logical
	m.scanDirty = false
	return nil
}

// scanPhysical implements discovery phase 1: for each disk, probe its
// partition table and emit one PhysicalVolumeInfo per partition, or one
// whole-disk PhysicalVolumeInfo if the disk carries no recognized table.
func (m *Manager) scanPhysical() (map[string]diskvol.PhysicalVolumeInfo, error) {
	physical := make(map[string]diskvol.PhysicalVolumeInfo)

	for _, disk := range m.disks {
		diskID := disk.Identity()

		partitioned, err := m.prober.IsPartitioned(disk.Stream)
		if err != nil {
			return nil, fmt.Errorf("volumes: probing disk %s failed: %w", diskID, err)
		}

		if !partitioned {
			pvi := wholeDiskVolume(disk, diskID)
			if err := insertUnique(physical, "physical volume", pvi.Identity, pvi); err != nil {
				return nil, err
			}
			continue
		}

		tables, err := m.prober.GetPartitionTables(disk.Stream)
		if err != nil {
			return nil, fmt.Errorf("volumes: reading partition tables for disk %s failed: %w", diskID, err)
		}
		for _, table := range tables {
			for _, part := range table.Partitions {
				pvi := partitionVolume(disk, diskID, part)
				if err := insertUnique(physical, "physical volume", pvi.Identity, pvi); err != nil {
					return nil, err
				}
			}
		}
	}

	return physical, nil
}

// scanLogical implements discovery phase 2: every physical volume is
// offered to each registered factory in turn; the first to claim it wins.
// Unclaimed volumes become one-to-one passthrough logical volumes.
// Afterward every factory's MapDisks may inject or override multi-disk
// logical volumes.
func (m *Manager) scanLogical(physical map[string]diskvol.PhysicalVolumeInfo) (map[string]diskvol.LogicalVolumeInfo, error) {
	factories := m.registry.Snapshot()
	for _, f := range factories {
		if resetter, ok := f.(diskvol.ScanResetter); ok {
			resetter.ResetScan()
		}
	}

	logical := make(map[string]diskvol.LogicalVolumeInfo)

	// Offered in a stable, sorted-by-identity order rather than Go's
	// randomized map iteration: a stateful factory such as LinearFactory
	// accumulates claims in the order they are offered and derives its
	// aggregate's identity and byte layout from that order, so an unstable
	// offer order would let an unrelated rescan reorder unchanged volumes.
	identities := make([]string, 0, len(physical))
	for identity := range physical {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	for _, identity := range identities {
		pvi := physical[identity]
		claimed := false
		for _, f := range factories {
			if f.HandlesPhysicalVolume(pvi) {
				claimed = true
				break
			}
		}
		if !claimed {
			lvi := diskvol.LogicalVolumeInfo{
				Identity: pvi.Identity,
				Length:   pvi.Length,
				BiosType: pvi.BiosType,
				Status:   diskvol.StatusHealthy,
				Open:     pvi.Open,
			}
			if err := insertUnique(logical, "logical volume", lvi.Identity, lvi); err != nil {
				return nil, err
			}
		}
	}

	for _, f := range factories {
		if err := f.MapDisks(m.disks, logical); err != nil {
			return nil, fmt.Errorf("volumes: logical volume factory %q failed: %w", f.Name(), err)
		}
	}

	return logical, nil
}

func wholeDiskVolume(disk *diskvol.Disk, diskID string) diskvol.PhysicalVolumeInfo {
	identity := fmt.Sprintf("%s:disk", diskID)
	return diskvol.PhysicalVolumeInfo{
		Identity:       identity,
		DiskIdentity:   diskID,
		PartitionIndex: -1,
		Length:         disk.Stream.Length(),
		Open: func() (streams.SparseStream, error) {
			return streams.NewWindow(disk.Stream, 0, disk.Stream.Length(), streams.OwnershipNone), nil
		},
	}
}

func partitionVolume(disk *diskvol.Disk, diskID string, part diskvol.Partition) diskvol.PhysicalVolumeInfo {
	identity := fmt.Sprintf("%s:p%d", diskID, part.Index)
	start, length := part.ByteRange(gpt.SectorSize)
	return diskvol.PhysicalVolumeInfo{
		Identity:       identity,
		DiskIdentity:   diskID,
		PartitionIndex: part.Index,
		Length:         length,
		BiosType:       part.BiosType,
		Open: func() (streams.SparseStream, error) {
			return streams.NewWindow(disk.Stream, start, length, streams.OwnershipNone), nil
		},
	}
}

func insertUnique[V any](m map[string]V, kind, identity string, v V) error {
	if _, exists := m[identity]; exists {
		return &streamerr.DuplicateIdentityError{Kind: kind, Identity: identity}
	}
	m[identity] = v
	return nil
}
