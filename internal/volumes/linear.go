package volumes

import (
	"fmt"
	"sync"

	"github.com/TwanVanDongen/DiscUtils/internal/diskvol"
	"github.com/TwanVanDongen/DiscUtils/internal/streams"
)

// LinearFactory aggregates every physical volume tagged with a configured
// legacy BIOS partition type byte into one logical volume, concatenating
// their bytes end to end in the order they were claimed. It is the
// reference stateful Logical Volume Factory: HandlesPhysicalVolume
// accumulates claims during a scan, and MapDisks consumes them once every
// physical volume has been offered.
type LinearFactory struct {
	biosType byte

	mu      sync.Mutex
	claimed []diskvol.PhysicalVolumeInfo
}

// NewLinearFactory returns a LinearFactory that claims physical volumes
// whose BiosType equals biosType.
func NewLinearFactory(biosType byte) *LinearFactory {
	return &LinearFactory{biosType: biosType}
}

func (f *LinearFactory) Name() string { return "linear" }

func (f *LinearFactory) HandlesPhysicalVolume(pvi diskvol.PhysicalVolumeInfo) bool {
	if pvi.BiosType != f.biosType {
		return false
	}
	f.mu.Lock()
	f.claimed = append(f.claimed, pvi)
	f.mu.Unlock()
	return true
}

func (f *LinearFactory) MapDisks(_ []*diskvol.Disk, result map[string]diskvol.LogicalVolumeInfo) error {
	f.mu.Lock()
	claimed := make([]diskvol.PhysicalVolumeInfo, len(f.claimed))
	copy(claimed, f.claimed)
	f.mu.Unlock()

	if len(claimed) == 0 {
		return nil
	}

	var totalLength int64
	members := make([]diskvol.PhysicalVolumeInfo, len(claimed))
	copy(members, claimed)
	for _, m := range members {
		totalLength += m.Length
	}

	identity := fmt.Sprintf("LV{linear:%s}", members[0].Identity)
	result[identity] = diskvol.LogicalVolumeInfo{
		Identity: identity,
		Length:   totalLength,
		BiosType: f.biosType,
		Status:   diskvol.StatusHealthy,
		Open: func() (streams.SparseStream, error) {
			subs := make([]streams.SparseStream, 0, len(members))
			for _, m := range members {
				s, err := m.Open()
				if err != nil {
					for _, opened := range subs {
						opened.Close()
					}
					return nil, fmt.Errorf("volumes: linear factory failed to open member %q: %w", m.Identity, err)
				}
				subs = append(subs, s)
			}
			return streams.NewConcatStream(streams.OwnershipDispose, subs...)
		},
	}
	return nil
}

// ResetScan clears claims accumulated by a prior scan, so a fresh scan
// starts from an empty claim set.
func (f *LinearFactory) ResetScan() {
	f.mu.Lock()
	f.claimed = nil
	f.mu.Unlock()
}

var (
	_ diskvol.LogicalVolumeFactory = (*LinearFactory)(nil)
	_ diskvol.ScanResetter         = (*LinearFactory)(nil)
)
