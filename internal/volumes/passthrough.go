package volumes

import "github.com/TwanVanDongen/DiscUtils/internal/diskvol"

// PassthroughFactory claims nothing: every physical volume it is offered
// is left for the Volume Manager's default one-to-one wrap. It exists as
// the reference "no-op" Logical Volume Factory. WithConfig registers it when
// auto-registration is enabled, so HandlesPhysicalVolume has at least one
// real collaborator to consult even when no aggregating factory claims.
type PassthroughFactory struct{}

// NewPassthroughFactory returns a ready-to-register PassthroughFactory.
func NewPassthroughFactory() *PassthroughFactory { return &PassthroughFactory{} }

func (f *PassthroughFactory) Name() string { return "passthrough" }

func (f *PassthroughFactory) HandlesPhysicalVolume(diskvol.PhysicalVolumeInfo) bool {
	return false
}

func (f *PassthroughFactory) MapDisks([]*diskvol.Disk, map[string]diskvol.LogicalVolumeInfo) error {
	return nil
}

var _ diskvol.LogicalVolumeFactory = (*PassthroughFactory)(nil)
