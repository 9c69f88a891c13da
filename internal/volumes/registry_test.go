package volumes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TwanVanDongen/DiscUtils/internal/volumes"
)

func TestFactoryRegistryIgnoresDuplicateNames(t *testing.T) {
	r := volumes.NewFactoryRegistry()
	assert.False(t, r.IsInitialized())

	r.Register(volumes.NewPassthroughFactory())
	r.Register(volumes.NewPassthroughFactory())

	assert.True(t, r.IsInitialized())
	assert.Len(t, r.Snapshot(), 1)
}

func TestFactoryRegistrySnapshotIsIndependentCopy(t *testing.T) {
	r := volumes.NewFactoryRegistry()
	r.Register(volumes.NewPassthroughFactory())

	snap := r.Snapshot()
	r.Register(volumes.NewLinearFactory(0x8E))

	assert.Len(t, snap, 1)
	assert.Len(t, r.Snapshot(), 2)
}
