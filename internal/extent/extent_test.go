package extent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwanVanDongen/DiscUtils/internal/extent"
)

func TestNormalizeMergesOverlappingAndAdjacent(t *testing.T) {
	in := []extent.Extent{
		{Start: 10, Length: 5}, // [10,15)
		{Start: 0, Length: 5},  // [0,5)
		{Start: 5, Length: 5},  // [5,10) adjacent to [0,5) and [10,15)
		{Start: 100, Length: 0},
	}
	got := extent.Normalize(in)
	require.Equal(t, []extent.Extent{{Start: 0, Length: 15}}, got)
}

func TestUnionUnionsTwoSequences(t *testing.T) {
	a := []extent.Extent{{Start: 0, Length: 10}}
	b := []extent.Extent{{Start: 20, Length: 10}}
	got := extent.Union(a, b)
	assert.Equal(t, []extent.Extent{{Start: 0, Length: 10}, {Start: 20, Length: 10}}, got)
}

func TestIntersectReturnsOverlap(t *testing.T) {
	a := []extent.Extent{{Start: 0, Length: 10}}
	b := []extent.Extent{{Start: 5, Length: 10}}
	got := extent.Intersect(a, b)
	assert.Equal(t, []extent.Extent{{Start: 5, Length: 5}}, got)
}

func TestSubtractRemovesCoveredBytes(t *testing.T) {
	a := []extent.Extent{{Start: 0, Length: 20}}
	b := []extent.Extent{{Start: 5, Length: 5}}
	got := extent.Subtract(a, b)
	assert.Equal(t, []extent.Extent{{Start: 0, Length: 5}, {Start: 10, Length: 10}}, got)
}

func TestOffsetAllTranslatesEveryExtent(t *testing.T) {
	in := []extent.Extent{{Start: 0, Length: 10}, {Start: 20, Length: 5}}
	got := extent.OffsetAll(in, 100)
	assert.Equal(t, []extent.Extent{{Start: 100, Length: 10}, {Start: 120, Length: 5}}, got)
}

func TestSliceIteratorAndCollect(t *testing.T) {
	items := []extent.Extent{{Start: 0, Length: 1}, {Start: 5, Length: 2}}
	it := extent.NewSliceIterator(items)
	got, err := extent.Collect(it)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestEmptyIteratorYieldsNothing(t *testing.T) {
	got, err := extent.Collect(extent.Empty())
	require.NoError(t, err)
	assert.Empty(t, got)
}
