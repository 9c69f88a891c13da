// Package extent implements the half-open byte-range value type shared by
// every sparse stream in this module, and the lazy iterator contract streams
// use to report their populated regions without materializing a full slice.
package extent

import "sort"

// Extent is a half-open byte range [Start, Start+Length).
type Extent struct {
	Start  int64
	Length int64
}

// End returns the exclusive end offset of the extent.
func (e Extent) End() int64 {
	return e.Start + e.Length
}

// IsEmpty reports whether the extent covers zero bytes.
func (e Extent) IsEmpty() bool {
	return e.Length <= 0
}

// Overlaps reports whether e and o share at least one byte.
func (e Extent) Overlaps(o Extent) bool {
	return e.Start < o.End() && o.Start < e.End()
}

// Adjacent reports whether e and o touch with no gap, in either order.
func (e Extent) Adjacent(o Extent) bool {
	return e.End() == o.Start || o.End() == e.Start
}

// Offset returns e translated by delta bytes.
func (e Extent) Offset(delta int64) Extent {
	return Extent{Start: e.Start + delta, Length: e.Length}
}

// Iterator is a pull-style, lazily-advancing sequence of extents. Next
// returns ok=false once exhausted. Implementations must not need to
// materialize their full sequence to answer a single Next call.
type Iterator interface {
	Next() (e Extent, ok bool, err error)
}

// Collect drains it into a slice. Intended for tests and for callers that
// genuinely need the whole sequence at once.
func Collect(it Iterator) ([]Extent, error) {
	var out []Extent
	for {
		e, ok, err := it.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, e)
	}
}

// sliceIterator adapts a pre-built slice to Iterator, for leaf streams whose
// extents are already resident in memory.
type sliceIterator struct {
	items []Extent
	pos   int
}

// NewSliceIterator returns an Iterator over a fixed slice of extents.
func NewSliceIterator(items []Extent) Iterator {
	return &sliceIterator{items: items}
}

func (s *sliceIterator) Next() (Extent, bool, error) {
	if s.pos >= len(s.items) {
		return Extent{}, false, nil
	}
	e := s.items[s.pos]
	s.pos++
	return e, true, nil
}

// Empty returns an Iterator with no extents.
func Empty() Iterator {
	return NewSliceIterator(nil)
}

// Normalize sorts extents by start and merges overlapping or adjacent ones.
// Zero-length extents are dropped.
func Normalize(exts []Extent) []Extent {
	filtered := make([]Extent, 0, len(exts))
	for _, e := range exts {
		if !e.IsEmpty() {
			filtered = append(filtered, e)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Start < filtered[j].Start })

	out := make([]Extent, 0, len(filtered))
	for _, e := range filtered {
		if n := len(out); n > 0 && (out[n-1].Overlaps(e) || out[n-1].Adjacent(e)) {
			end := out[n-1].End()
			if e.End() > end {
				end = e.End()
			}
			out[n-1].Length = end - out[n-1].Start
			continue
		}
		out = append(out, e)
	}
	return out
}

// Union returns the normalized union of a and b.
func Union(a, b []Extent) []Extent {
	merged := make([]Extent, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return Normalize(merged)
}

// OffsetAll translates every extent in exts by delta bytes.
func OffsetAll(exts []Extent, delta int64) []Extent {
	out := make([]Extent, len(exts))
	for i, e := range exts {
		out[i] = e.Offset(delta)
	}
	return out
}

// Intersect returns the normalized intersection of a and b.
func Intersect(a, b []Extent) []Extent {
	an := Normalize(a)
	bn := Normalize(b)
	var out []Extent
	i, j := 0, 0
	for i < len(an) && j < len(bn) {
		start := an[i].Start
		if bn[j].Start > start {
			start = bn[j].Start
		}
		end := an[i].End()
		if bn[j].End() < end {
			end = bn[j].End()
		}
		if start < end {
			out = append(out, Extent{Start: start, Length: end - start})
		}
		if an[i].End() < bn[j].End() {
			i++
		} else {
			j++
		}
	}
	return out
}

// Subtract removes every byte covered by b from a, returning the remainder.
func Subtract(a, b []Extent) []Extent {
	an := Normalize(a)
	bn := Normalize(b)
	var out []Extent
	for _, e := range an {
		cur := []Extent{e}
		for _, sub := range bn {
			if !sub.Overlaps(Extent{Start: cur[0].Start, Length: cur[len(cur)-1].End() - cur[0].Start}) {
				continue
			}
			var next []Extent
			for _, piece := range cur {
				if !piece.Overlaps(sub) {
					next = append(next, piece)
					continue
				}
				if piece.Start < sub.Start {
					next = append(next, Extent{Start: piece.Start, Length: sub.Start - piece.Start})
				}
				if sub.End() < piece.End() {
					next = append(next, Extent{Start: sub.End(), Length: piece.End() - sub.End()})
				}
			}
			cur = next
			if len(cur) == 0 {
				break
			}
		}
		out = append(out, cur...)
	}
	return Normalize(out)
}
