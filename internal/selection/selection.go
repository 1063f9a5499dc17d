// Package selection tracks which regions the operator has selected.
package selection

import (
	"sort"

	"floorplan-editor/internal/region"
	"floorplan-editor/pkg/geometry"
)

// MinMarquee is the smallest marquee extent, in percent, that counts as a drag.
const MinMarquee = 0.5

// Set is an immutable set of region IDs. The zero value is empty.
type Set struct {
	ids map[string]struct{}
}

// New returns a set containing ids.
func New(ids ...string) Set {
	s := Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// All returns a set containing every region in list.
func All(list region.List) Set {
	return New(list.IDs()...)
}

// Has reports whether id is selected.
func (s Set) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected IDs.
func (s Set) Len() int { return len(s.ids) }

// Empty reports whether nothing is selected.
func (s Set) Empty() bool { return len(s.ids) == 0 }

// IDs returns the selected IDs sorted.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Toggle returns a copy of s with id added or removed.
func (s Set) Toggle(id string) Set {
	out := New(s.IDs()...)
	if out.Has(id) {
		delete(out.ids, id)
	} else {
		out.ids[id] = struct{}{}
	}
	return out
}

// Union returns the IDs in either set.
func (s Set) Union(other Set) Set {
	out := New(s.IDs()...)
	for id := range other.ids {
		out.ids[id] = struct{}{}
	}
	return out
}

// Prune drops IDs that no longer reference a region in list.
func (s Set) Prune(list region.List) Set {
	out := New()
	for _, r := range list {
		if s.Has(r.ID) {
			out.ids[r.ID] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold the same IDs.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for id := range s.ids {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// Regions returns the selected regions in list order.
func (s Set) Regions(list region.List) region.List {
	out := make(region.List, 0, s.Len())
	for _, r := range list {
		if s.Has(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// SelectSingle replaces the selection with id, or toggles id when additive.
func SelectSingle(s Set, id string, additive bool) Set {
	if additive {
		return s.Toggle(id)
	}
	return New(id)
}

// Hits returns the set of regions whose bounds overlap rect.
func Hits(list region.List, rect geometry.Rect) Set {
	out := New()
	for _, r := range list {
		if r.Bounds.Intersects(rect) {
			out.ids[r.ID] = struct{}{}
		}
	}
	return out
}

// Marquee is a rubber-band selection gesture.
type Marquee struct {
	active   bool
	additive bool
	anchor   geometry.Point2D
	rect     geometry.Rect
}

// Begin starts a marquee at p.
func (m *Marquee) Begin(p geometry.Point2D, additive bool) {
	*m = Marquee{active: true, additive: additive, anchor: p, rect: geometry.Rect{X: p.X, Y: p.Y}}
}

// Update stretches the marquee to p and returns the new rectangle.
func (m *Marquee) Update(p geometry.Point2D) geometry.Rect {
	if m.active {
		m.rect = geometry.RectFromCorners(m.anchor, p)
	}
	return m.rect
}

// Rect returns the current marquee rectangle.
func (m *Marquee) Rect() geometry.Rect { return m.rect }

// Active reports whether a marquee is in progress.
func (m *Marquee) Active() bool { return m.active }

// End finishes the marquee against current. It returns false, with current
// unchanged, when the marquee is below MinMarquee in both dimensions.
func (m *Marquee) End(current Set, list region.List) (Set, bool) {
	if !m.active {
		return current, false
	}
	rect, additive := m.rect, m.additive
	*m = Marquee{}
	if rect.Width <= MinMarquee && rect.Height <= MinMarquee {
		return current, false
	}
	hits := Hits(list, rect)
	if additive {
		return current.Union(hits), true
	}
	return hits, true
}

// Reset abandons the marquee.
func (m *Marquee) Reset() { *m = Marquee{} }
