package region

import (
	"fmt"

	"floorplan-editor/pkg/geometry"
)

// List is an ordered set of regions. Methods never modify the receiver;
// every change returns a new slice so callers can keep old lists as
// undo snapshots.
type List []Region

// Clone returns a copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// IndexOf returns the position of the region with the given ID, or -1.
func (l List) IndexOf(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the region with the given ID.
func (l List) Find(id string) (Region, bool) {
	if i := l.IndexOf(id); i >= 0 {
		return l[i], true
	}
	return Region{}, false
}

// Has reports whether a region with the given ID exists.
func (l List) Has(id string) bool {
	return l.IndexOf(id) >= 0
}

// FindByCode returns the first region with the given code.
func (l List) FindByCode(code string) (Region, bool) {
	for _, r := range l {
		if r.Code == code {
			return r, true
		}
	}
	return Region{}, false
}

// IDs returns region IDs in list order.
func (l List) IDs() []string {
	ids := make([]string, len(l))
	for i, r := range l {
		ids[i] = r.ID
	}
	return ids
}

// Bounds returns the bounds of every region in list order.
func (l List) Bounds() []geometry.Rect {
	rects := make([]geometry.Rect, len(l))
	for i, r := range l {
		rects[i] = r.Bounds
	}
	return rects
}

// Add validates r and returns a new list with r appended.
func (l List) Add(r Region) (List, error) {
	if err := r.Validate(); err != nil {
		return l, fmt.Errorf("add region %q: %w", r.Code, err)
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	out := make(List, len(l), len(l)+1)
	copy(out, l)
	return append(out, r), nil
}

// Remove returns a new list without the region with the given ID.
func (l List) Remove(id string) List {
	return l.RemoveAll([]string{id})
}

// RemoveAll returns a new list without any of the given IDs.
func (l List) RemoveAll(ids []string) List {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := make(List, 0, len(l))
	for _, r := range l {
		if !drop[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

// Update returns a new list where the region with the given ID is replaced
// by fn(region). The list is returned unchanged if the ID is absent.
func (l List) Update(id string, fn func(Region) Region) List {
	out := l.Clone()
	if i := out.IndexOf(id); i >= 0 {
		out[i] = fn(out[i])
	}
	return out
}

// Map returns a new list with fn applied to every region.
func (l List) Map(fn func(Region) Region) List {
	out := make(List, len(l))
	for i, r := range l {
		out[i] = fn(r)
	}
	return out
}

// MaxBy returns the region for which no later region compares greater.
// The first maximum wins on ties.
func (l List) MaxBy(less func(a, b Region) bool) (Region, bool) {
	if len(l) == 0 {
		return Region{}, false
	}
	best := l[0]
	for _, r := range l[1:] {
		if less(best, r) {
			best = r
		}
	}
	return best, true
}

// TopmostAt returns the last region (drawn on top) containing p.
func (l List) TopmostAt(p geometry.Point2D) (Region, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Bounds.Contains(p) {
			return l[i], true
		}
	}
	return Region{}, false
}
