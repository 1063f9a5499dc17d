package ocr

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"floorplan-editor/internal/region"
	"floorplan-editor/internal/viewport"
	"floorplan-editor/pkg/geometry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	letterPattern = regexp.MustCompile(`^[A-Z]$`)
	numberPattern = regexp.MustCompile(`^\d{2,3}$`)
	codePattern   = regexp.MustCompile(`^[A-Z]\d{2,3}$`)
)

// IsRoomCode reports whether text looks like a room code such as C101.
func IsRoomCode(text string) bool {
	return codePattern.MatchString(text)
}

// Clusterer groups detected text blocks into rooms.
type Clusterer struct {
	opts   Options
	logger *zap.Logger
	newID  func(n int) string
}

// NewClusterer creates a clusterer. A nil logger discards output.
func NewClusterer(opts Options, logger *zap.Logger) *Clusterer {
	if logger == nil {
		logger = zap.NewNop()
	}
	batch := uuid.NewString()[:8]
	return &Clusterer{
		opts:   opts,
		logger: logger,
		newID: func(n int) string {
			return fmt.Sprintf("vision_%s_%d", batch, n)
		},
	}
}

// Cluster runs all stages and returns the surviving rooms.
func (c *Clusterer) Cluster(blocks []Block) []Room {
	repaired := c.RepairVerticalCodes(blocks)
	rooms := c.Associate(repaired)
	kept := c.SuppressOverlaps(rooms)

	c.logger.Debug("clustered text blocks",
		zap.Int("blocks", len(blocks)),
		zap.Int("after_repair", len(repaired)),
		zap.Int("candidates", len(rooms)),
		zap.Int("rooms", len(kept)),
	)
	return kept
}

// RepairVerticalCodes joins room codes that were detected as a single letter
// with its number printed underneath. The number must start within
// RepairMaxDX letter widths of the letter and begin between Tolerance pixels
// above and RepairMaxDY letter heights below the letter's bottom edge.
// The first matching number wins and is removed from the output.
func (c *Clusterer) RepairVerticalCodes(blocks []Block) []Block {
	work := make([]Block, len(blocks))
	copy(work, blocks)
	used := make([]bool, len(work))

	for i := range work {
		l := work[i]
		if used[i] || !letterPattern.MatchString(l.Text) {
			continue
		}
		for j := range work {
			b := work[j]
			if used[j] || j == i || !numberPattern.MatchString(b.Text) {
				continue
			}
			dx := math.Abs(b.Bounds.X - l.Bounds.X)
			dy := b.Bounds.Y - l.Bounds.Bottom()
			if dx < l.Bounds.Width*c.opts.RepairMaxDX && dy > -c.opts.Tolerance && dy < l.Bounds.Height*c.opts.RepairMaxDY {
				work[i] = Block{Text: l.Text + b.Text, Bounds: l.Bounds.Union(b.Bounds)}
				used[j] = true
				c.logger.Debug("repaired vertical room code", zap.String("code", work[i].Text))
				break
			}
		}
	}

	out := make([]Block, 0, len(work))
	for i, b := range work {
		if !used[i] {
			out = append(out, b)
		}
	}
	return out
}

// Associate turns every room code block into a room, naming it from the
// label text directly below or to the right of the code.
func (c *Clusterer) Associate(blocks []Block) []Room {
	var anchors, others []Block
	for _, b := range blocks {
		if IsRoomCode(b.Text) {
			anchors = append(anchors, b)
		} else {
			others = append(others, b)
		}
	}

	used := make([]bool, len(others))
	rooms := make([]Room, 0, len(anchors))
	for _, a := range anchors {
		var neighbors []Block
		for j, o := range others {
			if used[j] || !c.isNeighbor(a.Bounds, o.Bounds) {
				continue
			}
			used[j] = true
			neighbors = append(neighbors, o)
		}

		name, bounds := a.Text, a.Bounds
		if len(neighbors) > 0 {
			sort.SliceStable(neighbors, func(i, j int) bool {
				if neighbors[i].Bounds.Y != neighbors[j].Bounds.Y {
					return neighbors[i].Bounds.Y < neighbors[j].Bounds.Y
				}
				return neighbors[i].Bounds.X < neighbors[j].Bounds.X
			})
			var sb strings.Builder
			for _, n := range neighbors {
				sb.WriteString(n.Text)
				bounds = bounds.Union(n.Bounds)
			}
			extra := strings.TrimSpace(sb.String())
			if strings.Contains(extra, a.Text) {
				name = extra
			} else {
				name = a.Text + " " + extra
			}
		}

		rooms = append(rooms, Room{
			ID:          c.newID(len(rooms)),
			Code:        a.Text,
			Name:        name,
			Category:    c.Categorize(a.Text, name),
			PixelBounds: bounds,
		})
	}
	return rooms
}

// isNeighbor reports whether label bounds o belong to the code at a.
func (c *Clusterer) isNeighbor(a, o geometry.Rect) bool {
	dx := math.Abs(o.X - a.X)
	if dx > a.Width*c.opts.AlignMaxDX {
		return false
	}
	maxDX := a.Width * c.opts.NeighborMaxDX

	dy := o.Y - a.Bottom()
	below := dy > -c.opts.Tolerance && dy < a.Height*c.opts.NeighborMaxDY && dx < maxDX

	dxRight := o.X - a.Right()
	right := dxRight > -c.opts.Tolerance && dxRight < maxDX && math.Abs(o.Y-a.Y) < a.Height

	return below || right
}

// Categorize infers a room category from its code and name. Utility wins
// over office, office over special, and anything else is a classroom.
func (c *Clusterer) Categorize(code, name string) region.Category {
	lower := strings.ToLower(name)
	for _, p := range c.opts.UtilityPrefixes {
		if strings.HasPrefix(code, p) {
			return region.CategoryUtility
		}
	}
	switch {
	case containsAny(lower, c.opts.UtilityKeywords):
		return region.CategoryUtility
	case containsAny(lower, c.opts.OfficeKeywords):
		return region.CategoryOffice
	case containsAny(lower, c.opts.SpecialKeywords):
		return region.CategorySpecial
	}
	return region.CategoryClassroom
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// SuppressOverlaps keeps the largest of any group of rooms that overlap by
// more than OverlapThreshold of the smaller room's area. A kept room with
// no name takes the name of the duplicate it absorbed.
func (c *Clusterer) SuppressOverlaps(rooms []Room) []Room {
	sorted := make([]Room, len(rooms))
	copy(sorted, rooms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PixelBounds.Area() > sorted[j].PixelBounds.Area()
	})

	kept := make([]Room, 0, len(sorted))
	for _, r := range sorted {
		absorbed := false
		for k := range kept {
			if OverlapRatio(r.PixelBounds, kept[k].PixelBounds) > c.opts.OverlapThreshold {
				if kept[k].Name == "" && r.Name != "" {
					kept[k].Name = r.Name
				}
				c.logger.Debug("dropped duplicate room",
					zap.String("code", r.Code),
					zap.String("kept", kept[k].Code),
				)
				absorbed = true
				break
			}
		}
		if !absorbed {
			kept = append(kept, r)
		}
	}
	return kept
}

// OverlapRatio returns the intersection area divided by the smaller area.
func OverlapRatio(a, b geometry.Rect) float64 {
	inter := a.IntersectionArea(b)
	if inter == 0 {
		return 0
	}
	return inter / math.Min(a.Area(), b.Area())
}

// ToRegions converts rooms to percent-of-image regions for an image of
// w x h pixels.
func ToRegions(rooms []Room, w, h int) region.List {
	out := make(region.List, len(rooms))
	for i, r := range rooms {
		out[i] = region.Region{
			ID:       r.ID,
			Code:     r.Code,
			Name:     r.Name,
			Category: r.Category,
			Bounds:   viewport.PixelRectToPercent(r.PixelBounds, w, h),
		}
	}
	return out
}
