package ocr

import (
	"testing"

	"floorplan-editor/internal/region"
	"floorplan-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(text string, x, y, w, h float64) Block {
	return Block{Text: text, Bounds: geometry.NewRect(x, y, w, h)}
}

func newTestClusterer() *Clusterer {
	return NewClusterer(DefaultOptions(), nil)
}

func TestRepairVerticalCodes(t *testing.T) {
	c := newTestClusterer()
	out := c.RepairVerticalCodes([]Block{
		block("W", 10, 10, 5, 5),
		block("301", 9, 16, 15, 5),
	})

	require.Len(t, out, 1)
	assert.Equal(t, "W301", out[0].Text)
	assert.Equal(t, geometry.NewRect(9, 10, 15, 11), out[0].Bounds)
}

func TestRepairVerticalCodesRejectsDistantNumbers(t *testing.T) {
	c := newTestClusterer()
	in := []Block{
		block("W", 10, 10, 5, 5),
		block("301", 30, 16, 15, 5), // too far right
		block("302", 10, 50, 15, 5), // too far below
		block("3011", 10, 16, 15, 5), // not a 2-3 digit number
	}
	out := c.RepairVerticalCodes(in)
	assert.Equal(t, in, out)
}

func TestRepairVerticalCodesFirstMatchWins(t *testing.T) {
	c := newTestClusterer()
	out := c.RepairVerticalCodes([]Block{
		block("C", 10, 10, 5, 5),
		block("12", 10, 16, 10, 5),
		block("34", 10, 20, 10, 5),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "C12", out[0].Text)
	assert.Equal(t, "34", out[1].Text)
}

func TestIsRoomCode(t *testing.T) {
	for text, want := range map[string]bool{
		"C101": true, "W12": true, "C1": false, "c101": false, "C1011": false, "101": false, "CC10": false,
	} {
		assert.Equal(t, want, IsRoomCode(text), text)
	}
}

func TestAssociateBelow(t *testing.T) {
	c := newTestClusterer()
	rooms := c.Associate([]Block{
		block("1A", 100, 134, 20, 10),
		block("C101", 100, 100, 40, 20),
		block("Class", 100, 122, 30, 10),
	})

	require.Len(t, rooms, 1)
	r := rooms[0]
	assert.Equal(t, "C101", r.Code)
	assert.Equal(t, "C101 Class1A", r.Name)
	assert.Equal(t, region.CategoryClassroom, r.Category)
	assert.Equal(t, geometry.NewRect(100, 100, 40, 44), r.PixelBounds)
	assert.NotEmpty(t, r.ID)
}

func TestAssociateDedupesCode(t *testing.T) {
	c := newTestClusterer()
	rooms := c.Associate([]Block{
		block("C102", 100, 100, 40, 20),
		block("C102音樂", 100, 125, 60, 20),
	})
	require.Len(t, rooms, 1)
	assert.Equal(t, "C102音樂", rooms[0].Name)
	assert.Equal(t, region.CategorySpecial, rooms[0].Category)
}

func TestAssociateAlignmentGuard(t *testing.T) {
	c := newTestClusterer()
	rooms := c.Associate([]Block{
		block("C103", 100, 100, 40, 20),
		block("Storage", 125, 125, 40, 20), // starts more than half a code width away
	})
	require.Len(t, rooms, 1)
	assert.Equal(t, "C103", rooms[0].Name)
	assert.Equal(t, geometry.NewRect(100, 100, 40, 20), rooms[0].PixelBounds)
}

func TestAssociateNeverUsesCodeAsLabel(t *testing.T) {
	c := newTestClusterer()
	rooms := c.Associate([]Block{
		block("C104", 100, 100, 40, 20),
		block("C105", 100, 125, 40, 20),
	})
	require.Len(t, rooms, 2)
	assert.Equal(t, "C104", rooms[0].Name)
	assert.Equal(t, "C105", rooms[1].Name)
	assert.NotEqual(t, rooms[0].ID, rooms[1].ID)
}

func TestAssociateLabelClaimedOnce(t *testing.T) {
	c := newTestClusterer()
	rooms := c.Associate([]Block{
		block("C106", 100, 100, 40, 20),
		block("C107", 105, 101, 40, 20),
		block("Lab", 100, 125, 20, 10),
	})
	require.Len(t, rooms, 2)
	assert.Equal(t, "C106 Lab", rooms[0].Name)
	assert.Equal(t, "C107", rooms[1].Name)
}

func TestCategorize(t *testing.T) {
	c := newTestClusterer()
	tests := []struct {
		code, name string
		want       region.Category
	}{
		{"W101", "W101", region.CategoryUtility},
		{"C101", "C101 男廁", region.CategoryUtility},
		{"C102", "C102 辦公室", region.CategoryOffice},
		{"C103", "C103 教務處", region.CategoryOffice},
		{"C104", "C104 圖書館", region.CategorySpecial},
		{"C105", "C105 Music", region.CategorySpecial},
		{"C106", "C106 一年一班", region.CategoryClassroom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Categorize(tt.code, tt.name))
		})
	}
}

func TestSuppressOverlaps(t *testing.T) {
	c := newTestClusterer()
	rooms := []Room{
		{ID: "small", Code: "C101", Name: "C101", PixelBounds: geometry.NewRect(10, 0, 100, 100)},
		{ID: "big", Code: "C101", PixelBounds: geometry.NewRect(0, 0, 100, 101)},
		{ID: "apart", Code: "C102", Name: "C102", PixelBounds: geometry.NewRect(300, 0, 50, 50)},
	}

	out := c.SuppressOverlaps(rooms)
	require.Len(t, out, 2)
	assert.Equal(t, "big", out[0].ID)
	assert.Equal(t, "C101", out[0].Name, "name backfilled from the duplicate")
	assert.Equal(t, "apart", out[1].ID)
	assert.Empty(t, rooms[1].Name)
}

func TestSuppressOverlapsNinetyPercent(t *testing.T) {
	c := newTestClusterer()
	a := geometry.NewRect(0, 0, 100, 100)
	b := geometry.NewRect(10, 0, 100, 100)
	require.InDelta(t, 0.9, OverlapRatio(a, b), 1e-9)

	out := c.SuppressOverlaps([]Room{
		{ID: "a", Name: "A", PixelBounds: a},
		{ID: "b", Name: "B", PixelBounds: b},
	})
	assert.Len(t, out, 1)
}

func TestClusterEndToEnd(t *testing.T) {
	c := newTestClusterer()
	rooms := c.Cluster([]Block{
		block("Floor 3", 0, 0, 200, 30),
		block("W", 10, 50, 5, 5),
		block("301", 9, 56, 15, 5),
		block("C310", 400, 50, 40, 20),
		block("Lab", 400, 75, 30, 10),
	})

	require.Len(t, rooms, 2)
	byCode := map[string]Room{}
	for _, r := range rooms {
		byCode[r.Code] = r
	}
	assert.Equal(t, region.CategoryUtility, byCode["W301"].Category)
	assert.Equal(t, "C310 Lab", byCode["C310"].Name)
}

func TestToRegions(t *testing.T) {
	list := ToRegions([]Room{{
		ID:          "vision_x_0",
		Code:        "C101",
		Name:        "C101",
		Category:    region.CategoryClassroom,
		PixelBounds: geometry.NewRect(100, 50, 200, 25),
	}}, 1000, 500)

	require.Len(t, list, 1)
	assert.Equal(t, "vision_x_0", list[0].ID)
	assert.InDelta(t, 10, list[0].Bounds.X, 1e-9)
	assert.InDelta(t, 10, list[0].Bounds.Y, 1e-9)
	assert.InDelta(t, 20, list[0].Bounds.Width, 1e-9)
	assert.InDelta(t, 5, list[0].Bounds.Height, 1e-9)
	assert.NoError(t, list[0].Validate())
}
