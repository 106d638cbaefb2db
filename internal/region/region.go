// Package region models positions, sizes and logical regions in the global
// compositor coordinate space, plus the "x,y WxH" geometry syntax emitted
// by interactive selection tools such as slurp.
package region

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a point in the global compositor space.
type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// LogicalRegion is a transform-normalized rectangle in the global
// compositor space, as reported by xdg-output.
type LogicalRegion struct {
	Position Position `json:"position"`
	Size     Size     `json:"size"`
}

// String formats the region using the same "x,y WxH" syntax Parse accepts.
func (r LogicalRegion) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.Position.X, r.Position.Y, r.Size.Width, r.Size.Height)
}

// Empty reports whether the region covers no pixels.
func (r LogicalRegion) Empty() bool {
	return r.Size.Width == 0 || r.Size.Height == 0
}

// Parse parses a geometry string of the form "x,y WxH", the output format
// of slurp and friends.
func Parse(s string) (LogicalRegion, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return LogicalRegion{}, fmt.Errorf("invalid geometry %q: want \"x,y WxH\"", s)
	}

	pos := strings.Split(fields[0], ",")
	if len(pos) != 2 {
		return LogicalRegion{}, fmt.Errorf("invalid position %q: want \"x,y\"", fields[0])
	}
	x, err := strconv.ParseInt(pos[0], 10, 32)
	if err != nil {
		return LogicalRegion{}, fmt.Errorf("invalid x coordinate %q: %w", pos[0], err)
	}
	y, err := strconv.ParseInt(pos[1], 10, 32)
	if err != nil {
		return LogicalRegion{}, fmt.Errorf("invalid y coordinate %q: %w", pos[1], err)
	}

	dims := strings.Split(fields[1], "x")
	if len(dims) != 2 {
		return LogicalRegion{}, fmt.Errorf("invalid size %q: want \"WxH\"", fields[1])
	}
	w, err := strconv.ParseUint(dims[0], 10, 32)
	if err != nil {
		return LogicalRegion{}, fmt.Errorf("invalid width %q: %w", dims[0], err)
	}
	h, err := strconv.ParseUint(dims[1], 10, 32)
	if err != nil {
		return LogicalRegion{}, fmt.Errorf("invalid height %q: %w", dims[1], err)
	}
	if w == 0 || h == 0 {
		return LogicalRegion{}, fmt.Errorf("invalid size %q: zero area", fields[1])
	}

	return LogicalRegion{
		Position: Position{X: int32(x), Y: int32(y)},
		Size:     Size{Width: uint32(w), Height: uint32(h)},
	}, nil
}

// Intersect returns the overlap of two regions. The second return value is
// false when the regions do not overlap.
func (r LogicalRegion) Intersect(other LogicalRegion) (LogicalRegion, bool) {
	x1 := max32(r.Position.X, other.Position.X)
	y1 := max32(r.Position.Y, other.Position.Y)
	x2 := min32(r.right(), other.right())
	y2 := min32(r.bottom(), other.bottom())
	if x2 <= x1 || y2 <= y1 {
		return LogicalRegion{}, false
	}
	return LogicalRegion{
		Position: Position{X: x1, Y: y1},
		Size:     Size{Width: uint32(x2 - x1), Height: uint32(y2 - y1)},
	}, true
}

func (r LogicalRegion) right() int32  { return r.Position.X + int32(r.Size.Width) }
func (r LogicalRegion) bottom() int32 { return r.Position.Y + int32(r.Size.Height) }

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
