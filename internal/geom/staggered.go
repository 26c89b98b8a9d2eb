// Package geom converts between tile indices and world coordinates on a
// staggered isometric grid (diamond tiles, odd rows shifted right by half a tile).
package geom

import (
	"math"

	"golang.org/x/image/math/f32"
)

// insideEpsilon absorbs float32 rounding on shared rhombus edges.
const insideEpsilon = 1e-5

// TileSize is the bounding box of one diamond tile in world units.
type TileSize struct {
	W float32 `json:"w"`
	H float32 `json:"h"`
}

// Cell addresses a tile by row (I) and column (J).
type Cell struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Staggered maps grid indices to world positions for a given tile size and
// world-space origin. The zero Origin places tile (0,0)'s box at (0,0).
type Staggered struct {
	Tile   TileSize `json:"tile"`
	Origin f32.Vec2 `json:"origin"`
}

// New returns a layout with the given tile size anchored at origin.
func New(tile TileSize, origin f32.Vec2) Staggered {
	return Staggered{Tile: tile, Origin: origin}
}

func (s Staggered) rowShift(i int) float32 {
	if i&1 == 1 {
		return s.Tile.W * 0.5
	}
	return 0
}

// WorldFromIJ returns the top-left corner of tile (i, j)'s bounding box.
// Rows advance by half a tile height; odd rows shift right by half a tile width.
func (s Staggered) WorldFromIJ(i, j int) f32.Vec2 {
	return f32.Vec2{
		s.Origin[0] + float32(j)*s.Tile.W + s.rowShift(i),
		s.Origin[1] + float32(i)*s.Tile.H*0.5,
	}
}

// WorldCenter returns the intersection of the tile's diagonals.
func (s Staggered) WorldCenter(i, j int) f32.Vec2 {
	base := s.WorldFromIJ(i, j)
	return f32.Vec2{base[0] + s.Tile.W*0.5, base[1] + s.Tile.H*0.5}
}

// TileCorners returns the rhombus vertices in top, right, bottom, left order.
func (s Staggered) TileCorners(i, j int) [4]f32.Vec2 {
	base := s.WorldFromIJ(i, j)
	w, h := s.Tile.W, s.Tile.H
	return [4]f32.Vec2{
		{base[0] + w*0.5, base[1]},
		{base[0] + w, base[1] + h*0.5},
		{base[0] + w*0.5, base[1] + h},
		{base[0], base[1] + h*0.5},
	}
}

// neighbours lists the offsets tested after the bounding-box estimate.
// The estimate itself is tested first.
var neighbours = [9][2]int{
	{0, 0},
	{0, 1},
	{1, 0},
	{1, 1},
	{-1, 0},
	{-1, 1},
	{0, -1},
	{1, -1},
	{-1, -1},
}

// IJFromWorld resolves the tile under world point p on a mapW x mapH grid.
//
// The row/column estimate comes from bounding-box floor division, which is
// ambiguous near tile edges because neighbouring rhombi share bounding-box
// area. The estimate and its eight surrounding cells are therefore tested
// with a point-in-rhombus check; the first hit wins. When nothing matches
// (p outside the grid) the clamped estimate is returned. ok is false only
// when the grid has no tiles.
func (s Staggered) IJFromWorld(p f32.Vec2, mapW, mapH int) (Cell, bool) {
	if mapW <= 0 || mapH <= 0 || s.Tile.W <= 0 || s.Tile.H <= 0 {
		return Cell{}, false
	}

	dy := s.Tile.H * 0.5
	relX := p[0] - s.Origin[0]
	relY := p[1] - s.Origin[1]

	i := clamp(floorInt(relY/dy), 0, mapH-1)
	j := clamp(floorInt((relX-s.rowShift(i))/s.Tile.W), 0, mapW-1)

	for _, n := range neighbours {
		ci, cj := i+n[0], j+n[1]
		if ci < 0 || cj < 0 || ci >= mapH || cj >= mapW {
			continue
		}
		if s.Contains(p, ci, cj) {
			return Cell{I: ci, J: cj}, true
		}
	}
	return Cell{I: i, J: j}, true
}

// Contains reports whether p lies inside (or on the edge of) tile (i, j)'s rhombus.
func (s Staggered) Contains(p f32.Vec2, i, j int) bool {
	if i < 0 || j < 0 {
		return false
	}
	c := s.WorldCenter(i, j)
	dx := abs32(p[0]-c[0]) / (s.Tile.W * 0.5)
	dy := abs32(p[1]-c[1]) / (s.Tile.H * 0.5)
	return dx+dy <= 1+insideEpsilon
}

// MapWorldSize is the world-space footprint of a mapW x mapH grid.
func (s Staggered) MapWorldSize(mapW, mapH int) f32.Vec2 {
	var extra float32
	if mapH > 1 {
		extra = s.Tile.W * 0.5
	}
	return f32.Vec2{
		s.Tile.W*float32(mapW) + extra,
		s.Tile.H * ((float32(mapH) + 1) * 0.5),
	}
}

func floorInt(v float32) int {
	return int(math.Floor(float64(v)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
