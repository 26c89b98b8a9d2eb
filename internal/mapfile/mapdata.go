// Package mapfile decodes and encodes map documents: the legacy line-oriented
// .map format (read-only) and the structured JSON .mpr format (read/write).
package mapfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/text/cases"
)

const (
	LegacyExt     = ".map"
	StructuredExt = ".mpr"
)

// Documents larger than this are rejected with ErrInvalidSize before any
// per-tile buffer is allocated.
const (
	MaxSide  = 4096
	MaxTiles = 1 << 22
)

var (
	ErrInvalidSize    = errors.New("invalid map size")
	ErrMalformed      = errors.New("invalid .mpr")
	ErrReadOnlyFormat = errors.New("legacy .map files are read-only")
)

// Theater is the terrain palette a map is drawn with.
type Theater int

const (
	Temperate Theater = iota
	Snow
	Urban
	NewUrban
	Desert
	Lunar
	Unknown
)

var theaterNames = [...]string{
	Temperate: "temperate",
	Snow:      "snow",
	Urban:     "urban",
	NewUrban:  "newurban",
	Desert:    "desert",
	Lunar:     "lunar",
	Unknown:   "unknown",
}

var theaterColors = [...]color.RGBA{
	Temperate: {70, 104, 68, 255},
	Snow:      {220, 232, 240, 255},
	Urban:     {95, 95, 102, 255},
	NewUrban:  {72, 78, 86, 255},
	Desert:    {204, 170, 102, 255},
	Lunar:     {180, 180, 190, 255},
	Unknown:   {120, 120, 130, 255},
}

// ParseTheater matches free text against the known theater names, ignoring
// case and surrounding space. "new urban" and "newurban" both name NewUrban.
// Anything else is Unknown.
func ParseTheater(s string) Theater {
	switch cases.Fold().String(strings.TrimSpace(s)) {
	case "temperate":
		return Temperate
	case "snow":
		return Snow
	case "urban":
		return Urban
	case "new urban", "newurban":
		return NewUrban
	case "desert":
		return Desert
	case "lunar":
		return Lunar
	default:
		return Unknown
	}
}

func (t Theater) valid() bool { return t >= Temperate && t <= Unknown }

func (t Theater) String() string {
	if !t.valid() {
		return theaterNames[Unknown]
	}
	return theaterNames[t]
}

// Color is the base fill used for the theater's tiles.
func (t Theater) Color() color.RGBA {
	if !t.valid() {
		return theaterColors[Unknown]
	}
	return theaterColors[t]
}

func (t Theater) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Theater) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("theater: %w", err)
	}
	*t = ParseTheater(s)
	return nil
}

// Waypoint is an (x, y) tile position, encoded as a two-element JSON array.
type Waypoint struct {
	X int
	Y int
}

func (w Waypoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{w.X, w.Y})
}

func (w *Waypoint) UnmarshalJSON(b []byte) error {
	var xy []int
	if err := json.Unmarshal(b, &xy); err != nil {
		return fmt.Errorf("waypoint: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("waypoint: want [x,y], got %d values", len(xy))
	}
	w.X, w.Y = xy[0], xy[1]
	return nil
}

// MapPin is a unit or structure marker.
type MapPin struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Kind  string `json:"kind"`
	Owner string `json:"owner,omitempty"`
}

// MapData is the decoded content of one map document. Waypoint and pin
// coordinates are absolute; LocalOriginX/Y convert them into the map's own
// tile space (see ToLocal).
type MapData struct {
	Theater           Theater    `json:"theater"`
	Width             int        `json:"width"`
	Height            int        `json:"height"`
	LocalOriginX      int        `json:"local_origin_x"`
	LocalOriginY      int        `json:"local_origin_y"`
	Elevations        []int      `json:"elevations"`
	Waypoints         []Waypoint `json:"waypoints"`
	NumStartingPoints int        `json:"num_starting_points"`
	Units             []MapPin   `json:"units"`
	Structures        []MapPin   `json:"structures"`
}

// Blank returns a minimal valid map. Dimensions are clamped to
// [1, MaxSide] and the height is reduced further to stay within MaxTiles.
func Blank(width, height int) *MapData {
	w := min(max(width, 1), MaxSide)
	h := min(max(height, 1), MaxSide, MaxTiles/w)
	m := &MapData{
		Theater: Temperate,
		Width:   w,
		Height:  h,
	}
	m.normalize()
	m.EnsureElevations()
	return m
}

// TileCount is Width*Height, or 0 when either dimension is not positive.
func (m *MapData) TileCount() int {
	if m.Width <= 0 || m.Height <= 0 {
		return 0
	}
	return m.Width * m.Height
}

// EnsureElevations resizes the elevation buffer to TileCount, zero-padding
// new entries and truncating extra ones. Out-of-range sizes empty it.
func (m *MapData) EnsureElevations() {
	n := m.TileCount()
	switch {
	case n == 0 || !validSize(m.Width, m.Height):
		m.Elevations = m.Elevations[:0]
	case len(m.Elevations) < n:
		m.Elevations = append(m.Elevations, make([]int, n-len(m.Elevations))...)
	case len(m.Elevations) > n:
		m.Elevations = m.Elevations[:n]
	}
}

// ElevationAt returns the elevation of local tile (x, y).
func (m *MapData) ElevationAt(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0, false
	}
	idx := y*m.Width + x
	if idx >= len(m.Elevations) {
		return 0, false
	}
	return m.Elevations[idx], true
}

// ToLocal converts absolute coordinates into local tile space and reports
// whether the result lies on the map.
func (m *MapData) ToLocal(x, y int) (lx, ly int, inside bool) {
	lx, ly = x-m.LocalOriginX, y-m.LocalOriginY
	inside = lx >= 0 && ly >= 0 && lx < m.Width && ly < m.Height
	return lx, ly, inside
}

// StartingPoints returns the waypoints designated as player starts.
func (m *MapData) StartingPoints() []Waypoint {
	n := min(max(m.NumStartingPoints, 0), len(m.Waypoints))
	return m.Waypoints[:n]
}

// Clone returns a deep copy.
func (m *MapData) Clone() *MapData {
	if m == nil {
		return nil
	}
	c := *m
	c.Elevations = append([]int{}, m.Elevations...)
	c.Waypoints = append([]Waypoint{}, m.Waypoints...)
	c.Units = append([]MapPin{}, m.Units...)
	c.Structures = append([]MapPin{}, m.Structures...)
	return &c
}

// normalize replaces nil lists with empty ones so documents encode as [] and
// decoded values compare equal to constructed ones.
func (m *MapData) normalize() {
	if m.Elevations == nil {
		m.Elevations = []int{}
	}
	if m.Waypoints == nil {
		m.Waypoints = []Waypoint{}
	}
	if m.Units == nil {
		m.Units = []MapPin{}
	}
	if m.Structures == nil {
		m.Structures = []MapPin{}
	}
	if m.NumStartingPoints < 0 {
		m.NumStartingPoints = 0
	}
}

func (m *MapData) checkSize(path string) error {
	if !validSize(m.Width, m.Height) {
		return fmt.Errorf("%w %dx%d in %s", ErrInvalidSize, m.Width, m.Height, path)
	}
	return nil
}

func validSize(w, h int) bool {
	return w > 0 && h > 0 && w <= MaxSide && h <= MaxSide && w <= MaxTiles/h
}
