package project

import (
	"image/color"
	"slices"

	"github.com/petervdpas/isoedit/internal/geom"
	"github.com/petervdpas/isoedit/internal/mapfile"
	"github.com/petervdpas/isoedit/internal/tree"
)

// Tab is a tab strip entry.
type Tab struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Dirty  bool   `json:"dirty"`
	Active bool   `json:"active"`
}

// Marker is a waypoint or pin in local tile space.
type Marker struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Kind  string `json:"kind"`
	Owner string `json:"owner,omitempty"`
	Start bool   `json:"start,omitempty"`
}

// MapView is what the canvas needs to draw the live document schematically.
type MapView struct {
	Theater    string          `json:"theater"`
	Color      color.RGBA      `json:"color"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	OriginX    int             `json:"origin_x"`
	OriginY    int             `json:"origin_y"`
	Grid       geom.Staggered  `json:"grid"`
	Size       [2]float32      `json:"size"`
	Waypoints  []Marker        `json:"waypoints"`
	Units      []Marker        `json:"units"`
	Structures []Marker        `json:"structures"`
	Elevation  *ElevationRange `json:"elevation,omitempty"`
}

type ElevationRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Snapshot is a read-only, serializable view of the whole model.
type Snapshot struct {
	HasProject   bool           `json:"has_project"`
	RootPath     string         `json:"root_path,omitempty"`
	Root         *tree.Node     `json:"root,omitempty"`
	TreeStale    bool           `json:"tree_stale,omitempty"`
	ShowExplorer bool           `json:"show_explorer"`
	Expanded     []string       `json:"expanded"`
	Tabs         []Tab          `json:"tabs"`
	Rename       *RenameSession `json:"rename,omitempty"`
	PendingClose *PendingClose  `json:"pending_close,omitempty"`
	View         View           `json:"view"`
	Map          *MapView       `json:"map,omitempty"`
}

// Snapshot builds a Snapshot. Markers outside the map's local area are left
// out.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{
		HasProject:   m.state.HasProject(),
		RootPath:     m.state.RootPath,
		Root:         m.state.Root,
		TreeStale:    m.state.TreeStale,
		ShowExplorer: m.layout.ShowExplorer,
		Expanded:     make([]string, 0, len(m.layout.Expanded)),
		Tabs:         make([]Tab, 0, len(m.state.OpenMaps)),
		View:         m.view,
	}
	for id := range m.layout.Expanded {
		s.Expanded = append(s.Expanded, id)
	}
	slices.Sort(s.Expanded)

	for _, om := range m.state.OpenMaps {
		s.Tabs = append(s.Tabs, Tab{
			Path:   om.Path,
			Name:   om.Name,
			Dirty:  m.state.IsDirty(om.Path),
			Active: om.Path == m.state.ActiveMap,
		})
	}

	l := m.layout.clone()
	s.Rename, s.PendingClose = l.Rename, l.PendingClose

	if g, ok := m.Grid(); ok {
		s.Map = mapView(m.preview, g)
	}
	return s
}

func mapView(d *mapfile.MapData, g geom.Staggered) *MapView {
	size := g.MapWorldSize(d.Width, d.Height)
	v := &MapView{
		Theater:    d.Theater.String(),
		Color:      d.Theater.Color(),
		Width:      d.Width,
		Height:     d.Height,
		OriginX:    d.LocalOriginX,
		OriginY:    d.LocalOriginY,
		Grid:       g,
		Size:       [2]float32{size[0], size[1]},
		Waypoints:  []Marker{},
		Units:      localPins(d, d.Units),
		Structures: localPins(d, d.Structures),
	}

	starts := len(d.StartingPoints())
	for i, wp := range d.Waypoints {
		if x, y, ok := d.ToLocal(wp.X, wp.Y); ok {
			v.Waypoints = append(v.Waypoints, Marker{X: x, Y: y, Kind: "waypoint", Start: i < starts})
		}
	}

	if len(d.Elevations) > 0 {
		r := ElevationRange{Min: d.Elevations[0], Max: d.Elevations[0]}
		for _, z := range d.Elevations[1:] {
			r.Min, r.Max = min(r.Min, z), max(r.Max, z)
		}
		v.Elevation = &r
	}
	return v
}

func localPins(d *mapfile.MapData, pins []mapfile.MapPin) []Marker {
	out := []Marker{}
	for _, p := range pins {
		if x, y, ok := d.ToLocal(p.X, p.Y); ok {
			out = append(out, Marker{X: x, Y: y, Kind: p.Kind, Owner: p.Owner})
		}
	}
	return out
}
