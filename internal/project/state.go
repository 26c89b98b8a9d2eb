package project

import (
	"slices"

	"github.com/petervdpas/isoedit/internal/geom"
	"github.com/petervdpas/isoedit/internal/tree"
)

// MapTab is one open map. Name is the root-relative display path.
type MapTab struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// State is the open-project and document registry. Every dirty path and the
// active path are open tabs, and every path lies under RootPath.
type State struct {
	Root      *tree.Node
	RootPath  string
	OpenMaps  []MapTab
	ActiveMap string
	DirtyMaps map[string]struct{}

	// TreeStale is set when a refresh after a successful disk change failed.
	// Root then still shows the previous snapshot; the next intent retries.
	TreeStale bool
}

func (s *State) HasProject() bool { return s.RootPath != "" }

func (s *State) tabIndex(p string) int {
	return slices.IndexFunc(s.OpenMaps, func(m MapTab) bool { return m.Path == p })
}

func (s *State) IsOpen(p string) bool { return s.tabIndex(p) >= 0 }

func (s *State) IsDirty(p string) bool {
	_, ok := s.DirtyMaps[p]
	return ok
}

func (s State) clone() State {
	c := s
	c.OpenMaps = slices.Clone(s.OpenMaps)
	c.DirtyMaps = make(map[string]struct{}, len(s.DirtyMaps))
	for k := range s.DirtyMaps {
		c.DirtyMaps[k] = struct{}{}
	}
	return c
}

// RenameSession is an in-progress inline rename in the explorer.
type RenameSession struct {
	ID           string `json:"id"`
	TargetPath   string `json:"target_path"`
	OriginalName string `json:"original_name"`
	Buffer       string `json:"buffer"`
}

// PendingClose asks the user what to do with unsaved changes.
type PendingClose struct {
	ID           string `json:"id"`
	Path         string `json:"path"`
	Name         string `json:"name"`
	RequiresSave bool   `json:"requires_save"`
}

// Layout is document-workflow state shared with the explorer.
type Layout struct {
	ShowExplorer bool
	Expanded     map[string]struct{}
	Rename       *RenameSession
	PendingClose *PendingClose
}

func (l *Layout) IsExpanded(id string) bool {
	_, ok := l.Expanded[id]
	return ok
}

func (l Layout) clone() Layout {
	c := l
	c.Expanded = make(map[string]struct{}, len(l.Expanded))
	for k := range l.Expanded {
		c.Expanded[k] = struct{}{}
	}
	if l.Rename != nil {
		r := *l.Rename
		c.Rename = &r
	}
	if l.PendingClose != nil {
		p := *l.PendingClose
		c.PendingClose = &p
	}
	return c
}

// View is the canvas state of the live document.
type View struct {
	Width    float32    `json:"width"`
	Height   float32    `json:"height"`
	PanX     float32    `json:"pan_x"`
	PanY     float32    `json:"pan_y"`
	Zoom     float32    `json:"zoom"`
	Selected *geom.Cell `json:"selected,omitempty"`
	ShowGrid bool       `json:"show_grid"`
}

// reset keeps the panel size and grid toggle.
func (v *View) reset() {
	v.PanX, v.PanY = 0, 0
	v.Zoom = 1
	v.Selected = nil
}

func (v View) viewport() geom.Viewport {
	return geom.Viewport{Width: v.Width, Height: v.Height, PanX: v.PanX, PanY: v.PanY, Zoom: v.Zoom}
}
