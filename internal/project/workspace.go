package project

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/math/f32"

	"github.com/petervdpas/isoedit/internal/geom"
	"github.com/petervdpas/isoedit/internal/mapfile"
)

// OpenMap parses p and makes it the active tab. Paths without a map
// extension are ignored. On a parse error the preview is cleared and the
// tabs are left as they were.
func (m *Model) OpenMap(p string) error {
	if !mapfile.IsMapPath(p, m.opts.MapExts...) {
		return nil
	}
	if err := m.requireProject(); err != nil {
		return err
	}
	log := m.workspaceLog().WithField("path", p)

	abs, err := m.store.Resolve(p)
	if err != nil {
		log.WithError(err).Warn("open map rejected")
		return err
	}

	data, err := mapfile.Parse(abs)
	if err != nil {
		m.preview = nil
		m.view.reset()
		log.WithError(err).Error("open map failed")
		return err
	}

	m.preview = data
	m.view.reset()
	if !m.state.IsOpen(abs) {
		m.state.OpenMaps = append(m.state.OpenMaps, MapTab{Path: abs, Name: m.DisplayName(abs)})
	}
	delete(m.state.DirtyMaps, abs)
	m.state.ActiveMap = abs
	log.WithFields(logrus.Fields{
		"theater": data.Theater.String(),
		"size":    fmt.Sprintf("%dx%d", data.Width, data.Height),
	}).Info("map opened")
	return nil
}

// SaveActive writes the live document to the active path.
func (m *Model) SaveActive() error {
	active := m.state.ActiveMap
	if active == "" {
		return ErrNoActiveMap
	}
	if m.preview == nil {
		return ErrNoPreview
	}
	log := m.workspaceLog().WithField("path", active)

	if err := mapfile.Save(active, m.preview); err != nil {
		log.WithError(err).Error("save failed")
		return err
	}
	delete(m.state.DirtyMaps, active)
	log.Info("map saved")
	return nil
}

// SaveAndClose saves p if it is the loaded active document, then closes it.
// Any other tab counts as clean. A failed save leaves the tab open.
func (m *Model) SaveAndClose(p string) error {
	if p == m.state.ActiveMap && m.preview != nil {
		if err := m.SaveActive(); err != nil {
			return err
		}
	}
	m.CloseMap(p)
	return nil
}

// CloseMap removes the tab without saving. Closing the active tab activates
// its right neighbour (or the new last tab) and queues it for opening; with
// no tabs left the preview is cleared.
func (m *Model) CloseMap(p string) {
	idx := m.state.tabIndex(p)
	if idx < 0 {
		return
	}
	m.state.OpenMaps = append(m.state.OpenMaps[:idx], m.state.OpenMaps[idx+1:]...)
	delete(m.state.DirtyMaps, p)
	m.workspaceLog().WithField("path", p).Debug("tab closed")

	if m.state.ActiveMap != p {
		return
	}
	m.preview = nil
	m.view.reset()
	if len(m.state.OpenMaps) == 0 {
		m.state.ActiveMap = ""
		return
	}
	next := m.state.OpenMaps[min(idx, len(m.state.OpenMaps)-1)].Path
	m.state.ActiveMap = next
	m.emit(OpenMap{Path: next})
}

// RequestClose closes a clean tab right away. A dirty tab gets a pending
// close prompt instead.
func (m *Model) RequestClose(p string) {
	if !m.state.IsOpen(p) {
		return
	}
	if !m.state.IsDirty(p) {
		m.CloseMap(p)
		return
	}
	m.layout.PendingClose = &PendingClose{
		ID:           m.newID(),
		Path:         p,
		Name:         m.DisplayName(p),
		RequiresSave: true,
	}
}

// ResolveClose answers the pending close prompt. An id that does not match
// the current prompt is ignored.
func (m *Model) ResolveClose(id string, choice CloseChoice) error {
	pc := m.layout.PendingClose
	if pc == nil || pc.ID != id {
		m.workspaceLog().WithField("id", id).Debug("stale close resolution ignored")
		return nil
	}
	m.layout.PendingClose = nil

	switch choice {
	case ChoiceSave:
		return m.SaveAndClose(pc.Path)
	case ChoiceDiscard:
		m.CloseMap(pc.Path)
	}
	return nil
}

// MarkDirty flags an open tab as changed. Editing tools call this.
func (m *Model) MarkDirty(p string) error {
	if !m.state.IsOpen(p) {
		return fmt.Errorf("%s: %w", p, ErrNotOpen)
	}
	m.state.DirtyMaps[p] = struct{}{}
	return nil
}

// Grid returns the tile layout of the live document in the current view.
func (m *Model) Grid() (geom.Staggered, bool) {
	if m.preview == nil {
		return geom.Staggered{}, false
	}
	return geom.Fit(m.view.viewport(), m.preview.Width, m.preview.Height), true
}

// SelectTile picks the tile under panel point (x, y) and selects it.
func (m *Model) SelectTile(x, y float32) (geom.Cell, error) {
	g, ok := m.Grid()
	if !ok {
		return geom.Cell{}, ErrNoPreview
	}
	cell, ok := g.IJFromWorld(f32.Vec2{x, y}, m.preview.Width, m.preview.Height)
	if !ok {
		return geom.Cell{}, ErrNoPreview
	}
	m.view.Selected = &cell
	return cell, nil
}

// SetView updates the panel size, pan and zoom. Zoom is clamped to the
// configured range; zero keeps the current zoom.
func (m *Model) SetView(width, height, panX, panY, zoom float32) {
	m.view.Width, m.view.Height = width, height
	m.view.PanX, m.view.PanY = panX, panY
	if zoom > 0 {
		if m.opts.MinZoom > 0 {
			zoom = max(zoom, m.opts.MinZoom)
		}
		if m.opts.MaxZoom > 0 {
			zoom = min(zoom, m.opts.MaxZoom)
		}
		m.view.Zoom = zoom
	}
}
