package project

import (
	"path/filepath"
	"strings"
)

// movePath maps p from under oldRoot to under newRoot. Files only match
// exactly; directories also move every descendant.
func movePath(p, oldRoot, newRoot string, dir bool) (string, bool) {
	if p == oldRoot {
		return newRoot, true
	}
	if dir && underDir(p, oldRoot) {
		return newRoot + p[len(oldRoot):], true
	}
	return p, false
}

// underDir reports whether p is a strict descendant of dir.
func underDir(p, dir string) bool {
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

func atOrUnder(p, target string) bool {
	return p == target || underDir(p, target)
}

// rewritePaths applies one rename to every path-keyed collection: tabs,
// dirty set, expanded folders, the active map, the rename session and the
// close prompt.
func (m *Model) rewritePaths(oldRoot, newRoot string, dir bool) {
	for i, om := range m.state.OpenMaps {
		if np, ok := movePath(om.Path, oldRoot, newRoot, dir); ok {
			m.state.OpenMaps[i] = MapTab{Path: np, Name: m.DisplayName(np)}
		}
	}

	dirty := make(map[string]struct{}, len(m.state.DirtyMaps))
	for p := range m.state.DirtyMaps {
		np, _ := movePath(p, oldRoot, newRoot, dir)
		dirty[np] = struct{}{}
	}
	m.state.DirtyMaps = dirty

	expanded := make(map[string]struct{}, len(m.layout.Expanded))
	for id := range m.layout.Expanded {
		nid, _ := movePath(id, oldRoot, newRoot, dir)
		expanded[nid] = struct{}{}
	}
	m.layout.Expanded = expanded

	if np, ok := movePath(m.state.ActiveMap, oldRoot, newRoot, dir); ok {
		m.state.ActiveMap = np
	}
	if rs := m.layout.Rename; rs != nil {
		if np, ok := movePath(rs.TargetPath, oldRoot, newRoot, dir); ok {
			rs.TargetPath = np
		}
	}
	if pc := m.layout.PendingClose; pc != nil {
		if np, ok := movePath(pc.Path, oldRoot, newRoot, dir); ok {
			pc.Path = np
			pc.Name = m.DisplayName(np)
		}
	}
}

// dropPaths removes every tab, dirty flag and expanded folder at or under
// target. It reports whether the active map was among them; the caller
// decides what becomes active.
func (m *Model) dropPaths(target string) (activeDropped bool) {
	kept := m.state.OpenMaps[:0]
	for _, om := range m.state.OpenMaps {
		if !atOrUnder(om.Path, target) {
			kept = append(kept, om)
		}
	}
	m.state.OpenMaps = kept

	for p := range m.state.DirtyMaps {
		if atOrUnder(p, target) {
			delete(m.state.DirtyMaps, p)
		}
	}
	for id := range m.layout.Expanded {
		if atOrUnder(id, target) {
			delete(m.layout.Expanded, id)
		}
	}
	if rs := m.layout.Rename; rs != nil && atOrUnder(rs.TargetPath, target) {
		m.layout.Rename = nil
	}

	if m.state.ActiveMap != "" && atOrUnder(m.state.ActiveMap, target) {
		m.state.ActiveMap = ""
		return true
	}
	return false
}
