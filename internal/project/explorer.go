package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/petervdpas/isoedit/internal/content"
	"github.com/petervdpas/isoedit/internal/mapfile"
	"github.com/petervdpas/isoedit/internal/tree"
	"github.com/petervdpas/isoedit/internal/util"
)

// OpenFolder installs dir as the project. The workspace is reset either way;
// on failure no project is left open.
func (m *Model) OpenFolder(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	log := m.projectLog().WithField("path", dir)

	m.reset()

	store, err := content.NewStore(dir)
	if err != nil {
		log.WithError(err).Error("open folder failed")
		return err
	}
	root, err := tree.Load(store.Root(), m.opts.Tree)
	if err != nil {
		log.WithError(err).Error("open folder failed")
		return err
	}

	m.store = store
	m.state.RootPath = store.Root()
	m.state.Root = root
	m.layout.Expanded[root.ID] = struct{}{}
	log.WithField("root", store.Root()).Info("project opened")
	return nil
}

func (m *Model) CloseFolder() {
	if m.store != nil {
		m.projectLog().WithField("root", m.state.RootPath).Info("project closed")
	}
	m.reset()
}

// CreateProject scaffolds dir (the directory, the maps folder and a default
// map if missing), opens it and makes the default map the active tab.
func (m *Model) CreateProject(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	log := m.projectLog().WithField("path", dir)

	mapsDir := filepath.Join(dir, m.opts.ScaffoldDir)
	if err := os.MkdirAll(mapsDir, 0o755); err != nil {
		log.WithError(err).Error("create project failed")
		return fmt.Errorf("create maps directory: %w", err)
	}
	mainPath := filepath.Join(mapsDir, m.opts.MainFile)
	if !util.Exists(mainPath) {
		if err := mapfile.Save(mainPath, mapfile.DefaultTemplate()); err != nil {
			log.WithError(err).Error("create project failed")
			return fmt.Errorf("write default map: %w", err)
		}
	}

	if err := m.OpenFolder(dir); err != nil {
		return err
	}
	return m.OpenMap(filepath.Join(m.state.RootPath, m.opts.ScaffoldDir, m.opts.MainFile))
}

// NewFile creates a blank map with a free "untitled" name in parent and
// queues it for opening.
func (m *Model) NewFile(parent string) (string, error) {
	if err := m.requireProject(); err != nil {
		return "", err
	}
	log := m.explorerLog().WithField("parent", parent)

	dir, err := m.store.Dir(parent)
	if err != nil {
		log.WithError(err).Warn("new file rejected")
		return "", err
	}
	p, err := m.store.UniqueFile(dir, m.opts.NewFileBase, mapfile.StructuredExt)
	if err != nil {
		return "", err
	}
	if err := mapfile.Save(p, mapfile.Blank(m.opts.NewWidth, m.opts.NewHeight)); err != nil {
		log.WithError(err).Error("new file failed")
		return "", err
	}

	m.refreshTree()
	m.layout.Expanded[dir] = struct{}{}
	m.emit(OpenMap{Path: p})
	log.WithField("file", p).Info("file created")
	return p, nil
}

// NewFolder creates a folder with a free "New Folder" name in parent and
// expands both.
func (m *Model) NewFolder(parent string) (string, error) {
	if err := m.requireProject(); err != nil {
		return "", err
	}
	log := m.explorerLog().WithField("parent", parent)

	dir, err := m.store.Dir(parent)
	if err != nil {
		log.WithError(err).Warn("new folder rejected")
		return "", err
	}
	p, err := m.store.UniqueDir(dir, m.opts.NewFolderBase)
	if err != nil {
		return "", err
	}
	if err := m.store.Mkdir(p); err != nil {
		log.WithError(err).Error("new folder failed")
		return "", err
	}

	m.refreshTree()
	m.layout.Expanded[dir] = struct{}{}
	m.layout.Expanded[p] = struct{}{}
	log.WithField("folder", p).Info("folder created")
	return p, nil
}

// Rename renames from to newName in the same directory. All validation
// happens before the filesystem is touched. Tabs, dirty flags and expanded
// folders follow the move; a moved active map is re-read from its new path.
func (m *Model) Rename(from, newName string) (string, error) {
	if err := m.requireProject(); err != nil {
		return "", err
	}
	log := m.explorerLog().WithField("from", from)

	src, dst, info, err := m.store.RenameTarget(from, newName)
	if err != nil {
		log.WithError(err).Warn("rename rejected")
		return "", err
	}
	if src == dst {
		return dst, nil
	}
	if err := m.store.Rename(src, dst); err != nil {
		log.WithError(err).Error("rename failed")
		return "", err
	}

	prevActive := m.state.ActiveMap
	m.rewritePaths(src, dst, info.IsDir())
	m.refreshTree()

	if active := m.state.ActiveMap; active != "" && active != prevActive {
		if err := m.reloadActive(active); err != nil {
			log.WithError(err).Warn("renamed active map could not be reloaded")
		}
	}
	log.WithField("to", dst).Info("renamed")
	return dst, nil
}

// reloadActive re-parses the active map after it moved. On failure the
// preview is cleared; the tab stays.
func (m *Model) reloadActive(p string) error {
	data, err := mapfile.Parse(p)
	if err != nil {
		m.preview = nil
		m.view.reset()
		return err
	}
	m.preview = data
	return nil
}

// Delete removes a file or a whole directory and forgets every tab, dirty
// flag and expanded folder under it. If the active map went away the first
// remaining tab is queued for opening.
func (m *Model) Delete(p string) error {
	if err := m.requireProject(); err != nil {
		return err
	}
	log := m.explorerLog().WithField("path", p)

	abs, err := m.store.Resolve(p)
	if err != nil {
		log.WithError(err).Warn("delete rejected")
		return err
	}
	if _, err := m.store.Delete(abs); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrProtected) {
			log.WithError(err).Warn("delete rejected")
		} else {
			log.WithError(err).Error("delete failed")
		}
		return err
	}

	if m.dropPaths(abs) {
		m.promoteFirst()
	}
	m.refreshTree()
	log.Info("deleted")
	return nil
}

// promoteFirst makes the first open tab active and queues it for opening, or
// clears the preview when no tab is left. The preview of the previous active
// map is dropped right away so it can never be saved under the new path.
func (m *Model) promoteFirst() {
	m.preview = nil
	m.view.reset()
	if len(m.state.OpenMaps) == 0 {
		m.state.ActiveMap = ""
		return
	}
	next := m.state.OpenMaps[0].Path
	m.state.ActiveMap = next
	m.emit(OpenMap{Path: next})
}

// ToggleFolder expands or collapses a folder in the explorer.
func (m *Model) ToggleFolder(id string) error {
	if err := m.requireProject(); err != nil {
		return err
	}
	if !util.Within(m.state.RootPath, id) {
		return fmt.Errorf("%s: %w", id, ErrOutsideRoot)
	}
	if m.layout.IsExpanded(id) {
		delete(m.layout.Expanded, id)
	} else {
		m.layout.Expanded[id] = struct{}{}
	}
	return nil
}

// SetExplorerVisible shows or hides the explorer panel.
func (m *Model) SetExplorerVisible(show bool) {
	m.layout.ShowExplorer = show
}

// Refresh re-reads the tree after an external change and forgets tabs and
// expanded folders whose paths no longer exist.
func (m *Model) Refresh() error {
	if err := m.requireProject(); err != nil {
		return err
	}
	if _, err := os.Stat(m.state.RootPath); err != nil {
		m.explorerLog().WithError(err).Error("project root is gone")
		m.refreshTree()
		return err
	}

	activeDropped := false
	for _, om := range m.Tabs() {
		if _, err := os.Lstat(om); errors.Is(err, fs.ErrNotExist) {
			if m.dropPaths(om) {
				activeDropped = true
			}
		}
	}
	for id := range m.layout.Expanded {
		if _, err := os.Lstat(id); errors.Is(err, fs.ErrNotExist) {
			delete(m.layout.Expanded, id)
		}
	}
	if activeDropped {
		m.promoteFirst()
	}

	m.refreshTree()
	if m.state.TreeStale {
		return errors.New("tree refresh failed")
	}
	return nil
}
