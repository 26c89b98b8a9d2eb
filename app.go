// app.go
package main

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/petervdpas/isoedit/internal/config"
	"github.com/petervdpas/isoedit/internal/logger"
	"github.com/petervdpas/isoedit/internal/project"
	"github.com/petervdpas/isoedit/internal/storage"
	"github.com/petervdpas/isoedit/internal/tree"
	"github.com/petervdpas/isoedit/internal/watch"
)

// App is the Wails-bound shell. Every intent goes through apply, which holds
// mu for the whole pump so the watcher and the frontend never interleave.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg     config.Config
	cfgPath string
	log     *logrus.Entry
	status  *logger.StatusBuffer

	mu      sync.Mutex
	model   *project.Model
	db      *storage.DB
	watcher *watch.Watcher
}

const (
	themeKey     = "ui.theme"
	quickOpenMax = 50
)

func NewApp(cfg config.Config, cfgPath string) *App {
	status := logger.NewStatusBuffer(cfg.Workspace.StatusLines, logrus.InfoLevel)
	logger.Log.AddHook(status)

	return &App{
		cfg:     cfg,
		cfgPath: cfgPath,
		log:     logger.For("shell"),
		status:  status,
		model: project.New(project.OptionsFromConfig(cfg),
			project.WithLogger(logrus.NewEntry(logger.Log))),
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)

	dbPath := a.cfg.ResolveDB(filepath.Dir(a.cfgPath))
	db, err := storage.Open(dbPath)
	if err != nil {
		a.log.WithError(err).WithField("path", dbPath).Warn("state database unavailable, recent projects disabled")
	} else {
		a.mu.Lock()
		a.db = db
		a.mu.Unlock()
	}

	go a.forwardStatus()
}

func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	a.saveSessionLocked()
	w := a.watcher
	a.watcher = nil
	a.model.Close()
	db := a.db
	a.db = nil
	a.mu.Unlock()

	// outside the lock: the watcher callback takes mu
	if w != nil {
		_ = w.Close()
	}
	if db != nil {
		if err := db.Close(); err != nil {
			a.log.WithError(err).Warn("state database close failed")
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.log.Info("shutdown complete")
}

// forwardStatus pushes status-bar entries to the frontend as they are logged.
func (a *App) forwardStatus() {
	ch, cancel := a.status.Subscribe()
	defer cancel()
	for {
		select {
		case <-a.ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			runtime.EventsEmit(a.ctx, "status:entry", e)
		}
	}
}

// apply pumps one intent and its follow-ups, keeps the session and the
// watcher in step with the project and tells the frontend.
func (a *App) apply(in project.Intent) (project.Snapshot, error) {
	a.mu.Lock()
	prevRoot := a.model.State().RootPath
	err := a.model.Pump(in)
	root := a.model.State().RootPath

	var stale *watch.Watcher
	if root != prevRoot {
		stale = a.watcher
		a.watcher = nil
		if root != "" {
			a.projectOpenedLocked(root)
		}
	}
	a.saveSessionLocked()
	snap := a.model.Snapshot()
	a.mu.Unlock()

	if stale != nil {
		_ = stale.Close()
	}
	if root != prevRoot && root != "" {
		a.startWatcher(root)
	}
	a.emit("project:changed", snap)
	return snap, err
}

// projectOpenedLocked records the project as recent and restores its tabs.
func (a *App) projectOpenedLocked(root string) {
	if a.db == nil {
		return
	}
	log := a.log.WithField("root", root)
	if err := a.db.TouchProject(root, filepath.Base(root)); err != nil {
		log.WithError(err).Warn("recent project not recorded")
		return
	}
	if err := a.db.PruneProjects(a.cfg.Storage.RecentLimit); err != nil {
		log.WithError(err).Warn("recent projects not pruned")
	}
	if !a.cfg.Workspace.RestoreTabs {
		return
	}

	s, err := a.db.LoadSession(root)
	if err != nil {
		log.WithError(err).Warn("session not restored")
		return
	}
	for _, p := range s.Tabs {
		if err := a.model.Pump(project.OpenMap{Path: p}); err != nil {
			log.WithError(err).WithField("path", p).Debug("session tab skipped")
		}
	}
	st := a.model.State()
	if s.Active != "" && st.IsOpen(s.Active) {
		_ = a.model.Pump(project.OpenMap{Path: s.Active})
	}
	log.WithField("tabs", len(a.model.Tabs())).Info("session restored")
}

func (a *App) saveSessionLocked() {
	if a.db == nil {
		return
	}
	st := a.model.State()
	if !st.HasProject() {
		return
	}
	s := storage.Session{Tabs: a.model.Tabs(), Active: st.ActiveMap}
	if err := a.db.SaveSession(st.RootPath, s); err != nil {
		a.log.WithError(err).Warn("session not saved")
	}
}

func (a *App) startWatcher(root string) {
	if !a.cfg.Watch.Enabled {
		return
	}
	debounce := time.Duration(a.cfg.Watch.DebounceMS) * time.Millisecond
	w, err := watch.New(root, debounce, func() {
		_, _ = a.apply(project.Refresh{})
	}, logger.For("watch"))
	if err != nil {
		a.log.WithError(err).WithField("root", root).Warn("external changes will not be detected")
		return
	}

	a.mu.Lock()
	if a.model.State().RootPath != root || a.watcher != nil {
		// the project changed while the watcher was starting
		a.mu.Unlock()
		_ = w.Close()
		return
	}
	a.watcher = w
	a.mu.Unlock()
}

func (a *App) emit(name string, data any) {
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, name, data)
	}
}

// -------------------------
// Frontend API (project)
// -------------------------

// PickFolder shows a directory picker and opens the choice. Cancelling the
// dialog changes nothing.
func (a *App) PickFolder() (project.Snapshot, error) {
	dir, err := runtime.OpenDirectoryDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Open project folder",
	})
	if err != nil {
		return a.Snapshot(), err
	}
	return a.OpenFolder(dir)
}

func (a *App) OpenFolder(path string) (project.Snapshot, error) {
	return a.apply(project.OpenFolder{Path: path})
}

func (a *App) CloseFolder() (project.Snapshot, error) {
	return a.apply(project.CloseFolder{})
}

// PickCreateProject asks for a target directory and scaffolds a project in it.
func (a *App) PickCreateProject() (project.Snapshot, error) {
	dir, err := runtime.OpenDirectoryDialog(a.ctx, runtime.OpenDialogOptions{
		Title:                "Create project in folder",
		CanCreateDirectories: true,
	})
	if err != nil {
		return a.Snapshot(), err
	}
	return a.CreateProject(dir)
}

func (a *App) CreateProject(path string) (project.Snapshot, error) {
	return a.apply(project.CreateProject{Path: path})
}

func (a *App) Refresh() (project.Snapshot, error) {
	return a.apply(project.Refresh{})
}

// -------------------------
// Frontend API (explorer)
// -------------------------

func (a *App) NewFile(parent string) (project.Snapshot, error) {
	return a.apply(project.NewFile{Parent: parent})
}

func (a *App) NewFolder(parent string) (project.Snapshot, error) {
	return a.apply(project.NewFolder{Parent: parent})
}

func (a *App) Rename(from, newName string) (project.Snapshot, error) {
	return a.apply(project.Rename{From: from, NewName: newName})
}

func (a *App) Delete(path string) (project.Snapshot, error) {
	return a.apply(project.Delete{Path: path})
}

func (a *App) ToggleFolder(id string) (project.Snapshot, error) {
	return a.apply(project.ToggleFolder{ID: id})
}

func (a *App) SetExplorerVisible(show bool) project.Snapshot {
	a.mu.Lock()
	a.model.SetExplorerVisible(show)
	snap := a.model.Snapshot()
	a.mu.Unlock()
	a.emit("project:changed", snap)
	return snap
}

func (a *App) BeginRename(path, name string) (project.Snapshot, error) {
	return a.apply(project.BeginRename{Path: path, Name: name})
}

func (a *App) EditRename(buffer string) (project.Snapshot, error) {
	return a.apply(project.EditRename{Buffer: buffer})
}

func (a *App) CommitRename() (project.Snapshot, error) {
	return a.apply(project.CommitRename{})
}

func (a *App) CancelRename() (project.Snapshot, error) {
	return a.apply(project.CancelRename{})
}

// QuickOpen fuzzy-matches map files in the current tree.
func (a *App) QuickOpen(query string) []tree.Hit {
	a.mu.Lock()
	root := a.model.State().Root
	a.mu.Unlock()
	return tree.Search(root, query, quickOpenMax, a.cfg.Maps.Extensions...)
}

// -------------------------
// Frontend API (workspace)
// -------------------------

func (a *App) OpenMap(path string) (project.Snapshot, error) {
	return a.apply(project.OpenMap{Path: path})
}

func (a *App) SaveActive() (project.Snapshot, error) {
	return a.apply(project.SaveActive{})
}

func (a *App) RequestClose(path string) (project.Snapshot, error) {
	return a.apply(project.RequestClose{Path: path})
}

// ResolveClose answers the unsaved-changes prompt with "save", "discard" or
// anything else for cancel.
func (a *App) ResolveClose(id, choice string) (project.Snapshot, error) {
	return a.apply(project.ResolveClose{ID: id, Choice: project.ParseChoice(choice)})
}

func (a *App) MarkDirty(path string) (project.Snapshot, error) {
	return a.apply(project.MarkDirty{Path: path})
}

func (a *App) PickTile(x, y float32) (project.Snapshot, error) {
	return a.apply(project.SelectTile{X: x, Y: y})
}

func (a *App) SetView(width, height, panX, panY, zoom float32) (project.Snapshot, error) {
	return a.apply(project.SetView{Width: width, Height: height, PanX: panX, PanY: panY, Zoom: zoom})
}

func (a *App) Snapshot() project.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.Snapshot()
}

// -------------------------
// Frontend API (shell)
// -------------------------

func (a *App) RecentProjects() ([]storage.RecentProject, error) {
	a.mu.Lock()
	db := a.db
	a.mu.Unlock()
	if db == nil {
		return []storage.RecentProject{}, nil
	}
	return db.RecentProjects(a.cfg.Storage.RecentLimit)
}

func (a *App) ForgetRecent(path string) error {
	a.mu.Lock()
	db := a.db
	a.mu.Unlock()
	if db == nil {
		return nil
	}
	return db.ForgetProject(path)
}

// StatusLog returns the buffered status-bar lines, oldest first.
func (a *App) StatusLog() []logger.StatusEntry {
	return a.status.Snapshot()
}

func (a *App) GetTheme() string {
	a.mu.Lock()
	db := a.db
	a.mu.Unlock()
	if db != nil {
		if t, err := db.Meta(themeKey); err == nil && t != "" {
			return normalizeTheme(t)
		}
	}
	return normalizeTheme(a.cfg.Window.Theme)
}

func (a *App) SetTheme(theme string) error {
	a.mu.Lock()
	db := a.db
	a.mu.Unlock()
	if db == nil {
		return nil
	}
	return db.SetMeta(themeKey, normalizeTheme(theme))
}

// -------------------------
// Helpers
// -------------------------

func normalizeTheme(t string) string {
	if t == "light" || t == "dark" {
		return t
	}
	return "dark"
}
