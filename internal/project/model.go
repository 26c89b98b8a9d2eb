// Package project owns the open project: the explorer tree snapshot, the
// open map tabs with their dirty and active state, the inline rename session
// and the unsaved-changes prompt. It is driven by Intents, one at a time.
package project

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/petervdpas/isoedit/internal/config"
	"github.com/petervdpas/isoedit/internal/content"
	"github.com/petervdpas/isoedit/internal/mapfile"
	"github.com/petervdpas/isoedit/internal/tree"
)

// Options tune the model. OptionsFromConfig maps the editor config.
type Options struct {
	Tree tree.Options

	// MapExts are the extensions OpenMap accepts.
	MapExts []string

	NewFileBase   string
	NewFolderBase string
	ScaffoldDir   string
	MainFile      string
	NewWidth      int
	NewHeight     int

	MinZoom, MaxZoom float32
	ShowGrid         bool
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Tree: tree.Options{
			MaxDepth:   cfg.Tree.MaxDepth,
			MaxEntries: cfg.Tree.MaxEntries,
			HideExts:   cfg.HiddenExts(),
		},
		MapExts:       cfg.Maps.Extensions,
		NewFileBase:   cfg.Maps.NewFileBase,
		NewFolderBase: cfg.Maps.NewFolderBase,
		ScaffoldDir:   cfg.Maps.ScaffoldDir,
		MainFile:      cfg.Maps.MainFile,
		NewWidth:      cfg.Maps.NewWidth,
		NewHeight:     cfg.Maps.NewHeight,
		MinZoom:       cfg.Workspace.MinZoom,
		MaxZoom:       cfg.Workspace.MaxZoom,
		ShowGrid:      cfg.Workspace.ShowGrid,
	}
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the base log entry; components add their own field.
func WithLogger(l *logrus.Entry) Option {
	return func(m *Model) { m.log = l }
}

// WithIDs replaces the uuid generator used for rename sessions and close
// prompts.
func WithIDs(fn func() string) Option {
	return func(m *Model) { m.newID = fn }
}

// Model is the document/project state machine. It is not safe for
// concurrent use; callers serialize intents.
type Model struct {
	opts  Options
	log   *logrus.Entry
	newID func() string

	store   *content.Store
	state   State
	layout  Layout
	view    View
	preview *mapfile.MapData
	queue   []Intent
}

func New(opts Options, options ...Option) *Model {
	m := &Model{
		opts:  opts,
		newID: uuid.NewString,
	}
	for _, o := range options {
		o(m)
	}
	if m.log == nil {
		m.log = logrus.NewEntry(logrus.StandardLogger())
	}
	m.layout.ShowExplorer = true
	m.view.ShowGrid = opts.ShowGrid
	m.reset()
	return m
}

// Close drops the project and everything loaded from it.
func (m *Model) Close() {
	m.reset()
}

func (m *Model) explorerLog() *logrus.Entry  { return m.log.WithField("component", "explorer") }
func (m *Model) workspaceLog() *logrus.Entry { return m.log.WithField("component", "workspace") }
func (m *Model) projectLog() *logrus.Entry   { return m.log.WithField("component", "project") }

// reset is the hard workspace reset shared by open, close and failed open.
func (m *Model) reset() {
	m.store = nil
	m.state = State{DirtyMaps: map[string]struct{}{}}
	m.layout.Expanded = map[string]struct{}{}
	m.layout.Rename = nil
	m.layout.PendingClose = nil
	m.preview = nil
	m.view.reset()
	m.queue = nil
}

// Dispatch handles one intent to completion. Follow-up intents it produces
// are queued for Drain.
func (m *Model) Dispatch(in Intent) error {
	if m.state.TreeStale {
		m.refreshTree()
	}

	err := m.dispatch(in)

	// a prompt for a tab that went away by other means is dropped
	if pc := m.layout.PendingClose; pc != nil && !m.state.IsOpen(pc.Path) {
		m.layout.PendingClose = nil
	}
	return err
}

func (m *Model) dispatch(in Intent) error {
	switch v := in.(type) {
	case OpenFolder:
		return m.OpenFolder(v.Path)
	case CloseFolder:
		m.CloseFolder()
		return nil
	case CreateProject:
		return m.CreateProject(v.Path)
	case NewFile:
		_, err := m.NewFile(v.Parent)
		return err
	case NewFolder:
		_, err := m.NewFolder(v.Parent)
		return err
	case Rename:
		_, err := m.Rename(v.From, v.NewName)
		return err
	case Delete:
		return m.Delete(v.Path)
	case ToggleFolder:
		return m.ToggleFolder(v.ID)
	case Refresh:
		return m.Refresh()
	case OpenMap:
		return m.OpenMap(v.Path)
	case SaveActive:
		return m.SaveActive()
	case SaveAndClose:
		return m.SaveAndClose(v.Path)
	case CloseMap:
		m.CloseMap(v.Path)
		return nil
	case RequestClose:
		m.RequestClose(v.Path)
		return nil
	case ResolveClose:
		return m.ResolveClose(v.ID, v.Choice)
	case MarkDirty:
		return m.MarkDirty(v.Path)
	case BeginRename:
		return m.BeginRename(v.Path, v.Name)
	case EditRename:
		m.EditRename(v.Buffer)
		return nil
	case CommitRename:
		m.CommitRename()
		return nil
	case CancelRename:
		m.CancelRename()
		return nil
	case SelectTile:
		_, err := m.SelectTile(v.X, v.Y)
		return err
	case SetView:
		m.SetView(v.Width, v.Height, v.PanX, v.PanY, v.Zoom)
		return nil
	default:
		return fmt.Errorf("unknown intent %T", in)
	}
}

// Drain returns and clears the queued follow-up intents.
func (m *Model) Drain() []Intent {
	q := m.queue
	m.queue = nil
	return q
}

// Pump dispatches in and then every follow-up it produces, in order, until
// the queue is empty. All errors are joined.
func (m *Model) Pump(in Intent) error {
	var errs []error
	pending := []Intent{in}
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]
		if err := m.Dispatch(next); err != nil {
			errs = append(errs, err)
		}
		pending = append(pending, m.Drain()...)
	}
	return errors.Join(errs...)
}

func (m *Model) emit(in Intent) {
	m.queue = append(m.queue, in)
}

// State returns a copy of the project registry.
func (m *Model) State() State { return m.state.clone() }

// Layout returns a copy of the workflow layout.
func (m *Model) Layout() Layout { return m.layout.clone() }

// View returns the canvas state.
func (m *Model) View() View { return m.view }

// Preview returns the live document, or nil. Callers must not modify it.
func (m *Model) Preview() *mapfile.MapData { return m.preview }

// Tabs returns the open tab paths in order.
func (m *Model) Tabs() []string {
	out := make([]string, len(m.state.OpenMaps))
	for i, om := range m.state.OpenMaps {
		out[i] = om.Path
	}
	return out
}

func (m *Model) requireProject() error {
	if m.store == nil {
		return ErrNoProject
	}
	return nil
}

// DisplayName is p relative to the project root with forward slashes,
// falling back to the base name.
func (m *Model) DisplayName(p string) string {
	if m.store != nil {
		if rel := m.store.Rel(p); rel != "" && rel != "." {
			return rel
		}
	}
	return filepath.Base(p)
}

// refreshTree re-derives the tree after the filesystem changed. A failure
// keeps the previous snapshot and marks it stale.
func (m *Model) refreshTree() {
	if m.store == nil {
		return
	}
	root, err := tree.Load(m.state.RootPath, m.opts.Tree)
	if err != nil {
		m.state.TreeStale = true
		m.explorerLog().WithError(err).Warn("tree refresh failed, keeping previous snapshot")
		return
	}
	m.state.Root = root
	m.state.TreeStale = false
}
