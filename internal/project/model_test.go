package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/petervdpas/isoedit/internal/logger"
	"github.com/petervdpas/isoedit/internal/mapfile"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	n := 0
	return New(DefaultOptions(),
		WithLogger(logrus.NewEntry(logger.Discard())),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

// openProject opens a fresh temp dir and returns the model and the canonical
// root path.
func openProject(t *testing.T) (*Model, string) {
	t.Helper()
	m := newTestModel(t)
	if err := m.OpenFolder(t.TempDir()); err != nil {
		t.Fatalf("OpenFolder: %v", err)
	}
	return m, m.State().RootPath
}

func writeMap(t *testing.T, p string, w, h int) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := mapfile.Save(p, mapfile.Blank(w, h)); err != nil {
		t.Fatal(err)
	}
	return p
}

func mustOpen(t *testing.T, m *Model, p string) {
	t.Helper()
	if err := m.OpenMap(p); err != nil {
		t.Fatalf("OpenMap(%s): %v", p, err)
	}
}

func TestOpenFolder(t *testing.T) {
	m, root := openProject(t)

	st := m.State()
	if !st.HasProject() || st.Root == nil || st.Root.ID != root {
		t.Fatalf("state after open = %+v", st)
	}
	ml := m.Layout()
	if !ml.IsExpanded(root) {
		t.Fatal("root not expanded")
	}
	if len(m.Tabs()) != 0 || st.ActiveMap != "" || m.Preview() != nil {
		t.Fatal("workspace not empty after open")
	}
}

func TestOpenFolderResetsWorkspace(t *testing.T) {
	m, root := openProject(t)
	mustOpen(t, m, writeMap(t, filepath.Join(root, "a.mpr"), 4, 4))

	other := t.TempDir()
	if err := m.OpenFolder(other); err != nil {
		t.Fatal(err)
	}
	if len(m.Tabs()) != 0 || m.Preview() != nil || m.State().ActiveMap != "" {
		t.Fatal("tabs survived opening another folder")
	}
	ml := m.Layout()
	if ml.IsExpanded(root) {
		t.Fatal("old expanded folder survived")
	}
}

func TestOpenFolderFailureLeavesNoProject(t *testing.T) {
	m, root := openProject(t)
	mustOpen(t, m, writeMap(t, filepath.Join(root, "a.mpr"), 4, 4))

	if err := m.OpenFolder(filepath.Join(root, "missing")); err == nil {
		t.Fatal("expected error for missing folder")
	}
	ms := m.State()
	if ms.HasProject() || len(m.Tabs()) != 0 || m.Preview() != nil {
		t.Fatal("failed open left state behind")
	}
	if _, err := m.NewFile(root); !errors.Is(err, ErrNoProject) {
		t.Fatalf("NewFile err = %v, want ErrNoProject", err)
	}
}

func TestOpenFolderEmptyPathIsNoop(t *testing.T) {
	m, root := openProject(t)
	if err := m.OpenFolder("  "); err != nil {
		t.Fatal(err)
	}
	if m.State().RootPath != root {
		t.Fatal("cancelled dialog closed the project")
	}
}

func TestCloseFolder(t *testing.T) {
	m, root := openProject(t)
	mustOpen(t, m, writeMap(t, filepath.Join(root, "a.mpr"), 4, 4))
	m.CloseFolder()
	ms := m.State()
	if ms.HasProject() || len(m.Tabs()) != 0 || m.Preview() != nil {
		t.Fatal("close left state behind")
	}
}

func TestCreateProject(t *testing.T) {
	m := newTestModel(t)
	dir := filepath.Join(t.TempDir(), "campaign")

	if err := m.CreateProject(dir); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	st := m.State()
	main := filepath.Join(st.RootPath, "maps", "main.mpr")
	if _, err := os.Stat(main); err != nil {
		t.Fatalf("default map not written: %v", err)
	}
	if st.ActiveMap != main || len(st.OpenMaps) != 1 || st.OpenMaps[0].Name != "maps/main.mpr" {
		t.Fatalf("state = %+v", st)
	}
	if p := m.Preview(); p == nil || p.Width != 64 || p.Height != 64 {
		t.Fatalf("preview = %+v", p)
	}
}

func TestCreateProjectKeepsExistingMain(t *testing.T) {
	dir := t.TempDir()
	writeMap(t, filepath.Join(dir, "maps", "main.mpr"), 3, 5)

	m := newTestModel(t)
	if err := m.CreateProject(dir); err != nil {
		t.Fatal(err)
	}
	if p := m.Preview(); p == nil || p.Width != 3 || p.Height != 5 {
		t.Fatalf("existing main.mpr overwritten: %+v", p)
	}
}

func TestDispatchUnknownIntent(t *testing.T) {
	m := newTestModel(t)
	type bogus struct{ Intent }
	if err := m.Dispatch(bogus{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPumpRunsFollowUps(t *testing.T) {
	m, root := openProject(t)

	if err := m.Pump(NewFile{Parent: root}); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	want := filepath.Join(root, "untitled.mpr")
	if m.State().ActiveMap != want || m.Preview() == nil {
		t.Fatalf("active = %q, preview = %v", m.State().ActiveMap, m.Preview())
	}
	if q := m.Drain(); len(q) != 0 {
		t.Fatalf("queue not drained: %v", q)
	}
}

func TestPumpJoinsErrors(t *testing.T) {
	m := newTestModel(t)
	err := m.Pump(SaveActive{})
	if !errors.Is(err, ErrNoActiveMap) {
		t.Fatalf("err = %v", err)
	}
}

func TestStaleTreeRetried(t *testing.T) {
	m, root := openProject(t)
	m.state.TreeStale = true
	writeMap(t, filepath.Join(root, "late.mpr"), 2, 2)

	if err := m.Dispatch(SetView{Width: 100, Height: 100}); err != nil {
		t.Fatal(err)
	}
	st := m.State()
	if st.TreeStale {
		t.Fatal("stale flag not cleared")
	}
	if len(st.Root.Children) != 1 || st.Root.Children[0].Name != "late.mpr" {
		t.Fatalf("tree not reloaded: %+v", st.Root.Children)
	}
}

func TestStateCopiesAreIndependent(t *testing.T) {
	m, root := openProject(t)
	a := writeMap(t, filepath.Join(root, "a.mpr"), 2, 2)
	mustOpen(t, m, a)
	_ = m.MarkDirty(a)

	st := m.State()
	st.OpenMaps[0].Path = "x"
	delete(st.DirtyMaps, a)
	l := m.Layout()
	delete(l.Expanded, root)

	ms := m.State()
	ml := m.Layout()
	if m.Tabs()[0] != a || !ms.IsDirty(a) || !ml.IsExpanded(root) {
		t.Fatal("caller mutation leaked into the model")
	}
}
