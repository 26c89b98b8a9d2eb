package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestResolveContainment(t *testing.T) {
	s := newTestStore(t)
	root := s.Root()

	if _, err := s.Resolve(filepath.Join(root, "maps", "new.mpr")); err != nil {
		t.Fatalf("inside path rejected: %v", err)
	}
	if _, err := s.Resolve(filepath.Join(root, "..", "x")); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("err = %v, want ErrOutsideRoot", err)
	}
	if _, err := s.Resolve(root + "-sibling"); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("sibling prefix accepted: %v", err)
	}
}

func TestResolveSymlinkEscape(t *testing.T) {
	s := newTestStore(t)
	outside := t.TempDir()
	link := filepath.Join(s.Root(), "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if _, err := s.Resolve(filepath.Join(link, "x.mpr")); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("err = %v, want ErrOutsideRoot", err)
	}
}

func TestUniqueNames(t *testing.T) {
	s := newTestStore(t)
	root := s.Root()

	p, err := s.UniqueFile(root, "untitled", ".mpr")
	if err != nil || filepath.Base(p) != "untitled.mpr" {
		t.Fatalf("first = %q, %v", p, err)
	}
	_ = os.WriteFile(p, nil, 0o644)
	_ = os.WriteFile(filepath.Join(root, "untitled-1.mpr"), nil, 0o644)
	p, _ = s.UniqueFile(root, "untitled", ".mpr")
	if filepath.Base(p) != "untitled-2.mpr" {
		t.Fatalf("third = %q", p)
	}

	d, _ := s.UniqueDir(root, "New Folder")
	if filepath.Base(d) != "New Folder" {
		t.Fatalf("dir = %q", d)
	}
	if err := s.Mkdir(d); err != nil {
		t.Fatal(err)
	}
	d, _ = s.UniqueDir(root, "New Folder")
	if filepath.Base(d) != "New Folder 1" {
		t.Fatalf("second dir = %q", d)
	}
}

func TestRenameTargetValidation(t *testing.T) {
	s := newTestStore(t)
	root := s.Root()
	a := filepath.Join(root, "a.mpr")
	b := filepath.Join(root, "b.mpr")
	_ = os.WriteFile(a, nil, 0o644)
	_ = os.WriteFile(b, nil, 0o644)

	cases := []struct {
		name string
		from string
		to   string
		want error
	}{
		{"missing", filepath.Join(root, "nope.mpr"), "x.mpr", ErrNotFound},
		{"empty", a, "  ", ErrInvalidName},
		{"separator", a, "sub/x.mpr", ErrInvalidName},
		{"parent", a, "..", ErrInvalidName},
		{"exists", a, "b.mpr", ErrExists},
		{"root", root, "renamed", ErrProtected},
		{"outside", filepath.Dir(root), "x", ErrOutsideRoot},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, _, _, err := s.RenameTarget(c.from, c.to); !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}

	src, dst, _, err := s.RenameTarget(a, " a.mpr ")
	if err != nil || src != dst {
		t.Fatalf("same name: %q %q %v", src, dst, err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	root := s.Root()
	dir := filepath.Join(root, "maps", "deep")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "x.mpr"), nil, 0o644)

	if _, err := s.Delete(root); !errors.Is(err, ErrProtected) {
		t.Fatalf("root delete err = %v", err)
	}
	st, err := s.Delete(filepath.Join(root, "maps"))
	if err != nil || !st.IsDir() {
		t.Fatalf("delete dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "maps")); !os.IsNotExist(err) {
		t.Fatal("directory still present")
	}
	if _, err := s.Delete(filepath.Join(root, "maps")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestNewStoreRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "f")
	_ = os.WriteFile(f, nil, 0o644)
	if _, err := NewStore(f); !errors.Is(err, ErrNotDir) {
		t.Fatalf("err = %v", err)
	}
}
