// Package content performs filesystem mutations confined to one project root.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/petervdpas/isoedit/internal/util"
)

var (
	ErrOutsideRoot = errors.New("path outside project root")
	ErrNotFound    = errors.New("not found")
	ErrNotDir      = errors.New("not a directory")
	ErrExists      = errors.New("already exists")
	ErrInvalidName = errors.New("invalid name")
	ErrProtected   = errors.New("project root cannot be renamed or deleted")
)

// maxProbe bounds unique-name probing.
const maxProbe = 10000

// Store is rooted at a canonical project directory. Every method validates
// containment before touching the filesystem.
type Store struct {
	root string
}

// NewStore canonicalizes root, which must be an existing directory.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(canon)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s: %w", canon, ErrNotDir)
	}
	return &Store{root: canon}, nil
}

func (s *Store) Root() string { return s.root }

// Contains reports whether p (cleaned, made absolute) lies under the root.
func (s *Store) Contains(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	return util.Within(s.root, abs)
}

// Resolve returns the clean absolute form of p, or ErrOutsideRoot. The
// nearest existing ancestor must also resolve under the root, so symlinked
// directories cannot be used to escape it.
func (s *Store) Resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if !util.Within(s.root, abs) {
		return "", fmt.Errorf("%s: %w", abs, ErrOutsideRoot)
	}
	if abs == s.root {
		return abs, nil
	}

	for dir := filepath.Dir(abs); util.Within(s.root, dir); dir = filepath.Dir(dir) {
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", err
		}
		if !util.Within(s.root, real) {
			return "", fmt.Errorf("%s: %w", abs, ErrOutsideRoot)
		}
		break
	}
	return abs, nil
}

// Rel returns p relative to the root with forward slashes, or "" if p is
// not under it.
func (s *Store) Rel(p string) string {
	rel, err := filepath.Rel(s.root, p)
	if err != nil || !util.Within(s.root, p) {
		return ""
	}
	return filepath.ToSlash(rel)
}

// Lstat is os.Lstat with ErrNotFound for missing entries.
func (s *Store) Lstat(p string) (fs.FileInfo, error) {
	st, err := os.Lstat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, err
	}
	return st, nil
}

// Dir resolves p and checks that it is an existing directory.
func (s *Store) Dir(p string) (string, error) {
	abs, err := s.Resolve(p)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", abs, ErrNotFound)
		}
		return "", err
	}
	if !st.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrNotDir)
	}
	return abs, nil
}

// UniqueFile probes base+ext, base-1+ext, base-2+ext ... in dir against the
// real filesystem and returns the first free path.
func (s *Store) UniqueFile(dir, base, ext string) (string, error) {
	return probe(dir, func(i int) string {
		if i == 0 {
			return base + ext
		}
		return base + "-" + strconv.Itoa(i) + ext
	})
}

// UniqueDir probes base, "base 1", "base 2" ... in dir.
func (s *Store) UniqueDir(dir, base string) (string, error) {
	return probe(dir, func(i int) string {
		if i == 0 {
			return base
		}
		return base + " " + strconv.Itoa(i)
	})
}

func probe(dir string, name func(int) string) (string, error) {
	for i := 0; i < maxProbe; i++ {
		p := filepath.Join(dir, name(i))
		if !util.Exists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s: no free name after %d attempts: %w", dir, maxProbe, ErrExists)
}

// Mkdir creates a single directory that must not exist yet.
func (s *Store) Mkdir(p string) error {
	abs, err := s.Resolve(p)
	if err != nil {
		return err
	}
	if err := os.Mkdir(abs, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", abs, ErrExists)
		}
		return err
	}
	return nil
}

// RenameTarget validates renaming p to newName within its parent and returns
// the source, the destination and the source info. No filesystem change is
// made. dst == src means there is nothing to do.
func (s *Store) RenameTarget(p, newName string) (src, dst string, info fs.FileInfo, err error) {
	src, err = s.Resolve(p)
	if err != nil {
		return "", "", nil, err
	}
	if src == s.root {
		return "", "", nil, ErrProtected
	}
	info, err = s.Lstat(src)
	if err != nil {
		return "", "", nil, err
	}
	name, err := util.ValidateEntryName(newName)
	if err != nil {
		return "", "", nil, fmt.Errorf("%q: %w: %v", newName, ErrInvalidName, err)
	}

	dst = filepath.Join(filepath.Dir(src), name)
	if dst == src {
		return src, dst, info, nil
	}
	if !util.Within(s.root, dst) {
		return "", "", nil, fmt.Errorf("%s: %w", dst, ErrOutsideRoot)
	}
	if existing, err := os.Lstat(dst); err == nil {
		// a case-only rename on a case-insensitive filesystem sees itself
		if !os.SameFile(existing, info) {
			return "", "", nil, fmt.Errorf("%s: %w", dst, ErrExists)
		}
	}
	return src, dst, info, nil
}

// Rename moves src to dst. Both must have been validated by RenameTarget.
func (s *Store) Rename(src, dst string) error {
	return os.Rename(src, dst)
}

// Delete removes a file, or a directory recursively. The root itself is
// protected.
func (s *Store) Delete(p string) (fs.FileInfo, error) {
	abs, err := s.Resolve(p)
	if err != nil {
		return nil, err
	}
	if abs == s.root {
		return nil, ErrProtected
	}
	st, err := s.Lstat(abs)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return st, os.RemoveAll(abs)
	}
	return st, os.Remove(abs)
}
