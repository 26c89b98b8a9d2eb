// Package tree builds bounded, sorted snapshots of a project directory.
package tree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

var ErrNotDir = errors.New("not a directory")

const (
	DefaultMaxDepth   = 4
	DefaultMaxEntries = 5000
)

// Options bounds a walk. Zero values fall back to the defaults.
type Options struct {
	MaxDepth   int
	MaxEntries int
	// HideExts lists file extensions (with dot, any case) left out of the tree.
	HideExts []string
}

// Node is one filesystem entry. ID is the canonical absolute path and is the
// key for expanded/open/dirty sets. A tree is never mutated after Load.
type Node struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Dir       bool    `json:"dir"`
	Ext       string  `json:"ext,omitempty"`
	Children  []*Node `json:"children,omitempty"`
	Truncated bool    `json:"truncated,omitempty"`
}

// Path returns the node's absolute path.
func (n *Node) Path() string { return n.ID }

type walker struct {
	opts  Options
	hide  map[string]bool
	fold  cases.Caser
	count int
}

// Load canonicalizes root and walks it. Hidden entries (leading '.') are
// skipped, directories deeper than MaxDepth are left unexpanded, and once
// MaxEntries entries have been admitted the remaining siblings are dropped
// and the folder is flagged Truncated. Unreadable directories come back with
// no children. Only a bad root is an error.
func Load(root string, opts Options) (*Node, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}

	canon, err := Canonical(root)
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

	w := &walker{opts: opts, fold: cases.Fold(), hide: map[string]bool{}}
	for _, e := range opts.HideExts {
		w.hide[strings.ToLower(e)] = true
	}

	n := &Node{ID: canon, Name: filepath.Base(canon), Dir: true}
	w.fill(n, 0)
	return n, nil
}

// Canonical resolves p to an absolute, symlink-free path.
func Canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func (w *walker) fill(dir *Node, depth int) {
	if depth >= w.opts.MaxDepth {
		return
	}
	if w.count >= w.opts.MaxEntries {
		dir.Truncated = true
		return
	}

	entries, err := os.ReadDir(dir.ID)
	if err != nil {
		return
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		isDir := e.IsDir()
		ext := strings.ToLower(filepath.Ext(name))
		if !isDir && w.hide[ext] {
			continue
		}
		if w.count >= w.opts.MaxEntries {
			dir.Truncated = true
			break
		}
		w.count++

		child := &Node{ID: filepath.Join(dir.ID, name), Name: name, Dir: isDir}
		if isDir {
			w.fill(child, depth+1)
		} else {
			child.Ext = ext
		}
		dir.Children = append(dir.Children, child)
	}

	w.sort(dir.Children)
}

// sort orders folders first, then by case-folded name, then by exact name.
func (w *walker) sort(nodes []*Node) {
	keys := make(map[*Node]string, len(nodes))
	for _, n := range nodes {
		keys[n] = w.fold.String(n.Name)
	}
	slices.SortFunc(nodes, func(a, b *Node) int {
		if a.Dir != b.Dir {
			if a.Dir {
				return -1
			}
			return 1
		}
		if c := strings.Compare(keys[a], keys[b]); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}
