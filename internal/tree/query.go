package tree

import (
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Walk visits n and its descendants depth-first in display order. Returning
// false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Find returns the node with the given id, or nil.
func Find(root *Node, id string) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return n.Dir && strings.HasPrefix(id, dirPrefix(n.ID))
	})
	return found
}

func dirPrefix(id string) string {
	if strings.HasSuffix(id, string(filepath.Separator)) {
		return id
	}
	return id + string(filepath.Separator)
}

// Files lists file nodes, optionally restricted to extensions (with dot,
// any case).
func Files(root *Node, exts ...string) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if n.Dir {
			return true
		}
		if len(exts) == 0 {
			out = append(out, n)
			return true
		}
		for _, e := range exts {
			if strings.EqualFold(n.Ext, e) {
				out = append(out, n)
				break
			}
		}
		return true
	})
	return out
}

// Hit is one quick-open result.
type Hit struct {
	ID    string `json:"id"`
	Rel   string `json:"rel"`
	Score int    `json:"score"`
}

// Search fuzzy-matches query against root-relative, slash-separated file
// paths, best match first. An empty query lists files in tree order.
func Search(root *Node, query string, limit int, exts ...string) []Hit {
	files := Files(root, exts...)
	if root == nil || len(files) == 0 {
		return nil
	}

	rels := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(root.ID, f.ID)
		if err != nil {
			rel = f.Name
		}
		rels[i] = filepath.ToSlash(rel)
	}

	var hits []Hit
	if strings.TrimSpace(query) == "" {
		for i := range files {
			hits = append(hits, Hit{ID: files[i].ID, Rel: rels[i]})
		}
	} else {
		for _, m := range fuzzy.Find(query, rels) {
			hits = append(hits, Hit{ID: files[m.Index].ID, Rel: m.Str, Score: m.Score})
		}
	}

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
