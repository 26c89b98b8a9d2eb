package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/petervdpas/isoedit/internal/util"
)

// BeginRename opens an inline rename for p, seeded with name (or the base
// name when empty). It replaces any session in progress.
func (m *Model) BeginRename(p, name string) error {
	if err := m.requireProject(); err != nil {
		return err
	}
	if !util.Within(m.state.RootPath, p) {
		return fmt.Errorf("%s: %w", p, ErrOutsideRoot)
	}
	if name == "" {
		name = filepath.Base(p)
	}
	m.layout.Rename = &RenameSession{
		ID:           m.newID(),
		TargetPath:   p,
		OriginalName: name,
		Buffer:       name,
	}
	return nil
}

func (m *Model) EditRename(buffer string) {
	if m.layout.Rename != nil {
		m.layout.Rename.Buffer = buffer
	}
}

// CommitRename ends the session. A trimmed, non-empty buffer that differs
// from the original name queues a Rename; anything else just cancels.
func (m *Model) CommitRename() {
	rs := m.layout.Rename
	m.layout.Rename = nil
	if rs == nil {
		return
	}
	name := strings.TrimSpace(rs.Buffer)
	if name == "" || name == rs.OriginalName {
		return
	}
	m.emit(Rename{From: rs.TargetPath, NewName: name})
}

// CancelRename discards the session (escape or focus loss).
func (m *Model) CancelRename() {
	m.layout.Rename = nil
}
