package storage

import (
	"fmt"
	"time"
)

// RecentProject is a row of recent_projects.
type RecentProject struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	OpenedAt time.Time `json:"opened_at"`
}

// TouchProject records that the project at path was just opened.
func (d *DB) TouchProject(path, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Upsert rather than REPLACE: a REPLACE delete would cascade into
	// tab_sessions. opened_at is kept strictly increasing so ordering is
	// stable even when the clock is coarse.
	_, err := d.db.Exec(`
		INSERT INTO recent_projects (path, name, opened_at)
		VALUES (?, ?, MAX(?, COALESCE((SELECT MAX(opened_at) FROM recent_projects), 0) + 1))
		ON CONFLICT(path) DO UPDATE SET name = excluded.name, opened_at = excluded.opened_at`,
		path, name, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	return nil
}

// RecentProjects returns up to limit projects, most recently opened first.
func (d *DB) RecentProjects(limit int) ([]RecentProject, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(
		`SELECT path, name, opened_at FROM recent_projects ORDER BY opened_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentProject
	for rows.Next() {
		var r RecentProject
		var ns int64
		if err := rows.Scan(&r.Path, &r.Name, &ns); err != nil {
			return nil, err
		}
		r.OpenedAt = time.Unix(0, ns)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ForgetProject removes a project and its tab session.
func (d *DB) ForgetProject(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.db.Exec(`DELETE FROM recent_projects WHERE path = ?`, path); err != nil {
		return fmt.Errorf("forget project: %w", err)
	}
	return nil
}

// PruneProjects keeps only the keep most recent projects.
func (d *DB) PruneProjects(keep int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(`
		DELETE FROM recent_projects WHERE path NOT IN (
			SELECT path FROM recent_projects ORDER BY opened_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune projects: %w", err)
	}
	return nil
}
