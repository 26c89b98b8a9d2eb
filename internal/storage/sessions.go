package storage

import "fmt"

// Session is the saved tab strip of one project.
type Session struct {
	Tabs   []string `json:"tabs"`
	Active string   `json:"active"`
}

// SaveSession replaces the stored tab strip for project. The project must
// have been touched first.
func (d *DB) SaveSession(project string, s Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tab_sessions WHERE project = ?`, project); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	for i, p := range s.Tabs {
		active := 0
		if p == s.Active {
			active = 1
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO tab_sessions (project, position, path, active) VALUES (?, ?, ?, ?)`,
			project, i, p, active,
		); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	return tx.Commit()
}

// LoadSession returns the stored tab strip for project (empty if none).
func (d *DB) LoadSession(project string) (Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var s Session
	rows, err := d.db.Query(
		`SELECT path, active FROM tab_sessions WHERE project = ? ORDER BY position`, project,
	)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		var active int
		if err := rows.Scan(&p, &active); err != nil {
			return s, err
		}
		s.Tabs = append(s.Tabs, p)
		if active == 1 {
			s.Active = p
		}
	}
	return s, rows.Err()
}
