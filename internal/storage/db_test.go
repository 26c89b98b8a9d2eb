package storage

import (
	"path/filepath"
	"testing"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecentProjectsOrder(t *testing.T) {
	db := openTest(t)
	for _, p := range []string{"/p/a", "/p/b", "/p/c"} {
		if err := db.TouchProject(p, filepath.Base(p)); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.TouchProject("/p/a", "a"); err != nil {
		t.Fatal(err)
	}

	got, err := db.RecentProjects(10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/p/a", "/p/c", "/p/b"}
	if len(got) != len(want) {
		t.Fatalf("recent = %+v", got)
	}
	for i := range want {
		if got[i].Path != want[i] {
			t.Fatalf("recent[%d] = %s, want %s", i, got[i].Path, want[i])
		}
	}

	if err := db.PruneProjects(2); err != nil {
		t.Fatal(err)
	}
	got, _ = db.RecentProjects(10)
	if len(got) != 2 || got[1].Path != "/p/c" {
		t.Fatalf("after prune = %+v", got)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	db := openTest(t)
	if err := db.TouchProject("/p/a", "a"); err != nil {
		t.Fatal(err)
	}

	s := Session{Tabs: []string{"/p/a/maps/x.mpr", "/p/a/maps/y.mpr"}, Active: "/p/a/maps/y.mpr"}
	if err := db.SaveSession("/p/a", s); err != nil {
		t.Fatal(err)
	}

	// touching again must not drop the session
	if err := db.TouchProject("/p/a", "a"); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadSession("/p/a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tabs) != 2 || got.Tabs[0] != s.Tabs[0] || got.Active != s.Active {
		t.Fatalf("session = %+v", got)
	}

	if err := db.SaveSession("/p/a", Session{}); err != nil {
		t.Fatal(err)
	}
	got, _ = db.LoadSession("/p/a")
	if len(got.Tabs) != 0 || got.Active != "" {
		t.Fatalf("cleared session = %+v", got)
	}
}

func TestForgetCascades(t *testing.T) {
	db := openTest(t)
	_ = db.TouchProject("/p/a", "a")
	if err := db.SaveSession("/p/a", Session{Tabs: []string{"/p/a/m.mpr"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.ForgetProject("/p/a"); err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadSession("/p/a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tabs) != 0 {
		t.Fatalf("session survived: %+v", got)
	}
}

func TestSessionRequiresProject(t *testing.T) {
	db := openTest(t)
	if err := db.SaveSession("/never/touched", Session{Tabs: []string{"x"}}); err == nil {
		t.Fatal("expected foreign key failure")
	}
}

func TestMeta(t *testing.T) {
	db := openTest(t)
	if v, err := db.Meta("schema"); err != nil || v != "" {
		t.Fatalf("unset meta = %q, %v", v, err)
	}
	if err := db.SetMeta("schema", "1"); err != nil {
		t.Fatal(err)
	}
	if v, _ := db.Meta("schema"); v != "1" {
		t.Fatalf("meta = %q", v)
	}
}
