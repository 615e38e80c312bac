package migrate

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"condopapers/internal/db"
)

func TestMigrateIdempotent(t *testing.T) {
	conn, err := db.Open(db.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := Migrate(conn); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	version, err := Version(context.Background(), conn)
	if err != nil {
		t.Fatalf("read version: %v", err)
	}
	migrations, err := Load(schemaFS, "sql")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := migrations[len(migrations)-1].Version; version != want {
		t.Fatalf("expected version %d, got %d", want, version)
	}
	for _, table := range []string{"compliance_items", "contracts", "work_requests", "checklist_tasks", "round_points", "events"} {
		var n int
		if err := conn.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n); err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if n != 1 {
			t.Fatalf("expected table %s", table)
		}
	}
}

func TestMigrateFSAppliesOnlyNewVersions(t *testing.T) {
	conn, err := db.Open(db.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	ctx := context.Background()

	fsys := fstest.MapFS{
		"m/0001_notes.sql": {Data: []byte(`CREATE TABLE notes(id TEXT PRIMARY KEY);`)},
		"m/README.md":      {Data: []byte("ignored")},
	}
	applied, err := MigrateFS(ctx, conn, fsys, "m")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !reflect.DeepEqual(applied, []int{1}) {
		t.Fatalf("expected [1], got %v", applied)
	}

	fsys["m/0002_tags.sql"] = &fstest.MapFile{Data: []byte(`CREATE TABLE tags(name TEXT);`)}
	applied, err = MigrateFS(ctx, conn, fsys, "m")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(applied, []int{2}) {
		t.Fatalf("expected [2], got %v", applied)
	}
	if v, _ := Version(ctx, conn); v != 2 {
		t.Fatalf("expected version 2, got %d", v)
	}
	if _, err := conn.Exec(`INSERT INTO tags(name) VALUES ('x')`); err != nil {
		t.Fatalf("tags table missing: %v", err)
	}
}

func TestApplyRollsBackFailedStep(t *testing.T) {
	conn, err := db.Open(db.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	ctx := context.Background()

	_, err = Apply(ctx, conn, []Migration{
		{Version: 1, Name: "0001_ok.sql", UpSQL: `CREATE TABLE ok(id INTEGER);`},
		{Version: 2, Name: "0002_bad.sql", UpSQL: `CREATE TABL broken;`},
	})
	if err == nil || !strings.Contains(err.Error(), "0002_bad.sql") {
		t.Fatalf("expected failure naming the bad step, got %v", err)
	}
	if v, err := Version(ctx, conn); err != nil || v != 0 {
		t.Fatalf("expected untouched version 0, got %d (%v)", v, err)
	}
	var n int
	_ = conn.QueryRow(`SELECT count(*) FROM sqlite_master WHERE name='ok'`).Scan(&n)
	if n != 0 {
		t.Fatal("first step survived a failed run")
	}
}

func TestLoadRejectsBadNames(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"no prefix": {"m/init.sql": {Data: []byte("SELECT 1;")}},
		"duplicate": {
			"m/0001_a.sql": {Data: []byte("SELECT 1;")},
			"m/0001_b.sql": {Data: []byte("SELECT 1;")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(fsys, "m"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
