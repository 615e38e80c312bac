package db

import (
	"testing"
)

func TestOpenIsolatedByName(t *testing.T) {
	a, err := Open(Config{})
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	b, err := Open(Config{})
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	defer b.Close()
	if _, err := a.Exec(`CREATE TABLE t(x INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	var n int
	if err := b.QueryRow(`SELECT count(*) FROM sqlite_master WHERE name='t'`).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected databases to be isolated, table visible in b")
	}
}

func TestForeignKeysOn(t *testing.T) {
	conn, err := Open(Config{Name: t.Name()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	var on int
	if err := conn.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if on != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", on)
	}
}
