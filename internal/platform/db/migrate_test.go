package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, sql := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestParseMigrationName(t *testing.T) {
	cases := []struct {
		name    string
		version int
		ok      bool
	}{
		{"001_people.sql", 1, true},
		{"002_facility.sql", 2, true},
		{"010_soap_notes.sql", 10, true},
		{"readme.sql", 0, false},
		{"abc_notes.sql", 0, false},
		{"003_admissions.txt", 0, false},
		{"004.sql", 0, false},
	}
	for _, tc := range cases {
		v, ok := parseMigrationName(tc.name)
		if v != tc.version || ok != tc.ok {
			t.Errorf("parseMigrationName(%q) = (%d, %v), want (%d, %v)", tc.name, v, ok, tc.version, tc.ok)
		}
	}
}

func TestLoadMigrations_SortedByVersion(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"003_admissions.sql": "CREATE TABLE patient_admission (id UUID PRIMARY KEY);",
		"001_people.sql":     "CREATE TABLE patient (id UUID PRIMARY KEY);",
		"010_soap_notes.sql": "CREATE TABLE soap_note (id UUID PRIMARY KEY);",
		"002_facility.sql":   "CREATE TABLE ward (id UUID PRIMARY KEY);",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}

	wantVersions := []int{1, 2, 3, 10}
	if len(migrations) != len(wantVersions) {
		t.Fatalf("got %d migrations, want %d", len(migrations), len(wantVersions))
	}
	for i, want := range wantVersions {
		if migrations[i].Version != want {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, want)
		}
	}
	if migrations[0].Name != "001_people.sql" {
		t.Errorf("first migration = %s", migrations[0].Name)
	}
	if migrations[0].SQL != "CREATE TABLE patient (id UUID PRIMARY KEY);" {
		t.Errorf("unexpected SQL: %q", migrations[0].SQL)
	}
}

func TestLoadMigrations_SkipsUnversionedFiles(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"001_people.sql":   "SELECT 1;",
		"002_facility.sql": "SELECT 2;",
		"notes.txt":        "scratch",
		"seed.sql":         "-- no version prefix",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
}

func TestLoadMigrations_EmptyAndMissingDir(t *testing.T) {
	migrations, err := NewMigrator(nil, t.TempDir()).LoadMigrations()
	if err != nil {
		t.Fatalf("empty dir: %v", err)
	}
	if len(migrations) != 0 {
		t.Errorf("got %d migrations from empty dir", len(migrations))
	}

	if _, err := NewMigrator(nil, "/no/such/dir").LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}
