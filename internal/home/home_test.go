package home

import (
	"path/filepath"
	"testing"
)

func TestNewWithPath(t *testing.T) {
	d, err := New("/tmp/mathengine-test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.Path() != "/tmp/mathengine-test" {
		t.Errorf("Path() = %s, want /tmp/mathengine-test", d.Path())
	}
	if d.ConfigPath() != "/tmp/mathengine-test/config.yaml" {
		t.Errorf("ConfigPath() = %s", d.ConfigPath())
	}
	if d.DBPath() != "/tmp/mathengine-test/mathengine.db" {
		t.Errorf("DBPath() = %s", d.DBPath())
	}
}

func TestNewDefault(t *testing.T) {
	d, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if filepath.Base(d.Path()) != DefaultDirName {
		t.Errorf("default path base = %s, want %s", filepath.Base(d.Path()), DefaultDirName)
	}
}

func TestEnsureExists(t *testing.T) {
	tmp := t.TempDir()
	d, err := New(filepath.Join(tmp, ".mathengine"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if d.Exists() {
		t.Fatal("home should not exist before EnsureExists")
	}
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}
	if !d.Exists() {
		t.Fatal("home should exist after EnsureExists")
	}
}

func TestOutputPaths(t *testing.T) {
	d, _ := New("/tmp/me")
	if got := d.OutputPath("abc"); got != "/tmp/me/outputs/abc.mp4" {
		t.Errorf("OutputPath() = %s", got)
	}
	if got := d.NarratedPath("abc"); got != "/tmp/me/outputs/abc_narrated.mp4" {
		t.Errorf("NarratedPath() = %s", got)
	}
	if got := d.IngestPagePath("doc1", 3); got != "/tmp/me/ingest/doc1/page_0003.md" {
		t.Errorf("IngestPagePath() = %s", got)
	}
}
