package zip

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestArchiveDirectory(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "previews"), 0o755); err != nil {
		t.Fatalf("MkdirAll returned error: %v", err)
	}
	files := map[string]string{
		"map.i3d":              "scene",
		"previews/terrain.png": "png-bytes",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(src, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) returned error: %v", name, err)
		}
	}

	dest := filepath.Join(t.TempDir(), "archives", "session.zip")
	if err := ArchiveDirectory(src, dest); err != nil {
		t.Fatalf("ArchiveDirectory returned error: %v", err)
	}

	reader, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("OpenReader returned error: %v", err)
	}
	defer reader.Close()

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	want := []string{"map.i3d", "previews/terrain.png"}
	if len(names) != len(want) {
		t.Fatalf("archive entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("archive entries = %v, want %v", names, want)
		}
	}
}

func TestArchiveDirectoryMissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.zip")
	if err := ArchiveDirectory(filepath.Join(t.TempDir(), "missing"), dest); err == nil {
		t.Fatal("expected error for missing source directory")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("partial archive left behind")
	}
}
