package inventory

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func names(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestScanFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Banana.JPG"))
	touch(t, filepath.Join(dir, "apple.png"))
	touch(t, filepath.Join(dir, "cherry.txt"))
	touch(t, filepath.Join(dir, "date.gif"))

	entries, err := Scan(dir, false)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := []string{"apple.png", "Banana.JPG", "date.gif"}
	if !reflect.DeepEqual(names(entries), want) {
		t.Fatalf("got %v, want %v", names(entries), want)
	}
	if entries[1].Ext != ".jpg" {
		t.Fatalf("extension not lower-cased: %q", entries[1].Ext)
	}
	if !filepath.IsAbs(entries[0].Path) {
		t.Fatalf("paths must be absolute, got %q", entries[0].Path)
	}
}

func TestScanNonRecursiveSkipsSubdirs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "top.jpg"))
	touch(t, filepath.Join(dir, "nested", "deep.jpg"))

	entries, err := Scan(dir, false)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "top.jpg" {
		t.Fatalf("non-recursive scan leaked into subdirs: %v", names(entries))
	}

	entries, err = Scan(dir, true)
	if err != nil {
		t.Fatalf("recursive scan: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("recursive scan missed files: %v", names(entries))
	}
}

func TestScanSameNameOrderedByPath(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b", "photo.png"))
	touch(t, filepath.Join(dir, "a", "photo.png"))

	entries, err := Scan(dir, true)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %v", names(entries))
	}
	if !(entries[0].Path < entries[1].Path) {
		t.Fatalf("tie-break by path violated: %q before %q", entries[0].Path, entries[1].Path)
	}
}

func TestScanIdempotent(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "B.jpg"))
	touch(t, filepath.Join(dir, "sub", "c.tif"))

	first, err := Scan(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Scan(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("scan not idempotent:\n%v\n%v", first, second)
	}
}

func TestScanMissingDir(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "gone"), false); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
