package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"b.jpg", "a.PNG", "notes.txt", ".hidden.jpg",
		"sub/c.webp", ".cache/d.jpg", "sub/deeper/e.jpeg",
	} {
		touch(t, filepath.Join(dir, name))
	}

	got, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("ListImageFiles failed: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "sub", "c.webp"),
		filepath.Join(dir, "sub", "deeper", "e.jpeg"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}

	if _, err := ListImageFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestIsImageFile(t *testing.T) {
	tests := map[string]bool{
		"a.jpg": true, "b.JPEG": true, "c.webp": true, "d.bmp": true,
		"e.tiff": false, "f": false, "g.txt": false,
	}
	for name, want := range tests {
		if got := IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	if got := GenerateOutputFilename("/in/photo.png", "/out", "", "_debug", ""); got != filepath.Join("/out", "photo_debug.png") {
		t.Errorf("Unexpected name %s", got)
	}
	if got := GenerateOutputFilename("photo", "out", "x_", "", "webp"); got != filepath.Join("out", "x_photo.webp") {
		t.Errorf("Unexpected name %s", got)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.jpg")
	touch(t, file)

	if !FileExists(file) || FileExists(dir) || FileExists(filepath.Join(dir, "nope")) {
		t.Error("FileExists misreported")
	}
	if !DirExists(dir) || DirExists(file) {
		t.Error("DirExists misreported")
	}

	nested := filepath.Join(dir, "a", "b")
	if err := EnsureDir(nested); err != nil || !DirExists(nested) {
		t.Errorf("EnsureDir failed: %v", err)
	}
}
