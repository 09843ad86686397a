package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rel string
	}{
		"creates new directory":            {rel: "newdir"},
		"creates nested directories":       {rel: filepath.Join("a", "b", "c")},
		"idempotent on existing directory": {rel: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := filepath.Join(t.TempDir(), tc.rel)

			if err := EnsureDir(dir); err != nil {
				t.Fatalf("EnsureDir() error: %v", err)
			}
			if !DirExists(dir) {
				t.Errorf("%s is not a directory after EnsureDir", dir)
			}
		})
	}
}

func TestEnsureDirForFile(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "a", "b", "file.txt")
	if err := EnsureDirForFile(filePath); err != nil {
		t.Fatalf("EnsureDirForFile() error: %v", err)
	}
	if !DirExists(filepath.Dir(filePath)) {
		t.Error("expected parent to be directory")
	}
	if FileExists(filePath) {
		t.Error("EnsureDirForFile must not create the file itself")
	}
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := createTestFile(t, dir, "Raven.Server.dll", "x")

	tests := map[string]struct {
		path string
		want bool
	}{
		"regular file": {path: file, want: true},
		"directory":    {path: dir, want: false},
		"missing":      {path: filepath.Join(dir, "missing"), want: false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := FileExists(tc.path); got != tc.want {
				t.Errorf("FileExists(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestRemoveDir(t *testing.T) {
	t.Parallel()

	t.Run("removes tree", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "server")
		createTestFile(t, mustMkdir(t, filepath.Join(dir, "nested")), "f.txt", "x")

		if err := RemoveDir(dir); err != nil {
			t.Fatalf("RemoveDir() error: %v", err)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("stat after RemoveDir: %v, want not exist", err)
		}
	})

	t.Run("missing path is not an error", func(t *testing.T) {
		t.Parallel()
		if err := RemoveDir(filepath.Join(t.TempDir(), "missing")); err != nil {
			t.Fatalf("RemoveDir() error: %v", err)
		}
	})

	t.Run("refuses dangerous paths", func(t *testing.T) {
		t.Parallel()
		for _, p := range []string{"", "/", "."} {
			if err := RemoveDir(p); err == nil {
				t.Errorf("RemoveDir(%q) succeeded, want refusal", p)
			}
		}
	})
}

func mustMkdir(t *testing.T, dir string) string {
	t.Helper()
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return dir
}
