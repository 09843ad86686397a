package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("create test file: %v", err)
	}
	return path
}

func readDst(t *testing.T, path string) string {
	t.Helper()
	got, err := os.ReadFile(path) //nolint:gosec // G304: path is test-controlled
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	return string(got)
}

func TestCopyFile_EmptyPaths(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		src, dst string
		want     error
	}{
		"empty source":      {src: "", dst: "dst", want: ErrEmptySrc},
		"empty destination": {src: "src", dst: "", want: ErrEmptyDst},
		"both empty":        {src: "", dst: "", want: ErrEmptySrc},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if err := CopyFile(tc.src, tc.dst, 0o644); !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCopyFile_CopiesContentAndCreatesParents(t *testing.T) {
	t.Parallel()

	src := createTestFile(t, t.TempDir(), "settings.json", `{"Setup.Mode":"None"}`)
	dst := filepath.Join(t.TempDir(), "a", "b", "settings.json")

	if err := CopyFile(src, dst, 0o644); err != nil {
		t.Fatalf("CopyFile() error: %v", err)
	}
	if got := readDst(t, dst); got != `{"Setup.Mode":"None"}` {
		t.Errorf("content = %q", got)
	}
}

func TestCopyFile_Mode(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}

	src := createTestFile(t, t.TempDir(), "Raven.Server", "#!/bin/sh\n")
	dst := filepath.Join(t.TempDir(), "Raven.Server")

	if err := CopyFile(src, dst, 0o755); err != nil {
		t.Fatalf("CopyFile() error: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
}

func TestCopyFile_OverwritesExistingWithoutTempLeftovers(t *testing.T) {
	t.Parallel()

	src := createTestFile(t, t.TempDir(), "src.txt", "new")
	dstDir := t.TempDir()
	dst := createTestFile(t, dstDir, "dst.txt", "old content that is longer")

	if err := CopyFile(src, dst, 0o644); err != nil {
		t.Fatalf("CopyFile() error: %v", err)
	}
	if got := readDst(t, dst); got != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}

	entries, err := os.ReadDir(dstDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-copy-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestCopyFile_SourceNotFound(t *testing.T) {
	t.Parallel()

	dstDir := t.TempDir()
	err := CopyFile(filepath.Join(t.TempDir(), "missing"), filepath.Join(dstDir, "dst"), 0o644)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if FileExists(filepath.Join(dstDir, "dst")) {
		t.Error("destination created despite missing source")
	}
}

func TestCopyDir(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	createTestFile(t, src, "Raven.Server.dll", "server")
	createTestFile(t, mustMkdir(t, filepath.Join(src, "Server", "runtimes")), "native.so", "native")
	mustMkdir(t, filepath.Join(src, "empty"))

	dst := filepath.Join(t.TempDir(), "target")
	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir() error: %v", err)
	}

	if got := readDst(t, filepath.Join(dst, "Raven.Server.dll")); got != "server" {
		t.Errorf("top-level file = %q", got)
	}
	if got := readDst(t, filepath.Join(dst, "Server", "runtimes", "native.so")); got != "native" {
		t.Errorf("nested file = %q", got)
	}
	if !DirExists(filepath.Join(dst, "empty")) {
		t.Error("empty directory not copied")
	}
}

func TestCopyDir_Errors(t *testing.T) {
	t.Parallel()

	file := createTestFile(t, t.TempDir(), "server.zip", "zip")

	tests := map[string]struct {
		src, dst string
		want     error
	}{
		"empty source":      {src: "", dst: "x", want: ErrEmptySrc},
		"empty destination": {src: "x", dst: "", want: ErrEmptyDst},
		"source is a file":  {src: file, dst: t.TempDir(), want: ErrNotDir},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if err := CopyDir(tc.src, tc.dst); !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}
