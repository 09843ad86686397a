package provider

import (
	"archive/zip"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/giantswarm/ravenembed/internal/fileutil"
	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// ErrUnsafeArchivePath is returned when an archive entry would be written
// outside the target directory.
const ErrUnsafeArchivePath = sentinel.Error("archive entry escapes target directory")

// Zip extracts the server from the zip archive at Path.
type Zip struct {
	Path string
}

// Provide extracts the archive into targetDir, creating it if needed.
func (z Zip) Provide(ctx context.Context, targetDir string) error {
	r, err := zip.OpenReader(z.Path)
	if err != nil {
		return fmt.Errorf("open server archive %s: %w", z.Path, err)
	}
	defer func() { _ = r.Close() }()

	if err := Extract(ctx, &r.Reader, targetDir); err != nil {
		return fmt.Errorf("extract %s: %w", z.Path, err)
	}
	return nil
}

// Extract writes every entry of zr below targetDir, keeping the entries'
// permission bits. ctx is checked between entries.
func Extract(ctx context.Context, zr *zip.Reader, targetDir string) error {
	if err := fileutil.EnsureDir(targetDir); err != nil {
		return err
	}
	root := filepath.Clean(targetDir)

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := entryPath(root, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := fileutil.EnsureDir(target); err != nil {
				return err
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := fileutil.EnsureDirForFile(target); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	if err := fileutil.WriteFileAtomic(target, rc, mode); err != nil {
		return fmt.Errorf("write entry %s: %w", f.Name, err)
	}
	return nil
}

// entryPath maps an archive entry name to a path under root, rejecting
// absolute names and names that climb out of root.
func entryPath(root, name string) (string, error) {
	clean := filepath.FromSlash(name)
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", ErrUnsafeArchivePath.Errorf("%s", name)
	}
	target := filepath.Join(root, clean)
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", ErrUnsafeArchivePath.Errorf("%s", name)
	}
	return target, nil
}
