package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giantswarm/ravenembed/internal/fileutil"
	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// ErrInvalidServerLocation is returned by External when the location is
// neither a zip file nor a directory holding the server.
const ErrInvalidServerLocation = sentinel.Error("invalid server location")

// serverMarkers identify a directory that holds an unpacked server.
var serverMarkers = []string{"Raven.Server.exe", "Raven.Server.dll"}

// Provider materializes server files into targetDir.
type Provider interface {
	Provide(ctx context.Context, targetDir string) error
}

// Func adapts a function to the Provider interface.
type Func func(ctx context.Context, targetDir string) error

// Provide calls f.
func (f Func) Provide(ctx context.Context, targetDir string) error {
	return f(ctx, targetDir)
}

// Copy copies an unpacked server distribution from Dir.
type Copy struct {
	Dir string
}

// Provide copies Dir into targetDir.
func (c Copy) Provide(ctx context.Context, targetDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fileutil.CopyDir(c.Dir, targetDir); err != nil {
		return fmt.Errorf("copy server files from %s: %w", c.Dir, err)
	}
	return nil
}

// External inspects location and returns a Zip provider for a file or a
// Copy provider for a directory that contains the server. Anything else is
// a configuration error, reported here rather than at start time.
func External(location string) (Provider, error) {
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, ErrInvalidServerLocation.Errorf("resolve %s: %w", location, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, ErrInvalidServerLocation.Errorf("server location doesn't exist: %s", location)
	}

	if info.Mode().IsRegular() {
		return Zip{Path: abs}, nil
	}
	if info.IsDir() {
		for _, marker := range serverMarkers {
			if fileutil.FileExists(filepath.Join(abs, marker)) {
				return Copy{Dir: abs}, nil
			}
		}
	}

	return nil, ErrInvalidServerLocation.Errorf(
		"unable to find RavenDB server (expected directory with %s) or zip file, used location %s",
		serverMarkers[1], location)
}
