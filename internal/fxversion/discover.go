package fxversion

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// ErrRuntimeDiscovery is returned when the installed runtimes cannot be
// listed, either because the runtime host could not be executed or because
// its output was malformed.
const ErrRuntimeDiscovery = sentinel.Error("runtime discovery failed")

const (
	runtimesHeader       = ".NET runtimes installed:"
	legacyRuntimesHeader = ".NET Core runtimes installed:"
	runtimeFamily        = "Microsoft.NETCore.App"
)

// ParseInfo extracts the installed runtime versions from the output of
// "dotnet --info". Only lines after the runtimes section header that start
// with the Microsoft.NETCore.App family are considered; the second
// whitespace-separated token of each is the version.
func ParseInfo(r io.Reader) ([]Version, error) {
	var versions []Version

	sc := bufio.NewScanner(r)
	inside := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, runtimesHeader) || strings.HasPrefix(line, legacyRuntimesHeader) {
			inside = true
			continue
		}
		if !inside || !strings.HasPrefix(line, runtimeFamily) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, ErrRuntimeDiscovery.Errorf(
				"invalid runtime line, expected '%s x.x.x' but was '%s'", runtimeFamily, line)
		}
		v, err := Parse(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: parse runtime line '%s': %w", ErrRuntimeDiscovery, line, err)
		}
		versions = append(versions, v)
	}
	if err := sc.Err(); err != nil {
		return nil, ErrRuntimeDiscovery.Errorf("read runtime host output: %w", err)
	}
	return versions, nil
}

// Discover runs "<dotnetPath> --info" and returns the installed runtimes.
func Discover(ctx context.Context, dotnetPath string) ([]Version, error) {
	if dotnetPath == "" {
		return nil, ErrRuntimeDiscovery.Errorf("dotnet path must not be empty")
	}

	cmd := exec.CommandContext(ctx, dotnetPath, "--info")
	out, err := cmd.Output()
	if err != nil {
		return nil, ErrRuntimeDiscovery.Errorf(
			"unable to execute %s to retrieve list of installed runtimes: %w", dotnetPath, err)
	}
	return ParseInfo(bytes.NewReader(out))
}

// Resolve returns the runtime version to pass to the runtime host for spec.
// Specifications without wildcards or at-least markers are returned
// unchanged without invoking the host.
func Resolve(ctx context.Context, dotnetPath, spec string) (string, error) {
	if !NeedsMatch(spec) {
		return spec, nil
	}

	want, err := Parse(spec)
	if err != nil {
		return "", err
	}

	installed, err := Discover(ctx, dotnetPath)
	if err != nil {
		return "", err
	}

	got, err := Match(want, installed)
	if err != nil {
		return "", err
	}
	return got.String(), nil
}
