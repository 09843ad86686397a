package fxversion

import (
	"cmp"
	"slices"
	"strings"

	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// ErrNoMatchingRuntime is returned by Match when no installed runtime
// satisfies the specification.
const ErrNoMatchingRuntime = sentinel.Error("no matching runtime")

// NeedsMatch reports whether spec must be resolved against the installed
// runtimes, i.e. whether it contains a wildcard or an at-least marker.
// Any other specification is passed to the runtime host verbatim.
func NeedsMatch(spec string) bool {
	if spec == "" {
		return false
	}
	lowered := strings.ToLower(spec)
	return strings.Contains(lowered, Wildcard) || strings.Contains(lowered, AtLeastMarker)
}

// Match returns the highest installed version that spec matches. Candidates
// are ordered by (major, minor, patch) descending; candidates that compare
// equal keep their input order. The returned error wraps ErrNoMatchingRuntime
// and lists every candidate.
func Match(spec Version, installed []Version) (Version, error) {
	sorted := slices.Clone(installed)
	slices.SortStableFunc(sorted, func(a, b Version) int {
		return cmp.Or(
			cmp.Compare(b.Major, a.Major),
			cmp.Compare(b.Minor, a.Minor),
			cmp.Compare(b.Patch, a.Patch),
		)
	})

	for _, candidate := range sorted {
		if spec.Match(candidate) {
			return candidate, nil
		}
	}

	available := make([]string, len(sorted))
	for i, v := range sorted {
		available[i] = v.String()
	}
	return Version{}, ErrNoMatchingRuntime.Errorf(
		"could not find a matching runtime for '%s'. Available runtimes:\n- %s",
		spec, strings.Join(available, "\n- "))
}
