package fxversion

import (
	"strconv"
	"strings"

	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// ErrInvalidVersion is returned when a version specification cannot be parsed
// or combines markers that are not allowed together.
const ErrInvalidVersion = sentinel.Error("invalid runtime version")

const (
	// Wildcard matches any value of the component it replaces.
	Wildcard = "x"
	// AtLeastMarker, appended to the patch component, matches any patch
	// greater than or equal to the given one.
	AtLeastMarker = "+"

	// Any is the component value of a wildcard or absent component.
	Any = -1

	componentSeparator = "."
	suffixSeparator    = "-"
)

// MatchingType selects how the patch component of a specification is
// compared against a candidate.
type MatchingType int

const (
	// MatchEqual requires the candidate patch to equal the specification patch.
	MatchEqual MatchingType = iota
	// MatchAtLeast requires the candidate patch to be >= the specification patch.
	MatchAtLeast
)

// String returns the marker that renders the matching type in a version
// string: empty for MatchEqual, "+" for MatchAtLeast.
func (m MatchingType) String() string {
	if m == MatchAtLeast {
		return AtLeastMarker
	}
	return ""
}

// Version is a parsed runtime version or version specification.
// Components equal to Any are wildcards.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	PatchMatch MatchingType
	Suffix     string
}

// Parse parses a version or version specification. Parsing is
// case-insensitive. Components that are omitted ("3.1") are wildcards.
//
// Parse rejects the at-least marker on the major or minor component, the
// at-least marker combined with a suffix, wildcards mixed with other
// characters, and more than three components. All such errors wrap
// ErrInvalidVersion.
func Parse(s string) (Version, error) {
	v := Version{Major: Any, Minor: Any, Patch: Any}

	lowered := strings.ToLower(strings.TrimSpace(s))

	var parts []string
	for _, p := range strings.Split(lowered, suffixSeparator) {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return Version{}, ErrInvalidVersion.Errorf("version must not be empty")
	}
	if len(parts) > 1 {
		v.Suffix = strings.Join(parts[1:], suffixSeparator)
	}

	var components []string
	for _, c := range strings.Split(parts[0], componentSeparator) {
		if c = strings.TrimSpace(c); c != "" {
			components = append(components, c)
		}
	}
	if len(components) == 0 {
		return Version{}, ErrInvalidVersion.Errorf("version '%s' has no numeric components", s)
	}
	if len(components) > 3 {
		return Version{}, ErrInvalidVersion.Errorf("version '%s' has more than three components", s)
	}

	for i, c := range components {
		if !strings.Contains(c, Wildcard) {
			n, mt, err := parseComponent(c)
			if err != nil {
				return Version{}, err
			}
			if err := v.set(i, c, n, mt); err != nil {
				return Version{}, err
			}
			continue
		}

		if c != Wildcard {
			return Version{}, ErrInvalidVersion.Errorf(
				"wildcard character must be a sole part of the version string, but was '%s'", c)
		}
		if err := v.set(i, c, Any, MatchEqual); err != nil {
			return Version{}, err
		}
	}

	return v, nil
}

// MustParse is like Parse but panics on error. It is intended for
// constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// parseComponent parses an integer component with an optional trailing
// at-least marker.
func parseComponent(c string) (int, MatchingType, error) {
	mt := MatchEqual
	digits := c
	if strings.HasSuffix(digits, AtLeastMarker) {
		mt = MatchAtLeast
		digits = strings.TrimSuffix(digits, AtLeastMarker)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, mt, ErrInvalidVersion.Errorf("component '%s' is not a non-negative integer", c)
	}
	return n, mt, nil
}

// set stores component i, rejecting matching types the position does not allow.
func (v *Version) set(i int, raw string, n int, mt MatchingType) error {
	var field string
	switch i {
	case 0:
		field = "major"
	case 1:
		field = "minor"
	default:
		field = "patch"
	}

	if v.Suffix != "" && mt != MatchEqual {
		return ErrInvalidVersion.Errorf(
			"cannot set '%s' with value '%s' because '%s' is not allowed when suffix ('%s') is set",
			field, raw, mt, v.Suffix)
	}
	if i < 2 && mt != MatchEqual {
		return ErrInvalidVersion.Errorf(
			"cannot set '%s' with value '%s' because '%s' is not allowed", field, raw, mt)
	}

	switch i {
	case 0:
		v.Major = n
	case 1:
		v.Minor = n
	default:
		v.Patch = n
		v.PatchMatch = mt
	}
	return nil
}

// String renders v so that Parse(v.String()) yields an equivalent value.
// Wildcards render as "x", an at-least patch carries a trailing "+" and a
// suffix is appended after "-".
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(componentString(v.Major, MatchEqual))
	b.WriteString(componentSeparator)
	b.WriteString(componentString(v.Minor, MatchEqual))
	b.WriteString(componentSeparator)
	b.WriteString(componentString(v.Patch, v.PatchMatch))
	if v.Suffix != "" {
		b.WriteString(suffixSeparator)
		b.WriteString(v.Suffix)
	}
	return b.String()
}

func componentString(n int, mt MatchingType) string {
	if n == Any {
		return Wildcard
	}
	return strconv.Itoa(n) + mt.String()
}

// Match reports whether candidate satisfies v when v is used as a
// specification. Suffixes must be equal; there is no partial suffix matching.
func (v Version) Match(candidate Version) bool {
	if v.Major != Any && v.Major != candidate.Major {
		return false
	}
	if v.Minor != Any && v.Minor != candidate.Minor {
		return false
	}
	if v.Patch != Any {
		switch v.PatchMatch {
		case MatchEqual:
			if v.Patch != candidate.Patch {
				return false
			}
		case MatchAtLeast:
			if v.Patch > candidate.Patch {
				return false
			}
		}
	}
	return v.Suffix == candidate.Suffix
}
