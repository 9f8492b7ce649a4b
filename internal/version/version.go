package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a strict major.minor.patch release number.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Default is used when release tooling hands us an unparsable version string.
var Default = Version{Major: 0, Minor: 1, Patch: 0}

// Parse reads a strict "major.minor.patch" string. Anything else falls back
// to the default 0.1.0 rather than failing the caller.
func Parse(s string) Version {
	v, err := parseStrict(s)
	if err != nil {
		return Default
	}
	return v
}

func parseStrict(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version %q: want major.minor.patch", s)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || (len(part) > 1 && part[0] == '0') {
			return Version{}, fmt.Errorf("version %q: invalid component %q", s, part)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Valid reports whether s is a strict semver string.
func Valid(s string) bool {
	_, err := parseStrict(s)
	return err == nil
}

// Increment bumps the named component, zeroing the lower ones.
// Unknown kinds bump patch.
func (v Version) Increment(kind string) Version {
	switch strings.ToLower(kind) {
	case "major":
		return Version{Major: v.Major + 1}
	case "minor":
		return Version{Major: v.Major, Minor: v.Minor + 1}
	default:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
}

// Compare returns -1, 0 or 1 ordering v against other.
func (v Version) Compare(other Version) int {
	pairs := [][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	}
	for _, pair := range pairs {
		if pair[0] < pair[1] {
			return -1
		}
		if pair[0] > pair[1] {
			return 1
		}
	}
	return 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
