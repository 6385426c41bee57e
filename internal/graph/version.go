package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// Severity ranks how far a version binding has fallen behind.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityPatch
	SeverityMinor
	SeverityMajor
)

func (s Severity) String() string {
	switch s {
	case SeverityMajor:
		return "major"
	case SeverityMinor:
		return "minor"
	case SeverityPatch:
		return "patch"
	}
	return "none"
}

// ParseVersion splits a version string into a numeric triple. Parsing is
// lenient: missing components and components that are not plain integers
// count as zero, so "2", "2.1", "abc" and "" are all accepted. Anything
// after the third component is ignored.
func ParseVersion(v string) (major, minor, patch int) {
	parts := strings.SplitN(v, ".", 4)
	num := func(i int) int {
		if i >= len(parts) {
			return 0
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return num(0), num(1), num(2)
}

// CompareVersions classifies the drift between a bound version and the
// target's current version. It returns SeverityNone when the binding is
// current or ahead, otherwise the highest component that moved.
func CompareVersions(bound, current string) Severity {
	bMaj, bMin, bPat := ParseVersion(bound)
	cMaj, cMin, cPat := ParseVersion(current)

	if cMaj > bMaj {
		return SeverityMajor
	}
	if cMaj == bMaj && cMin > bMin {
		return SeverityMinor
	}
	if cMaj == bMaj && cMin == bMin && cPat > bPat {
		return SeverityPatch
	}
	return SeverityNone
}

// BumpPatch increments the patch component of a version.
func BumpPatch(v string) string {
	maj, min, pat := ParseVersion(v)
	return fmt.Sprintf("%d.%d.%d", maj, min, pat+1)
}

// BumpMinor increments the minor component and resets patch.
func BumpMinor(v string) string {
	maj, min, _ := ParseVersion(v)
	return fmt.Sprintf("%d.%d.0", maj, min+1)
}

// BumpMajor increments the major component and resets the rest.
func BumpMajor(v string) string {
	maj, _, _ := ParseVersion(v)
	return fmt.Sprintf("%d.0.0", maj+1)
}
