// Package publish implements the publish gate (§4.10): semver validation,
// version-bump ordering, uniqueness, and release-notes requirements over a
// PublishCandidate.
package publish

import (
	"strconv"
	"strings"
)

// semver is a parsed MAJOR.MINOR.PATCH version with an optional
// pre-release suffix.
type semver struct {
	major, minor, patch uint64
	pre                 string
	hasPre              bool
}

func parseSemver(input string) (semver, bool) {
	versionPart := input
	var pre string
	var hasPre bool
	if idx := strings.Index(input, "-"); idx >= 0 {
		suffix := input[idx+1:]
		if suffix != "" {
			versionPart = input[:idx]
			pre = suffix
			hasPre = true
		}
	}

	parts := strings.Split(versionPart, ".")
	if len(parts) != 3 {
		return semver{}, false
	}

	major, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return semver{}, false
	}
	minor, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return semver{}, false
	}
	patch, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return semver{}, false
	}

	return semver{major: major, minor: minor, patch: patch, pre: pre, hasPre: hasPre}, true
}

// compare returns -1/0/1 the way a comparator should: numeric tuple first,
// then on a tie, pre-release sorts below release, and two pre-releases
// compare lexicographically by suffix.
func (s semver) compare(other semver) int {
	switch {
	case s.major != other.major:
		return cmpUint(s.major, other.major)
	case s.minor != other.minor:
		return cmpUint(s.minor, other.minor)
	case s.patch != other.patch:
		return cmpUint(s.patch, other.patch)
	}

	switch {
	case !s.hasPre && !other.hasPre:
		return 0
	case s.hasPre && !other.hasPre:
		return -1
	case !s.hasPre && other.hasPre:
		return 1
	default:
		return strings.Compare(s.pre, other.pre)
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
