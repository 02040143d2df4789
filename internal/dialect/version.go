package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

var versionRe = regexp.MustCompile(`\d+(\.\d+){0,2}`)

// Version is a backend version. The zero value means unknown, which is
// treated as the newest release.
type Version struct {
	Raw    string `json:"raw,omitempty"`
	semver string
}

// ParseVersion extracts the numeric version from a backend identity string
// such as "8.0.32-log", "PostgreSQL 15.3 on x86_64" or "10.11.6-MariaDB".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, nil
	}
	m := versionRe.FindString(s)
	if m == "" {
		return Version{}, fmt.Errorf("invalid version %q: no numeric version found", s)
	}
	v := "v" + m
	if !semver.IsValid(v) {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	return Version{Raw: s, semver: v}, nil
}

// MustParseVersion is ParseVersion for constants in tests and tables.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Known reports whether a version was given.
func (v Version) Known() bool { return v.semver != "" }

// AtLeast reports whether v is min or newer. Unknown versions satisfy
// every threshold.
func (v Version) AtLeast(min string) bool {
	if !v.Known() {
		return true
	}
	return semver.Compare(v.semver, "v"+min) >= 0
}

// Canonical returns the normalized version, e.g. "8.0.32", or "" when unknown.
func (v Version) Canonical() string {
	if !v.Known() {
		return ""
	}
	return strings.TrimPrefix(semver.Canonical(v.semver), "v")
}

func (v Version) String() string {
	if !v.Known() {
		return "latest"
	}
	return v.Canonical()
}
