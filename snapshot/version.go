package snapshot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// versionPattern accepts MAJOR.MINOR with optional .PATCH, -PRERELEASE and
// +BUILD parts. Numeric parts may not carry leading zeros.
var versionPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)(?:\.(0|[1-9]\d*))?` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
	`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// Version tags the format a profile was written under.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
	Build      string
}

// ParseVersion parses MAJOR.MINOR[.PATCH][-PRERELEASE][+BUILD].
func ParseVersion(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}

	var v Version
	parts := []*int{&v.Major, &v.Minor, &v.Patch}
	for i, p := range parts {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %w", ErrMalformedVersion, s, err)
		}
		*p = n
	}
	v.Prerelease = m[4]
	v.Build = m[5]

	return v, nil
}

// MustParseVersion is ParseVersion for constants. It panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		sb.WriteString("-")
		sb.WriteString(v.Prerelease)
	}
	if v.Build != "" {
		sb.WriteString("+")
		sb.WriteString(v.Build)
	}
	return sb.String()
}

// IsZero reports whether v is 0.0.0 with no tags.
func (v Version) IsZero() bool {
	return v == Version{}
}

// Semver converts v for precedence comparisons.
func (v Version) Semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), v.Prerelease, v.Build)
}

// Compare returns -1, 0 or 1 following semantic version precedence. Build
// metadata does not affect the result.
func (v Version) Compare(other Version) int {
	return v.Semver().Compare(other.Semver())
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
