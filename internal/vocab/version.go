package vocab

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a workflow version as exported ("major.minor"). The minor part
// is an integer, so 11.2 and 11.20 are different versions.
type Version struct {
	Major int
	Minor int
}

// ParseVersion parses "major.minor". A bare major number means minor 0.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	majorStr, minorStr, hasMinor := strings.Cut(s, ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil || major < 0 {
		return Version{}, fmt.Errorf("invalid workflow version %q", s)
	}
	if !hasMinor {
		return Version{Major: major}, nil
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil || minor < 0 {
		return Version{}, fmt.Errorf("invalid workflow version %q", s)
	}
	return Version{Major: major, Minor: minor}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Key identifies one vocabulary: a workflow id at an exact version.
type Key struct {
	ID      int
	Version Version
}

func (k Key) String() string {
	return fmt.Sprintf("%d@%s", k.ID, k.Version)
}
