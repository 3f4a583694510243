package archive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/archiveloader/internal/common"
)

// AccessClass is the visibility tier of an archive.
type AccessClass string

const (
	AccessOpen       AccessClass = "open"
	AccessControlled AccessClass = "controlled"
)

// Version is a dotted numeric archive revision such as "1.8.0".
type Version []int

func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", common.ErrInvalidVersion)
	}
	parts := strings.Split(s, ".")
	v := make(Version, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", common.ErrInvalidVersion, s)
		}
		v = append(v, n)
	}
	return v, nil
}

// Compare returns -1, 0 or 1. Missing trailing components count as zero.
func (v Version) Compare(o Version) int {
	n := max(len(v), len(o))
	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(v) {
			a = v[i]
		}
		if i < len(o) {
			b = o[i]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// ArchiveDescriptor identifies one archive of the batch.
type ArchiveDescriptor struct {
	Name     string
	Version  Version
	URL      string
	Center   string
	Platform string
}

// AccessClass reports controlled when the source URL carries marker.
func (d ArchiveDescriptor) AccessClass(marker string) AccessClass {
	if marker == "" {
		marker = common.DefaultControlledMarker
	}
	if strings.Contains(d.URL, marker) {
		return AccessControlled
	}
	return AccessOpen
}

// Level returns the data level encoded in the archive name, with
// underscores replaced by spaces ("Level 3"), matching the DataLevel
// column. Archive names end in "<Level_N>.<batch>.<revision>.<series>", so
// the level sits fourth from the end; names that carry fewer trailing
// components are searched for a "Level_" component instead.
func (d ArchiveDescriptor) Level() (string, error) {
	parts := strings.Split(d.Name, ".")
	if len(parts) >= 4 {
		if c := parts[len(parts)-4]; strings.HasPrefix(c, "Level_") {
			return strings.ReplaceAll(c, "_", " "), nil
		}
	}
	for _, c := range parts {
		if strings.HasPrefix(c, "Level_") {
			return strings.ReplaceAll(c, "_", " "), nil
		}
	}
	return "", fmt.Errorf("%w: %s", common.ErrInvalidLevel, d.Name)
}
