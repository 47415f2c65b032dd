// Package version provides application version information.
// The version can be set at build time using ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/PTCG-Inventory/internal/version.Version=v1.2.3"
package version

import (
	"strconv"
	"strings"
)

// Version is the application version. It defaults to "dev" and can be
// overridden at build time using ldflags.
var Version = "dev"

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}

// Compare compares two "major.minor.patch" versions and returns -1, 0 or 1.
// A leading "v" is ignored. Missing or non-numeric components count as 0,
// so "1.2" equals "1.2.0" and "dev" equals "0.0.0".
func Compare(a, b string) int {
	pa, pb := parts(a), parts(b)
	for i := range pa {
		switch {
		case pa[i] < pb[i]:
			return -1
		case pa[i] > pb[i]:
			return 1
		}
	}
	return 0
}

// IsNewer reports whether candidate is a later version than current.
func IsNewer(candidate, current string) bool {
	return Compare(candidate, current) > 0
}

func parts(v string) [3]int {
	var out [3]int
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	for i, p := range strings.SplitN(v, ".", 3) {
		// "3-beta" keeps only its numeric prefix
		if j := strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' }); j >= 0 {
			p = p[:j]
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out[i] = n
	}
	return out
}
