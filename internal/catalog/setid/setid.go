// Package setid maps provider-specific set identifiers to a canonical form so that
// set listings from pokemontcg.io and TCGdex can be joined.
package setid

import (
	"regexp"
	"strings"
)

var (
	// seasonalPromo matches year-coded promotional collections, e.g. "mcd2021".
	seasonalPromo = regexp.MustCompile(`(?i)^(?:mcdonalds|mcd)(\d{4})(.*)$`)

	// paddedNumber removes one leading zero from the numeric part: "sv04" -> "sv4".
	paddedNumber = regexp.MustCompile(`^([a-zA-Z]+)0(\d+.*)$`)
)

const (
	promoPrefix = "mcd"
	halfMarker  = ".5"
	halfToken   = "pt5"
)

// Normalize returns the canonical identifier for a provider set id.
//
// Rules are applied in order: seasonal promo collapse, ".5" -> "pt5",
// then a single leading-zero strip on the numeric suffix.
func Normalize(id string) string {
	out := id

	if m := seasonalPromo.FindStringSubmatch(out); m != nil {
		year := m[1]
		out = promoPrefix + year[2:] + m[2]
	}

	out = strings.ReplaceAll(out, halfMarker, halfToken)

	return paddedNumber.ReplaceAllString(out, "${1}${2}")
}

// Denormalize approximately inverts Normalize for display and lookup.
// Only the "pt5" rewrite is reversed; promo and zero-padding rules are lossy.
func Denormalize(id string) string {
	return strings.ReplaceAll(id, halfToken, halfMarker)
}
