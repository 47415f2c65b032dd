package catalog

import (
	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog/setid"
)

// MergeSets reconciles the English and localized set listings.
//
// The English listing defines membership and ordering. A localized set is
// matched by canonical identifier; when found, localized name, logo, card
// counts and identifier are used while abbreviation, English name and
// release date come from the English record. Without a match the English
// record fills every field, including ID, so card lookups for that set go to
// TCGdex with the pokemontcg.io id. Localized-only sets are dropped.
func MergeSets(english, localized []Set) []Set {
	byCanonical := make(map[string]Set, len(localized))
	for _, s := range localized {
		key := setid.Normalize(s.ID)
		if _, exists := byCanonical[key]; exists {
			continue
		}
		byCanonical[key] = s
	}

	merged := make([]Set, 0, len(english))
	for _, en := range english {
		canonical := setid.Normalize(en.ID)

		loc, ok := byCanonical[canonical]
		if !ok {
			merged = append(merged, Set{
				ID:                en.ID,
				CanonicalID:       canonical,
				Name:              en.Name,
				NameEN:            en.Name,
				LogoURL:           en.LogoURL,
				CardCountOfficial: en.CardCountOfficial,
				CardCountTotal:    en.CardCountTotal,
				ReleaseDate:       en.ReleaseDate,
				Abbreviation:      en.Abbreviation,
			})
			continue
		}

		merged = append(merged, Set{
			ID:                loc.ID,
			CanonicalID:       canonical,
			Name:              loc.Name,
			NameEN:            en.Name,
			LogoURL:           loc.LogoURL,
			CardCountOfficial: loc.CardCountOfficial,
			CardCountTotal:    loc.CardCountTotal,
			ReleaseDate:       en.ReleaseDate,
			Abbreviation:      en.Abbreviation,
		})
	}

	return merged
}
