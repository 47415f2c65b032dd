package inventory

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
)

// PocketsPerPage is the number of cards on one binder page.
const PocketsPerPage = 9

const typeSeparator = ","

// EncodeAbilities serializes abilities for storage. A nil list encodes as "[]".
func EncodeAbilities(abilities []catalog.Ability) (string, error) {
	if abilities == nil {
		abilities = []catalog.Ability{}
	}
	data, err := json.Marshal(abilities)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeAbilities restores stored abilities. Malformed input yields an empty list.
func DecodeAbilities(raw string) []catalog.Ability {
	abilities := []catalog.Ability{}
	if strings.TrimSpace(raw) == "" {
		return abilities
	}
	if err := json.Unmarshal([]byte(raw), &abilities); err != nil {
		log.Printf("[Codec] Ignoring malformed abilities: %v", err)
		return []catalog.Ability{}
	}
	return abilities
}

// EncodeAttacks serializes attacks for storage. A nil list encodes as "[]".
func EncodeAttacks(attacks []catalog.Attack) (string, error) {
	if attacks == nil {
		attacks = []catalog.Attack{}
	}
	data, err := json.Marshal(attacks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeAttacks restores stored attacks. Malformed input yields an empty list.
func DecodeAttacks(raw string) []catalog.Attack {
	attacks := []catalog.Attack{}
	if strings.TrimSpace(raw) == "" {
		return attacks
	}
	if err := json.Unmarshal([]byte(raw), &attacks); err != nil {
		log.Printf("[Codec] Ignoring malformed attacks: %v", err)
		return []catalog.Attack{}
	}
	for i := range attacks {
		if attacks[i].Cost == nil {
			attacks[i].Cost = []string{}
		}
	}
	return attacks
}

// JoinTypes flattens type tags for storage, keeping their order.
func JoinTypes(types []string) string {
	return strings.Join(types, typeSeparator)
}

// SplitTypes restores type tags. Blank entries are dropped.
func SplitTypes(raw string) []string {
	types := []string{}
	for _, t := range strings.Split(raw, typeSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// BinderPage returns the 1-based binder page for a card position.
// Returns 0 when localID has no numeric prefix, e.g. "TG05" or "SWSH001".
func BinderPage(localID string) int {
	end := 0
	for end < len(localID) && localID[end] >= '0' && localID[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	n, err := strconv.Atoi(localID[:end])
	if err != nil || n <= 0 {
		return 0
	}
	return (n-1)/PocketsPerPage + 1
}
