package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// Stage is the evolution stage of a creature item. Support items have StageNone.
type Stage string

const (
	StageNone  Stage = ""
	StageBasic Stage = "Basic"
	Stage1     Stage = "1"
	Stage2     Stage = "2"
)

// Card types that carry meaning for the generator and the predicates.
const (
	CardTypeCreature = "Pokemon"
	CardTypeTool     = "Pokémon Tool"
)

// Tags with special handling.
const (
	TagFossil           = "fossil"
	TagEx               = "ex"
	TagCoinFlips        = "coin flips"
	TagEnergyGeneration = "energy generation"
	TagPoison           = "poison"
)

const exSuffix = " ex"

var packCodes = map[string]string{
	"Promo-A":              "P-A",
	"Genetic Apex":         "A1",
	"Mythical Island":      "A1a",
	"Space-Time Smackdown": "A2",
	"Triumphant Light":     "A2a",
	"Shining Revelry":      "A2b",
	"Celestial Guardians":  "A3",
}

// PackCode returns the short code for a pack (series) name, or "Unknown".
func PackCode(packName string) string {
	if code, ok := packCodes[packName]; ok {
		return code
	}
	return "Unknown"
}

// PackName returns the pack name for a short code.
func PackName(code string) (string, bool) {
	for name, c := range packCodes {
		if c == code {
			return name, true
		}
	}
	return "", false
}

// Item is one catalog record. Items are never mutated once loaded; every
// other package refers to them through *Item pointers handed out by a Catalog.
type Item struct {
	ID          string   `json:"id" yaml:"id"`
	Number      int      `json:"cardNum" yaml:"cardNum"`
	Name        string   `json:"cardName" yaml:"cardName"`
	Type        string   `json:"type" yaml:"type"`
	Stage       Stage    `json:"stage" yaml:"stage"`
	EvolvesFrom string   `json:"evolvesFrom" yaml:"evolvesFrom"`
	CardType    string   `json:"cardType" yaml:"cardType"`
	HP          int      `json:"hp" yaml:"hp"`
	Weakness    string   `json:"weakness" yaml:"weakness"`
	Retreat     int      `json:"retreat" yaml:"retreat"`
	Illustrator string   `json:"illustrator" yaml:"illustrator"`
	Ability     string   `json:"ability" yaml:"ability"`
	Attacks     []string `json:"attacks" yaml:"attacks"`
	Rarity      string   `json:"rarity" yaml:"rarity"`
	Pack        string   `json:"pack" yaml:"pack"`
	Subpack     string   `json:"subpack" yaml:"subpack"`
	Generation  int      `json:"generation" yaml:"generation"`
	Tags        []string `json:"tags" yaml:"tags"`
}

// MakeID builds the identity of an item from its pack name and ordinal,
// e.g. "A1_005".
func MakeID(packName string, number int) string {
	return fmt.Sprintf("%s_%03d", PackCode(packName), number)
}

// IsCreature reports whether the item is a creature (as opposed to a support item).
func (it *Item) IsCreature() bool { return it.CardType == CardTypeCreature }

// IsTool reports whether the item is a tool attached to creatures.
func (it *Item) IsTool() bool { return it.CardType == CardTypeTool }

// HasTag reports whether the item carries the given capability tag.
func (it *Item) HasTag(tag string) bool { return slices.Contains(it.Tags, tag) }

// SpeciesName is the item name without the " ex" suffix.
func (it *Item) SpeciesName() string { return speciesName(it.Name) }

func speciesName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), exSuffix) {
		return name[:len(name)-len(exSuffix)]
	}
	return name
}

// sameGameplay reports whether two items are interchangeable prints.
func sameGameplay(a, b *Item) bool {
	return a.Name == b.Name &&
		a.HP == b.HP &&
		slices.Equal(a.Attacks, b.Attacks) &&
		a.Weakness == b.Weakness &&
		a.Retreat == b.Retreat &&
		a.EvolvesFrom == b.EvolvesFrom &&
		a.Type == b.Type &&
		a.Ability == b.Ability
}

func normalizeStage(s Stage) Stage {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "basic":
		return StageBasic
	case "1", "stage 1", "stage1":
		return Stage1
	case "2", "stage 2", "stage2":
		return Stage2
	default:
		return StageNone
	}
}
