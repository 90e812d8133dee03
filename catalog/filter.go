package catalog

import "slices"

// Filter narrows a catalog before pool generation. Empty fields do not filter.
type Filter struct {
	PackCodes   []string // keep items whose pack code is listed
	ExcludeTags []string // drop items carrying any of these tags
	Types       []string // keep items of these element types (support items always pass)
}

// Settings are the host-facing draft toggles, as chosen in the lobby.
type Settings struct {
	Expansions       []string `json:"expansions"`
	CoinFlips        bool     `json:"coinFlips"`
	EnergyGeneration bool     `json:"energyGeneration"`
	Exs              bool     `json:"exs"`
	Types            []string `json:"types,omitempty"`
}

// DefaultSettings mirrors the lobby defaults.
func DefaultSettings() Settings {
	return Settings{
		Expansions:       []string{"A1", "A1a", "A2", "A2a", "A2b"},
		CoinFlips:        true,
		EnergyGeneration: true,
		Exs:              true,
	}
}

// Filter converts the toggles into a catalog filter.
func (s Settings) Filter() Filter {
	f := Filter{PackCodes: slices.Clone(s.Expansions), Types: slices.Clone(s.Types)}
	if !s.CoinFlips {
		f.ExcludeTags = append(f.ExcludeTags, TagCoinFlips)
	}
	if !s.EnergyGeneration {
		f.ExcludeTags = append(f.ExcludeTags, TagEnergyGeneration)
	}
	if !s.Exs {
		f.ExcludeTags = append(f.ExcludeTags, TagEx)
	}
	return f
}

// Filter returns the subset of c allowed by f.
func (c *Catalog) Filter(f Filter) *Catalog {
	return c.Where(func(it *Item) bool {
		if len(f.PackCodes) > 0 && !slices.Contains(f.PackCodes, PackCode(it.Pack)) {
			return false
		}
		for _, tag := range f.ExcludeTags {
			if it.HasTag(tag) {
				return false
			}
		}
		if len(f.Types) > 0 && it.IsCreature() && !slices.Contains(f.Types, it.Type) {
			return false
		}
		return true
	})
}
