package condition

import "tcgp-draft-server/catalog"

// RegisterDefaults registers the built-in flavor rules. Adding a rule only
// requires a new entry here.
func RegisterDefaults(r *Registry) {
	// Element type checks.
	r.Register(Rule{Label: "grass support", ItemIDs: []string{"A1_005", "A1_219", "A1_266", "A2b_005", "P-A_052", "A3_147"}, Predicate: RequiresType("Grass")})
	r.Register(Rule{Label: "fire support", ItemIDs: []string{"A1_047", "A1_255", "A1_274", "P-A_025"}, Predicate: RequiresType("Fire")})
	r.Register(Rule{Label: "water support", ItemIDs: []string{"A1_220", "A1_267", "A2a_072", "A2a_087", "A3_143"}, Predicate: RequiresType("Water")})
	r.Register(Rule{Label: "Mythical Slab", ItemIDs: []string{"A1a_065"}, Predicate: RequiresType("Psychic")})
	r.Register(Rule{Label: "Adaman", ItemIDs: []string{"A2a_075", "A2a_090"}, Predicate: RequiresType("Metal")})
	r.Register(Rule{Label: "lightning support", ItemIDs: []string{"A2b_025", "A2b_103", "P-A_058", "A3_068", "A3_166"}, Predicate: RequiresType("Lightning")})
	r.Register(Rule{Label: "Ilima", ItemIDs: []string{"A3_249", "A3_191"}, Predicate: RequiresType("Colorless")})

	// Tag checks.
	r.Register(Rule{Label: "ex synergy", ItemIDs: []string{"A2a_036", "A2a_079", "A2b_007", "A2b_073", "A2b_071", "A2b_090", "A3_066", "A3_165"}, Predicate: RequiresTag(catalog.TagEx)})
	r.Register(Rule{Label: "poison synergy", ItemIDs: []string{"A1_175", "A2b_048", "A2b_085", "A2b_093"}, Predicate: RequiresTag(catalog.TagPoison)})

	// Named partners.
	r.Register(Rule{Label: "Nidoqueen", ItemIDs: []string{"A1_168", "A1_240"}, Predicate: RequiresAnyName("Nidoking")})
	r.Register(Rule{Label: "Blaine", ItemIDs: []string{"A1_221", "A1_268"}, Predicate: RequiresAnyName("Magmar", "Rapidash", "Ninetales")})
	r.Register(Rule{Label: "Koga", ItemIDs: []string{"A1_222", "A1_269"}, Predicate: RequiresAnyName("Muk", "Weezing")})
	r.Register(Rule{Label: "Brock", ItemIDs: []string{"A1_224", "A1_271"}, Predicate: RequiresAnyName("Onix", "Golem")})
	r.Register(Rule{Label: "Lt. Surge", ItemIDs: []string{"A1_226", "A1_273"}, Predicate: RequiresAnyName("Electrode", "Raichu", "Electabuzz")})
	r.Register(Rule{Label: "Budding Expeditioner", ItemIDs: []string{"A1a_066", "A1a_080"}, Predicate: RequiresAnyName("Mew ex")})
	r.Register(Rule{Label: "tool users", ItemIDs: []string{"A2_111", "P-A_039", "A2_061", "A2_183", "A2_198", "A3_151", "A3_193", "A3_208"}, Predicate: RequiresTool()})
	r.Register(Rule{Label: "Uxie", ItemIDs: []string{"A2_075"}, Predicate: RequiresAnyName("Mesprit", "Azelf")})
	r.Register(Rule{Label: "Mesprit", ItemIDs: []string{"A2_076", "A2_166"}, Predicate: RequiresAllNames("Uxie", "Azelf")})
	r.Register(Rule{Label: "Team Galactic Grunt", ItemIDs: []string{"A2_151", "A2_191"}, Predicate: RequiresAnyName("Glameow", "Stunky", "Croagunk")})
	r.Register(Rule{Label: "Cynthia", ItemIDs: []string{"A2_152", "A2_192"}, Predicate: RequiresAnyName("Garchomp", "Togekiss")})
	r.Register(Rule{Label: "Volkner", ItemIDs: []string{"A2_153", "A2_193"}, Predicate: RequiresAnyName("Electivire", "Luxray")})
	r.Register(Rule{Label: "Arceus link", ItemIDs: []string{"A2a_009", "A2a_013", "A2a_021", "A2a_026", "P-A_044", "A2a_035", "A2a_041", "A2a_050", "A2a_055"}, Predicate: RequiresAnyName("Arceus", "Arceus ex")})
	r.Register(Rule{Label: "Barry", ItemIDs: []string{"A2a_074", "A2a_089"}, Predicate: RequiresAnyName("Snorlax", "Heracross", "Staraptor")})
	// Self-gated: this print only ever enters through a pool that already holds it.
	r.Register(Rule{Label: "Weedle", ItemIDs: []string{"A2b_001"}, Predicate: RequiresID("A2b_001")})
	r.Register(Rule{Label: "Tatsugiri", ItemIDs: []string{"A2b_021", "A2b_075"}, Predicate: RequiresAnyName("Dondozo")})
	r.Register(Rule{Label: "Wishiwashi", ItemIDs: []string{"A3_050", "A3_051", "A3_184", "A3_202"}, Predicate: RequiresAnyName("Wishiwashi", "Wishiwashi ex")})
	r.Register(Rule{Label: "Rockruff", ItemIDs: []string{"A3_098", "A3_172"}, Predicate: RequiresAnyName("Lycanroc")})
	r.Register(Rule{Label: "stage 2 support", ItemIDs: []string{"A3_144", "A3_155", "A3_197", "A3_209"}, Predicate: RequiresStage(catalog.Stage2)})
	r.Register(Rule{Label: "Acerola", ItemIDs: []string{"A3_148", "A3_190"}, Predicate: RequiresAnyName("Palossand", "Mimikyu")})
	r.Register(Rule{Label: "Kiawe", ItemIDs: []string{"A3_150", "A3_192"}, Predicate: RequiresAnyName("Alolan Marowak", "Turtonator")})
	r.Register(Rule{Label: "Lana", ItemIDs: []string{"A3_152", "A3_194"}, Predicate: RequiresAnyName("Araquanid")})
	r.Register(Rule{Label: "Sophocles", ItemIDs: []string{"A3_153", "A3_195"}, Predicate: RequiresAnyName("Alolan Golem", "Vikavolt", "Togedemaru")})
	r.Register(Rule{Label: "Mallow", ItemIDs: []string{"A3_154", "A3_196"}, Predicate: RequiresAnyName("Shiinotic", "Tsareena")})
}

// Defaults returns a registry with the built-in rules.
func Defaults() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
