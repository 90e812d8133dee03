package condition

import (
	"tcgp-draft-server/catalog"
)

// ContainsType reports whether any pool item has element type typ.
func ContainsType(pool []*catalog.Item, typ string) bool {
	return containsFunc(pool, func(it *catalog.Item) bool { return it.Type == typ })
}

// ContainsTag reports whether any pool item carries tag.
func ContainsTag(pool []*catalog.Item, tag string) bool {
	return containsFunc(pool, func(it *catalog.Item) bool { return it.HasTag(tag) })
}

// ContainsName reports whether any pool item is named exactly name.
func ContainsName(pool []*catalog.Item, name string) bool {
	return containsFunc(pool, func(it *catalog.Item) bool { return it.Name == name })
}

// ContainsSpecies reports whether any pool item is named like name without
// its " ex" suffix.
func ContainsSpecies(pool []*catalog.Item, name string) bool {
	species := (&catalog.Item{Name: name}).SpeciesName()
	return ContainsName(pool, species)
}

// ContainsID reports whether the pool already holds the item with this id.
func ContainsID(pool []*catalog.Item, id string) bool {
	return containsFunc(pool, func(it *catalog.Item) bool { return it.ID == id })
}

// ContainsTool reports whether the pool holds any tool.
func ContainsTool(pool []*catalog.Item) bool {
	return containsFunc(pool, (*catalog.Item).IsTool)
}

// ContainsStage reports whether the pool holds any item at stage.
func ContainsStage(pool []*catalog.Item, stage catalog.Stage) bool {
	return containsFunc(pool, func(it *catalog.Item) bool { return it.Stage == stage })
}

func containsFunc(pool []*catalog.Item, match func(*catalog.Item) bool) bool {
	for _, it := range pool {
		if match(it) {
			return true
		}
	}
	return false
}

// RequiresType gates on the pool holding an item of element type typ.
func RequiresType(typ string) Predicate {
	return func(pool []*catalog.Item, _ *catalog.Item) bool { return ContainsType(pool, typ) }
}

// RequiresTag gates on the pool holding an item tagged tag.
func RequiresTag(tag string) Predicate {
	return func(pool []*catalog.Item, _ *catalog.Item) bool { return ContainsTag(pool, tag) }
}

// RequiresAnyName gates on the pool holding at least one of names.
func RequiresAnyName(names ...string) Predicate {
	return func(pool []*catalog.Item, _ *catalog.Item) bool {
		for _, n := range names {
			if ContainsName(pool, n) {
				return true
			}
		}
		return false
	}
}

// RequiresAllNames gates on the pool holding every one of names.
func RequiresAllNames(names ...string) Predicate {
	return func(pool []*catalog.Item, _ *catalog.Item) bool {
		for _, n := range names {
			if !ContainsName(pool, n) {
				return false
			}
		}
		return true
	}
}

// RequiresTool gates on the pool holding any tool.
func RequiresTool() Predicate {
	return func(pool []*catalog.Item, _ *catalog.Item) bool { return ContainsTool(pool) }
}

// RequiresStage gates on the pool holding an item at stage.
func RequiresStage(stage catalog.Stage) Predicate {
	return func(pool []*catalog.Item, _ *catalog.Item) bool { return ContainsStage(pool, stage) }
}

// RequiresID gates on the pool already holding the item with id.
func RequiresID(id string) Predicate {
	return func(pool []*catalog.Item, _ *catalog.Item) bool { return ContainsID(pool, id) }
}
