// Package catalog is a read-only, indexed view over the item catalog.
//
// A Catalog is built once and never mutated, so it can be shared by every
// room without synchronization. Filtering returns a new Catalog that shares
// the same *Item pointers.
package catalog

import (
	"slices"
	"strings"
)

// Catalog indexes a fixed, ordered set of items.
type Catalog struct {
	items      []*Item
	byID       map[string]*Item
	byName     map[string][]*Item
	evolutions map[string][]*Item // name -> items that evolve from it
}

// New copies items into a new Catalog. Missing IDs are derived from pack and
// number, and stage strings are normalized.
func New(items []Item) *Catalog {
	refs := make([]*Item, len(items))
	for i := range items {
		it := items[i]
		if it.ID == "" {
			it.ID = MakeID(it.Pack, it.Number)
		}
		it.Stage = normalizeStage(it.Stage)
		refs[i] = &it
	}
	return index(refs)
}

func index(refs []*Item) *Catalog {
	c := &Catalog{
		items:      refs,
		byID:       make(map[string]*Item, len(refs)),
		byName:     make(map[string][]*Item),
		evolutions: make(map[string][]*Item),
	}
	for _, it := range refs {
		if _, dup := c.byID[it.ID]; !dup {
			c.byID[it.ID] = it
		}
		c.byName[it.Name] = append(c.byName[it.Name], it)
		if it.EvolvesFrom != "" {
			c.evolutions[it.EvolvesFrom] = append(c.evolutions[it.EvolvesFrom], it)
		}
	}
	return c
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Items returns the items in catalog order.
func (c *Catalog) Items() []*Item { return slices.Clone(c.items) }

// ByID looks an item up by identity.
func (c *Catalog) ByID(id string) (*Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// ByName returns all prints with exactly this name.
func (c *Catalog) ByName(name string) []*Item { return slices.Clone(c.byName[name]) }

// Species returns items named name or "name ex" (case-insensitive), after
// stripping any " ex" suffix from name.
func (c *Catalog) Species(name string) []*Item {
	base := strings.ToLower(speciesName(name))
	var out []*Item
	for _, it := range c.items {
		if strings.ToLower(it.SpeciesName()) == base {
			out = append(out, it)
		}
	}
	return out
}

// Variants returns every print sharing the gameplay attributes of it,
// including it when it belongs to this catalog.
func (c *Catalog) Variants(it *Item) []*Item {
	var out []*Item
	for _, other := range c.byName[it.Name] {
		if sameGameplay(it, other) {
			out = append(out, other)
		}
	}
	return out
}

// Evolutions returns the items that evolve directly from it.
func (c *Catalog) Evolutions(it *Item) []*Item { return slices.Clone(c.evolutions[it.Name]) }

// PreEvolutions returns the items it evolves from.
func (c *Catalog) PreEvolutions(it *Item) []*Item {
	if it.EvolvesFrom == "" {
		return nil
	}
	return slices.Clone(c.byName[it.EvolvesFrom])
}

// CanEvolve reports whether anything in the catalog evolves from it.
func (c *Catalog) CanEvolve(it *Item) bool { return len(c.evolutions[it.Name]) > 0 }

// EvolutionDepth returns the length of the longest forward evolution chain
// starting at it (0 when nothing evolves from it).
func (c *Catalog) EvolutionDepth(it *Item) int {
	type frame struct {
		name  string
		depth int
	}
	best := 0
	seen := map[string]bool{it.Name: true}
	stack := []frame{{it.Name, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > best {
			best = f.depth
		}
		for _, next := range c.evolutions[f.name] {
			if seen[next.Name] {
				continue
			}
			seen[next.Name] = true
			stack = append(stack, frame{next.Name, f.depth + 1})
		}
	}
	return best
}

// Family returns the transitive closure of evolution links around it, in
// breadth-first order starting with it.
func (c *Catalog) Family(it *Item) []*Item {
	seen := map[*Item]bool{it: true}
	family := []*Item{it}
	for i := 0; i < len(family); i++ {
		cur := family[i]
		var links []*Item
		if cur.EvolvesFrom != "" {
			links = append(links, c.byName[cur.EvolvesFrom]...)
		}
		links = append(links, c.evolutions[cur.Name]...)
		for _, next := range links {
			if !seen[next] {
				seen[next] = true
				family = append(family, next)
			}
		}
	}
	return family
}

// Basics returns every basic-stage creature.
func (c *Catalog) Basics() []*Item {
	return c.collect(func(it *Item) bool { return it.IsCreature() && it.Stage == StageBasic })
}

// Support returns every non-creature item.
func (c *Catalog) Support() []*Item {
	return c.collect(func(it *Item) bool { return !it.IsCreature() })
}

// ByType returns the items of an element type.
func (c *Catalog) ByType(typ string) []*Item {
	return c.collect(func(it *Item) bool { return it.Type == typ })
}

// ByTag returns the items carrying tag.
func (c *Catalog) ByTag(tag string) []*Item {
	return c.collect(func(it *Item) bool { return it.HasTag(tag) })
}

// Where returns a catalog restricted to items matching keep.
func (c *Catalog) Where(keep func(*Item) bool) *Catalog {
	return index(c.collect(keep))
}

func (c *Catalog) collect(keep func(*Item) bool) []*Item {
	var out []*Item
	for _, it := range c.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
