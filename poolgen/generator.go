// Package poolgen builds the shared item pool a draft is played from.
package poolgen

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"tcgp-draft-server/catalog"
	"tcgp-draft-server/condition"
)

// HandSize is the number of items each participant ends a draft with.
const HandSize = 30

const (
	DefaultCreatureShare = 0.6
	DefaultMaxAttempts   = 5000
)

// ErrInsufficientPool is returned when the filtered catalog cannot produce a
// pool of the requested size.
var ErrInsufficientPool = errors.New("insufficient pool")

// Generator assembles pools. It is safe for concurrent use; every call draws
// from its own random source.
type Generator struct {
	conditions    *condition.Registry
	creatureShare float64
	maxAttempts   int
	excludedTags  []string
	seed          *uint64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes every Generate call reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.seed = &seed }
}

// WithCreatureShare sets the creature fraction the first phase must exceed.
func WithCreatureShare(share float64) Option {
	return func(g *Generator) {
		if share > 0 && share < 1 {
			g.creatureShare = share
		}
	}
}

// WithMaxAttempts bounds consecutive rejected draws in either phase.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithConditions replaces the default rule registry.
func WithConditions(r *condition.Registry) Option {
	return func(g *Generator) { g.conditions = r }
}

// New creates a generator using the built-in rules.
func New(opts ...Option) *Generator {
	g := &Generator{
		conditions:    condition.Defaults(),
		creatureShare: DefaultCreatureShare,
		maxAttempts:   DefaultMaxAttempts,
		excludedTags:  []string{catalog.TagFossil},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a shuffled pool of exactly n items drawn from c.
func (g *Generator) Generate(c *catalog.Catalog, n int) ([]*catalog.Item, error) {
	rng := g.source()
	pool, err := g.assemble(c, n, rng)
	if err != nil {
		return nil, err
	}
	for range 2 {
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	slog.Debug("pool generated", "tag", "poolgen", "size", len(pool), "creatures", countCreatures(pool))
	return pool, nil
}

func (g *Generator) source() *rand.Rand {
	if g.seed != nil {
		return rand.New(rand.NewPCG(*g.seed, *g.seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// assemble returns the pool in insertion order. Every gated item was accepted
// against the prefix that preceded it.
func (g *Generator) assemble(c *catalog.Catalog, n int, rng *rand.Rand) ([]*catalog.Item, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: target size %d", ErrInsufficientPool, n)
	}
	pool := make([]*catalog.Item, 0, n)

	basics := c.Basics()
	if len(basics) == 0 {
		return nil, fmt.Errorf("%w: no basic creatures match the filters", ErrInsufficientPool)
	}
	creatures, misses := 0, 0
	for float64(creatures) <= g.creatureShare*float64(n) && len(pool) < n {
		if misses >= g.maxAttempts {
			return nil, fmt.Errorf("%w: no eligible basic after %d draws", ErrInsufficientPool, misses)
		}
		basic := basics[rng.IntN(len(basics))]
		if !g.conditions.Satisfied(pool, basic) {
			misses++
			continue
		}
		before := len(pool)
		pool = g.addLine(c, pool, basic, n, rng)
		if len(pool) == before {
			misses++
			continue
		}
		misses = 0
		creatures += len(pool) - before
	}

	var support []*catalog.Item
	for _, it := range c.Support() {
		if !g.excluded(it) {
			support = append(support, it)
		}
	}
	copies := max(2, int(0.5*float64(n)/HandSize))
	misses = 0
	for len(pool) < n {
		if misses >= g.maxAttempts || len(support) == 0 {
			return nil, fmt.Errorf("%w: support fill stopped at %d of %d", ErrInsufficientPool, len(pool), n)
		}
		it := support[rng.IntN(len(support))]
		if speciesPresent(pool, it) || !g.conditions.Satisfied(pool, it) {
			misses++
			continue
		}
		for i := 0; i < copies && len(pool) < n; i++ {
			pool = append(pool, it)
		}
		misses = 0
	}
	return pool, nil
}

// addLine walks one evolution line forward from basic, inserting replicas
// of each stage until the line ends or the pool is full.
func (g *Generator) addLine(c *catalog.Catalog, pool []*catalog.Item, basic *catalog.Item, n int, rng *rand.Rand) []*catalog.Item {
	current := basic
	for current != nil && len(pool) < n {
		count := Replicas(c.EvolutionDepth(current))
		variants := c.Variants(current)
		inserted := 0
		for i := 0; i < count && len(pool) < n; i++ {
			eligible := g.eligible(pool, variants)
			if len(eligible) == 0 {
				break
			}
			pool = append(pool, eligible[rng.IntN(len(eligible))])
			inserted++
		}
		if inserted == 0 {
			break
		}
		next := c.Evolutions(current)
		if len(next) == 0 {
			break
		}
		current = next[rng.IntN(len(next))]
	}
	return pool
}

func (g *Generator) eligible(pool, candidates []*catalog.Item) []*catalog.Item {
	var out []*catalog.Item
	for _, it := range candidates {
		if g.conditions.Satisfied(pool, it) {
			out = append(out, it)
		}
	}
	return out
}

func (g *Generator) excluded(it *catalog.Item) bool {
	for _, tag := range g.excludedTags {
		if it.HasTag(tag) {
			return true
		}
	}
	return false
}

// Replicas returns how many copies of a stage are inserted given how many
// evolutions still follow it: 2 for a final stage, 3 with one more, 4 with two.
func Replicas(remaining int) int {
	return 2 + min(remaining, 2)
}

func speciesPresent(pool []*catalog.Item, it *catalog.Item) bool {
	species := it.SpeciesName()
	for _, p := range pool {
		if p.SpeciesName() == species {
			return true
		}
	}
	return false
}

func countCreatures(pool []*catalog.Item) int {
	n := 0
	for _, it := range pool {
		if it.IsCreature() {
			n++
		}
	}
	return n
}
