package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tcgp-draft-server/catalog"
	"tcgp-draft-server/draft"
	"tcgp-draft-server/poolgen"
)

type poolOptions struct {
	catalogPath        string
	players            int
	expansions         []string
	noEx               bool
	noCoinFlips        bool
	noEnergyGeneration bool
	seed               uint64
}

func newPoolCmd(a *app) *cobra.Command {
	opts := &poolOptions{}
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Generate a draft pool and print it",
		Long: `Generates the pool a draft with the given settings would use and
prints one card per line. Use --seed to reproduce a pool.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.catalogPath == "" {
				opts.catalogPath = a.cfg.CatalogPath
			}
			genOpts := []poolgen.Option{
				poolgen.WithCreatureShare(a.cfg.Generator.CreatureShare),
				poolgen.WithMaxAttempts(a.cfg.Generator.MaxAttempts),
			}
			if cmd.Flags().Changed("seed") {
				genOpts = append(genOpts, poolgen.WithSeed(opts.seed))
			}
			return runPool(cmd, opts, poolgen.New(genOpts...))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.catalogPath, "catalog", "", "catalog file (defaults to the configured catalog)")
	f.IntVarP(&opts.players, "players", "p", 2, "number of players")
	f.StringSliceVar(&opts.expansions, "expansions", catalog.DefaultSettings().Expansions, "pack codes to draw from")
	f.BoolVar(&opts.noEx, "no-ex", false, "exclude ex cards")
	f.BoolVar(&opts.noCoinFlips, "no-coin-flips", false, "exclude coin-flip cards")
	f.BoolVar(&opts.noEnergyGeneration, "no-energy-generation", false, "exclude energy-generation cards")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed")
	return cmd
}

func runPool(cmd *cobra.Command, opts *poolOptions, gen *poolgen.Generator) error {
	if opts.players < 1 {
		return fmt.Errorf("--players must be at least 1")
	}
	settings := catalog.Settings{
		Expansions:       opts.expansions,
		CoinFlips:        !opts.noCoinFlips,
		EnergyGeneration: !opts.noEnergyGeneration,
		Exs:              !opts.noEx,
	}
	if len(settings.Expansions) == 0 {
		return fmt.Errorf("no expansions selected")
	}

	cat, err := catalog.LoadFile(opts.catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	pool, err := gen.Generate(cat.Filter(settings.Filter()), draft.HandSize*opts.players)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, it := range pool {
		fmt.Fprintf(out, "%s\t%s\n", it.ID, it.Name)
	}
	return nil
}
