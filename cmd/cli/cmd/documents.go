// Package cmd - stored catalog, strategy and result commands
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pricing-engine/adapters/document"
	"pricing-engine/adapters/storage"
	"pricing-engine/core/determinism"
	"pricing-engine/core/ui"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage stored catalogs",
}

var catalogPutCmd = &cobra.Command{
	Use:   "put <name> <file>",
	Short: "Store a catalog under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes, err := document.LoadCatalog(args[1])
		if err != nil {
			return err
		}
		return withStore(func(ctx context.Context, store storage.Store) error {
			if err := store.SaveCatalog(ctx, &storage.StoredCatalog{Name: args[0], Nodes: nodes}); err != nil {
				return err
			}
			ui.NewAutoWriter(cmd.OutOrStdout()).Success("Stored catalog %s (%d nodes)", args[0], len(nodes))
			return nil
		})
	},
}

var catalogGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a stored catalog as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			catalog, err := store.GetCatalog(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), catalog)
		})
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored catalogs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			names, err := store.ListCatalogs(ctx)
			if err != nil {
				return err
			}
			return printNames(cmd.OutOrStdout(), names)
		})
	},
}

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Manage stored strategies",
}

var strategyPutCmd = &cobra.Command{
	Use:   "put <name> <file>",
	Short: "Store a strategy under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := document.LoadStrategy(args[1])
		if err != nil {
			return err
		}
		return withStore(func(ctx context.Context, store storage.Store) error {
			if err := store.SaveStrategy(ctx, &storage.StoredStrategy{Name: args[0], Strategy: strategy}); err != nil {
				return err
			}
			ui.NewAutoWriter(cmd.OutOrStdout()).Success("Stored strategy %s (%d steps)", args[0], len(strategy.Steps))
			return nil
		})
	},
}

var strategyGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a stored strategy as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			strategy, err := store.GetStrategy(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), strategy)
		})
	},
}

var strategyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored strategies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			names, err := store.ListStrategies(ctx)
			if err != nil {
				return err
			}
			return printNames(cmd.OutOrStdout(), names)
		})
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored calculation results",
}

var (
	resultsStrategy string
	resultsCatalog  string
	resultsSince    time.Duration
	resultsLimit    int
	resultsDesc     bool
)

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := &storage.ListFilter{
			Strategy:  resultsStrategy,
			Catalog:   resultsCatalog,
			Limit:     resultsLimit,
			OrderDesc: resultsDesc,
		}
		if resultsSince > 0 {
			filter.Since = time.Now().Add(-resultsSince)
		}

		return withStore(func(ctx context.Context, store storage.Store) error {
			results, err := store.ListResults(ctx, filter)
			if err != nil {
				return err
			}
			w := ui.NewAutoWriter(cmd.OutOrStdout())
			if len(results) == 0 {
				w.Warning("No stored results")
				return nil
			}
			table := w.NewTable("ID", "CREATED", "STRATEGY", "CATALOG", "FINAL PRICE").AlignRight(4)
			for _, r := range results {
				table.AddRow(
					r.ID,
					r.CreatedAt.Format(time.RFC3339),
					orDash(r.Strategy),
					orDash(r.Catalog),
					determinism.NewMoneyFromFloat(r.FinalPrice, "").StringFixed(2))
			}
			table.Render()
			return nil
		})
	},
}

var resultsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a stored result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			result, err := store.GetResult(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogPutCmd, catalogGetCmd, catalogListCmd)

	rootCmd.AddCommand(strategyCmd)
	strategyCmd.AddCommand(strategyPutCmd, strategyGetCmd, strategyListCmd)

	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd, resultsGetCmd)

	resultsListCmd.Flags().StringVar(&resultsStrategy, "strategy", "", "only results of this stored strategy")
	resultsListCmd.Flags().StringVar(&resultsCatalog, "catalog", "", "only results of this stored catalog")
	resultsListCmd.Flags().DurationVar(&resultsSince, "since", 0, "only results newer than this (e.g. 24h)")
	resultsListCmd.Flags().IntVar(&resultsLimit, "limit", 20, "maximum number of results (0 for all)")
	resultsListCmd.Flags().BoolVar(&resultsDesc, "desc", true, "newest first")
}

// withStore opens the configured store for the duration of fn
func withStore(fn func(ctx context.Context, store storage.Store) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(context.Background(), store)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printNames(w io.Writer, names []string) error {
	for _, name := range names {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
