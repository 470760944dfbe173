// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/granola-sync/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Index and search the synced notes",
	Long: `Catalog maintains a local SQLite index over the Markdown files in the
output directory. The index is rebuilt from the files and has no effect on
which notes the sync downloads.`,
}

// --- index subcommand ---

var catalogIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index new and changed notes, prune deleted ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := syncConfig()
		store, err := catalog.Open(cfg.Catalog, cfg.OutputDir)
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := store.Index(context.Background(), os.Stdout)
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
		}
		return nil
	},
}

// --- search subcommand ---

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over note titles and bodies",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog()
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		results, err := store.Search(context.Background(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return printResults(results, jsonOutput)
	},
}

// --- list subcommand ---

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog()
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		results, err := store.List(context.Background(), limit)
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return printResults(results, jsonOutput)
	},
}

func openCatalog() (*catalog.Store, error) {
	cfg := syncConfig()
	return catalog.Open(cfg.Catalog, cfg.OutputDir)
}

func printResults(results []catalog.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-40s  %s\n", "Date", "Title", "Path")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range results {
		date := r.CreatedAt
		if len(date) > 10 {
			date = date[:10]
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-40s  %s\n", date, truncate(r.Title, 40), r.Path)
		if r.Snippet != "" {
			fmt.Fprintf(os.Stdout, "            %s\n", r.Snippet)
		}
	}
	return nil
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func init() {
	for _, c := range []*cobra.Command{catalogSearchCmd, catalogListCmd} {
		c.Flags().Int("limit", 0, "maximum number of results (default from catalog.max_results)")
		c.Flags().Bool("json", false, "output results as JSON")
	}

	catalogCmd.AddCommand(catalogIndexCmd, catalogSearchCmd, catalogListCmd)
	rootCmd.AddCommand(catalogCmd)
}
