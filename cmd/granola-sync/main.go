// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the granola-sync CLI.
// The root command runs one sync pass; catalog manages the local search
// index over the synced notes.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/pdiddy/granola-sync/internal/catalog"
	"github.com/pdiddy/granola-sync/internal/credentials"
	"github.com/pdiddy/granola-sync/internal/granola"
	"github.com/pdiddy/granola-sync/internal/logfile"
	"github.com/pdiddy/granola-sync/internal/notesync"
	"github.com/pdiddy/granola-sync/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd syncs every remote note into the output directory.
var rootCmd = &cobra.Command{
	Use:   "granola-sync",
	Short: "Sync Granola notes and transcripts to Markdown files",
	Long: `granola-sync downloads the notes and transcripts of your Granola meetings
and writes one Markdown file per meeting under <output_dir>/<year>/.

Each file carries YAML frontmatter (id, title, creation time, participants),
the rendered notes, and a speaker-attributed transcript. Notes whose file
already exists are skipped without contacting the transcript API, so the
command can be run repeatedly.

Settings come from granola-sync.yaml, a .env file, or GRANOLA_SYNC_*
environment variables.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSync,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./granola-sync.yaml or ~/.config/granola-sync/config.yaml)")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := syncConfig()

	var out io.Writer = os.Stdout
	if f, err := logfile.Create(cfg.LogDir, cfg.LogKeep); err != nil {
		fmt.Fprintf(os.Stderr, "warning: run log disabled: %v\n", err)
	} else {
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "configuration error: %v\n", err)
		return nil
	}
	if err := ensureDir(cfg.OutputDir, out); err != nil {
		fmt.Fprintf(out, "configuration error: could not create output directory: %v\n", err)
		return nil
	}
	token, err := credentials.Resolve(cfg.AccessToken, cfg.CredentialsFile)
	if err != nil {
		fmt.Fprintf(out, "configuration error: %v\n", err)
		return nil
	}

	ctx := context.Background()
	client := granola.NewClient(&http.Client{Timeout: cfg.Timeout}, token, cfg.HTTPConfig)
	notesync.Run(ctx, client, cfg, out)

	if cfg.Catalog.Enabled {
		if err := indexCatalog(ctx, cfg, out); err != nil {
			fmt.Fprintf(out, "warning: catalog update failed: %v\n", err)
		}
	}
	return nil
}

// ensureDir creates the output root if it is missing.
func ensureDir(dir string, w io.Writer) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	fmt.Fprintf(w, "Created output directory: %s\n", dir)
	return nil
}

func indexCatalog(ctx context.Context, cfg types.SyncConfig, w io.Writer) error {
	store, err := catalog.Open(cfg.Catalog, cfg.OutputDir)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Index(ctx, w)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
