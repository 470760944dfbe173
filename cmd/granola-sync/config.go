// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/granola-sync/internal/catalog"
	"github.com/pdiddy/granola-sync/pkg/types"
)

const (
	defaultBaseURL   = "https://api.granola.ai"
	defaultUserAgent = "Granola/5.354.0"
	defaultTimeout   = 30 * time.Second
	defaultDelay     = 100 * time.Millisecond
	defaultPageLimit = 100
	defaultLogDir    = "logs"
	defaultLogKeep   = 10
)

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("granola-sync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "granola-sync"))
		}
	}

	viper.SetEnvPrefix("GRANOLA_SYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("output_dir", filepath.Join(home, "Granola"))
	v.SetDefault("credentials_file", filepath.Join(home, "Library", "Application Support", "Granola", "supabase.json"))
	v.SetDefault("access_token", "")
	v.SetDefault("api_base_url", defaultBaseURL)
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("timeout", defaultTimeout)
	v.SetDefault("delay", defaultDelay)
	v.SetDefault("page_limit", defaultPageLimit)
	v.SetDefault("log_dir", defaultLogDir)
	v.SetDefault("log_keep", defaultLogKeep)
	v.SetDefault("catalog.enabled", false)
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.max_results", 20)
}

// syncConfig builds the run configuration from the global viper instance.
func syncConfig() types.SyncConfig {
	return syncConfigFrom(viper.GetViper())
}

func syncConfigFrom(v *viper.Viper) types.SyncConfig {
	outputDir := expandHome(v.GetString("output_dir"))

	catalogPath := expandHome(v.GetString("catalog.path"))
	if catalogPath == "" && outputDir != "" {
		catalogPath = catalog.DefaultPath(outputDir)
	}

	return types.SyncConfig{
		HTTPConfig: types.HTTPConfig{
			BaseURL:   v.GetString("api_base_url"),
			Timeout:   v.GetDuration("timeout"),
			UserAgent: v.GetString("user_agent"),
		},
		OutputDir:       outputDir,
		CredentialsFile: expandHome(v.GetString("credentials_file")),
		AccessToken:     v.GetString("access_token"),
		Delay:           v.GetDuration("delay"),
		PageLimit:       v.GetInt("page_limit"),
		LogDir:          expandHome(v.GetString("log_dir")),
		LogKeep:         v.GetInt("log_keep"),
		Catalog: types.CatalogConfig{
			Enabled:    v.GetBool("catalog.enabled"),
			Path:       catalogPath,
			MaxResults: v.GetInt("catalog.max_results"),
		},
	}
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
