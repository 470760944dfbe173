// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// HTTPConfig holds settings for requests to the note service API.
type HTTPConfig struct {
	// BaseURL is the API root (e.g. "https://api.granola.ai").
	BaseURL string `json:"api_base_url" yaml:"api_base_url"`

	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is sent as User-Agent; the part after "/" is also sent as
	// X-Client-Version (e.g. "Granola/5.354.0").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// Validate checks the HTTP settings.
func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.UserAgent, validation.Required),
	)
}

// CatalogConfig holds settings for the local search index over synced notes.
type CatalogConfig struct {
	// Enabled indexes the output directory after every sync run.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file (default <output_dir>/.catalog/notes.db).
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// Validate checks the catalog settings.
func (c CatalogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MaxResults, validation.Min(0)),
	)
}

// SyncConfig holds settings for one sync run.
type SyncConfig struct {
	HTTPConfig `yaml:",inline"`

	// OutputDir is the root of the year folders.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// CredentialsFile is the desktop app's supabase.json.
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`

	// AccessToken, when set, is used instead of the credentials file.
	AccessToken string `json:"access_token,omitempty" yaml:"access_token,omitempty"`

	// Delay is the pause after each fetched transcript (default 100ms).
	Delay time.Duration `json:"delay" yaml:"delay"`

	// PageLimit is the number of documents requested (default 100).
	PageLimit int `json:"page_limit" yaml:"page_limit"`

	// LogDir is where run logs are written; LogKeep bounds how many are kept.
	LogDir  string `json:"log_dir" yaml:"log_dir"`
	LogKeep int    `json:"log_keep" yaml:"log_keep"`

	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
}

// Validate checks the whole sync configuration.
func (c SyncConfig) Validate() error {
	if err := c.HTTPConfig.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.CredentialsFile, validation.When(c.AccessToken == "", validation.Required)),
		validation.Field(&c.Delay, validation.Min(time.Duration(0))),
		validation.Field(&c.PageLimit, validation.Required, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.LogKeep, validation.Min(0)),
	); err != nil {
		return err
	}
	if c.Catalog.Enabled {
		return c.Catalog.Validate()
	}
	return nil
}
