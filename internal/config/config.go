// Package config resolves startup configuration from CLI flags and the
// optional per-site credential file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/forumhq/discourse-mcp/internal/discourse"
	"github.com/forumhq/discourse-mcp/internal/site"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the resolved startup configuration.
type Config struct {
	// Site, when set, tethers the process to one site: it is pre-selected
	// and the selection tool is hidden.
	Site string

	AllowWrites bool
	ToolsMode   string `validate:"oneof=local discover"`

	// Default credential; the admin-style and user-scoped pairs are
	// mutually exclusive.
	APIKey          string
	APIUsername     string
	UserAPIKey      string
	UserAPIClientID string

	// Optional HTTP Basic gate in front of the site, additive to the
	// primary credential.
	BasicUser string
	BasicPass string

	// SitesFile points at a YAML file with per-site credential overrides.
	SitesFile string

	SearchPrefix      string
	Timeout           time.Duration `validate:"min=1s"`
	RateLimitInterval time.Duration `validate:"min=0"`
	MaxResponseBytes  int           `validate:"min=1024"`
	CacheTTL          time.Duration `validate:"min=0"`
	AllowedUploadDirs []string
}

// Default returns the baseline configuration before flags are applied.
func Default() Config {
	return Config{
		ToolsMode:         "local",
		Timeout:           30 * time.Second,
		RateLimitInterval: 2 * time.Second,
		MaxResponseBytes:  50_000,
		CacheTTL:          30 * time.Second,
	}
}

// Validate checks flag-level constraints plus credential exclusivity.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.APIKey != "" && c.UserAPIKey != "" {
		return errors.New("config: --api-key and --user-api-key are mutually exclusive")
	}
	if (c.BasicUser == "") != (c.BasicPass == "") {
		return errors.New("config: --basic-user and --basic-pass must be set together")
	}
	return nil
}

// Credential builds the default credential from the flag values.
func (c *Config) Credential() discourse.Credential {
	switch {
	case c.APIKey != "":
		return discourse.APIKeyCredential(c.APIKey, c.APIUsername)
	case c.UserAPIKey != "":
		return discourse.UserAPIKeyCredential(c.UserAPIKey, c.UserAPIClientID)
	default:
		return discourse.AnonymousCredential()
	}
}

// siteFile is the YAML shape of the per-site credential overrides.
type siteFile struct {
	Sites []siteEntry `yaml:"sites"`
}

type siteEntry struct {
	URL             string `yaml:"url" validate:"required"`
	APIKey          string `yaml:"api_key"`
	APIUsername     string `yaml:"api_username"`
	UserAPIKey      string `yaml:"user_api_key"`
	UserAPIClientID string `yaml:"user_api_client_id"`
}

// LoadSiteFile reads the overrides file. Entry order is preserved; the site
// state matches overrides first-wins on exact base address.
func LoadSiteFile(path string) ([]site.Registration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading sites file: %w", err)
	}
	var f siteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parsing sites file: %w", err)
	}

	regs := make([]site.Registration, 0, len(f.Sites))
	for i, e := range f.Sites {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("config: sites[%d]: %w", i, err)
		}
		if e.APIKey != "" && e.UserAPIKey != "" {
			return nil, fmt.Errorf("config: sites[%d] (%s): api_key and user_api_key are mutually exclusive", i, e.URL)
		}
		var cred discourse.Credential
		switch {
		case e.APIKey != "":
			cred = discourse.APIKeyCredential(e.APIKey, e.APIUsername)
		case e.UserAPIKey != "":
			cred = discourse.UserAPIKeyCredential(e.UserAPIKey, e.UserAPIClientID)
		default:
			cred = discourse.AnonymousCredential()
		}
		regs = append(regs, site.Registration{Base: e.URL, Cred: cred})
	}
	return regs, nil
}
