// Package config loads and validates the contentpress configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LinkPolicy controls how dangling internal references affect a build.
type LinkPolicy string

const (
	// LinkPolicyWarn surfaces dangling references as warnings (default).
	LinkPolicyWarn LinkPolicy = "warn"
	// LinkPolicyFail escalates any dangling reference to a build failure.
	LinkPolicyFail LinkPolicy = "fail"
)

// Config represents the application configuration
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Links   LinksConfig   `yaml:"links"`
	Render  RenderConfig  `yaml:"render"`
	Output  OutputConfig  `yaml:"output"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
}

// SiteConfig holds site-wide metadata.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// ContentConfig describes where content units live and how locales resolve.
type ContentConfig struct {
	Dir            string   `yaml:"dir"`
	DefaultLocale  string   `yaml:"default_locale"`
	FallbackLocale string   `yaml:"fallback_locale,omitempty"` // Defaults to default_locale
	Locales        []string `yaml:"locales,omitempty"`         // Restrict ingest; empty means all found
}

// LinksConfig controls reference resolution behavior.
type LinksConfig struct {
	Policy LinkPolicy        `yaml:"policy,omitempty"`
	Events *LinkEventsConfig `yaml:"events,omitempty"`
}

// LinkEventsConfig enables publishing dangling-reference events to NATS.
type LinkEventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// RenderConfig holds the static renderer options.
type RenderConfig struct {
	HighlightTheme string `yaml:"highlight_theme,omitempty"`
	ClassPrefix    string `yaml:"class_prefix,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// CacheConfig holds the render cache location.
type CacheConfig struct {
	Dir     string `yaml:"dir,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

// ServerConfig holds preview server options.
type ServerConfig struct {
	Addr            string `yaml:"addr,omitempty"`
	Metrics         bool   `yaml:"metrics"`
	Watch           bool   `yaml:"watch"`
	RebuildInterval string `yaml:"rebuild_interval,omitempty"` // Go duration; "0" disables periodic rebuild
	RecordDB        string `yaml:"record_db,omitempty"`        // SQLite build record path; empty disables
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env if present so ${VAR} expansion below can see it.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Content Site"
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "./content"
	}
	if c.Content.DefaultLocale == "" {
		c.Content.DefaultLocale = "en-US"
	}
	if c.Content.FallbackLocale == "" {
		c.Content.FallbackLocale = c.Content.DefaultLocale
	}
	if c.Links.Policy == "" {
		c.Links.Policy = LinkPolicyWarn
	}
	if c.Links.Events != nil && c.Links.Events.Subject == "" {
		c.Links.Events.Subject = "contentpress.links.dangling"
	}
	if c.Render.HighlightTheme == "" {
		c.Render.HighlightTheme = "github"
	}
	if c.Render.ClassPrefix == "" {
		c.Render.ClassPrefix = "cp"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./public"
		c.Output.Clean = true
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = ".contentpress"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RebuildInterval == "" {
		c.Server.RebuildInterval = "0"
	}
}

// Validate checks the configuration for inconsistencies that would otherwise
// surface mid-build.
func (c *Config) Validate() error {
	switch c.Links.Policy {
	case LinkPolicyWarn, LinkPolicyFail:
	default:
		return fmt.Errorf("invalid links.policy %q (expected %q or %q)", c.Links.Policy, LinkPolicyWarn, LinkPolicyFail)
	}

	if len(c.Content.Locales) > 0 {
		found := false
		for _, l := range c.Content.Locales {
			if l == c.Content.FallbackLocale {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("fallback locale %q is not in content.locales", c.Content.FallbackLocale)
		}
	}

	if c.Links.Events != nil && c.Links.Events.Enabled && c.Links.Events.NATSURL == "" {
		return fmt.Errorf("links.events.enabled requires links.events.nats_url")
	}

	return nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := `# contentpress configuration
site:
  title: "Interview Prep"
  description: "Front-end interview preparation articles"
  base_url: "https://example.com"

content:
  dir: ./content
  default_locale: en-US
  fallback_locale: en-US

links:
  policy: warn # warn | fail
  # events:
  #   enabled: true
  #   nats_url: nats://localhost:4222
  #   subject: contentpress.links.dangling

render:
  highlight_theme: github
  class_prefix: cp

output:
  directory: ./public
  clean: true

cache:
  enabled: true
  dir: .contentpress

server:
  addr: ":8080"
  metrics: true
  watch: true
  rebuild_interval: "0"
`

	if err := os.WriteFile(configPath, []byte(example), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
