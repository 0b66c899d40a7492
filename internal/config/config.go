package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jask/flowdesk/internal/workflow"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	Remote    RemoteConfig
	Mutations MutationsConfig
	Fixtures  FixturesConfig
	Log       LogConfig
	UI        UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// RemoteConfig points at the workflow server's GraphQL endpoint.
type RemoteConfig struct {
	Endpoint             string
	Offline              bool
	IntrospectionTimeout time.Duration `mapstructure:"introspection_timeout"`
	Token                string
}

// MutationsConfig lists, per node kind, the mutation names shown first in
// a node's menu.
type MutationsConfig struct {
	Primary map[string][]string
}

// FixturesConfig selects the offline fixture file. Empty uses the built-in one.
type FixturesConfig struct {
	Path string
}

// LogConfig holds log output settings. The terminal belongs to the UI, so
// logs always go to a file.
type LogConfig struct {
	Level string
	File  string
	JSON  bool
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Workflow string
}

// Offline reports whether mutations should fail without contacting a server.
func (c Config) Offline() bool {
	return c.Remote.Offline || strings.TrimSpace(c.Remote.Endpoint) == ""
}

// PrimaryFor returns the primary mutation names for kind.
func (c Config) PrimaryFor(kind workflow.Kind) []string {
	return c.Mutations.Primary[string(kind)]
}

// FillPrimary sets the primary mutations of every kind the config leaves
// unset from defaults. Kinds the config names, even with an empty list,
// are kept.
func (c *Config) FillPrimary(defaults map[workflow.Kind][]string) {
	if c.Mutations.Primary == nil {
		c.Mutations.Primary = make(map[string][]string, len(defaults))
	}
	for kind, names := range defaults {
		if _, ok := c.Mutations.Primary[string(kind)]; !ok {
			c.Mutations.Primary[string(kind)] = append([]string(nil), names...)
		}
	}
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "flowdesk")
}

func configPath() string {
	if p := os.Getenv("FLOWDESK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "flowdesk", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix FLOWDESK_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(dataDir(), "flowdesk.db"))
	v.SetDefault("remote.endpoint", "")
	v.SetDefault("remote.offline", false)
	v.SetDefault("remote.introspection_timeout", "10s")
	v.SetDefault("remote.token", "")
	v.SetDefault("mutations.primary", map[string][]string{
		string(workflow.KindWorkflow): {"workflowMutation"},
	})
	v.SetDefault("fixtures.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dataDir(), "flowdesk.log"))
	v.SetDefault("log.json", false)
	v.SetDefault("ui.workflow", "")

	path := configPath()
	v.SetConfigType("toml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("FLOWDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	for kind := range c.Mutations.Primary {
		if !workflow.ValidKind(workflow.Kind(kind)) {
			return Config{}, fmt.Errorf("mutations.primary: unknown node kind %q", kind)
		}
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// The remote token is not written; supply it through FLOWDESK_REMOTE_TOKEN.
func Save(cfg Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("remote.endpoint", cfg.Remote.Endpoint)
	v.Set("remote.offline", cfg.Remote.Offline)
	v.Set("remote.introspection_timeout", cfg.Remote.IntrospectionTimeout.String())
	v.Set("mutations.primary", cfg.Mutations.Primary)
	v.Set("fixtures.path", cfg.Fixtures.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.json", cfg.Log.JSON)
	v.Set("ui.workflow", cfg.UI.Workflow)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
