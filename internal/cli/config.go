package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/ents/internal/logging"
	"github.com/mesh-intelligence/ents/internal/paths"
	"github.com/mesh-intelligence/ents/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend  = "backend"
	cfgKeyLogLevel = "log.level"

	defaultBackend  = types.BackendSQLite
	defaultLogLevel = "warn"
)

// fileConfig is the content of config.yaml.
type fileConfig struct {
	Backend  string              `yaml:"backend" mapstructure:"backend"`
	DataDir  string              `yaml:"data_dir,omitempty" mapstructure:"data_dir"`
	SQLite   *types.SQLiteConfig `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Log      logging.Config      `yaml:"log" mapstructure:"log"`
	Entities []entityDecl        `yaml:"entities" mapstructure:"entities"`
}

// entityDecl declares one entity type and its properties in order.
type entityDecl struct {
	Type       string         `yaml:"type" mapstructure:"type"`
	Properties []propertyDecl `yaml:"properties" mapstructure:"properties"`
}

type propertyDecl struct {
	Name string `yaml:"name" mapstructure:"name"`
	Kind string `yaml:"kind" mapstructure:"kind"`
}

// loadConfig reads config.yaml from configDir with viper. A missing file
// yields the defaults. ENTS_BACKEND overrides the backend key.
func loadConfig(configDir string) (*fileConfig, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("ents")
	if err := v.BindEnv(cfgKeyBackend); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg fileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// writeConfigIfMissing writes cfg to configDir/config.yaml unless the file
// exists. It reports whether it wrote the file.
func writeConfigIfMissing(configDir string, cfg *fileConfig) (bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// storeConfig turns the file settings into a backend Config.
func (c *fileConfig) storeConfig(dataDir string) types.Config {
	return types.Config{
		Backend:      c.Backend,
		DataDir:      dataDir,
		SQLiteConfig: c.SQLite,
	}
}

// entity returns the declaration for entityType.
func (c *fileConfig) entity(entityType string) (entityDecl, bool) {
	for _, d := range c.Entities {
		if d.Type == entityType {
			return d, true
		}
	}
	return entityDecl{}, false
}

// entityTypes lists the declared types for error messages.
func (c *fileConfig) entityTypes() []string {
	out := make([]string, len(c.Entities))
	for i, d := range c.Entities {
		out[i] = d.Type
	}
	return out
}
