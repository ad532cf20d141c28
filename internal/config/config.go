// Package config loads CLI configuration from the raas directory.
//
// Two access paths exist: the viper singleton (Init + Get*) used by the
// command layer for flag/env/file precedence, and LoadLocal, which parses
// config.yaml directly so the config command can report file- and
// env-derived settings as written.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tarka-io/raas/internal/debug"
)

const (
	dirEnv      = "RAAS_DIR"
	envPrefix   = "RAAS"
	configName  = "config"
	dbFileName  = "raas.db"
)

var v *viper.Viper

// Dir returns the raas configuration directory: $RAAS_DIR if set, otherwise
// ~/.raas.
func Dir() string {
	if dir := os.Getenv(dirEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".raas"
	}
	return filepath.Join(home, ".raas")
}

// DefaultDBPath returns the database path within dir.
func DefaultDBPath(dir string) string {
	return filepath.Join(dir, dbFileName)
}

// Init sets up the viper singleton: config.yaml in dir, RAAS_* environment
// overrides. Missing config files are fine; everything has a default or a
// flag.
func Init(dir string) error {
	nv := viper.New()
	nv.SetConfigName(configName)
	nv.SetConfigType("yaml")
	nv.AddConfigPath(dir)
	nv.SetEnvPrefix(envPrefix)
	nv.AutomaticEnv()

	if err := nv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return err
		}
		debug.Logf("config: no config file in %s, using defaults", dir)
	}
	v = nv
	return nil
}

// GetString returns a config value through the viper singleton, or "" when
// Init has not run.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool returns a boolean config value through the viper singleton.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// LocalConfig is the subset of config.yaml read directly from disk.
type LocalConfig struct {
	DBPath         string `yaml:"db"`
	Actor          string `yaml:"actor"`
	Persona        string `yaml:"persona"`
	NoPersonaCheck bool   `yaml:"no-persona-check"`
	JSON           bool   `yaml:"json"`
}

// LoadLocal reads and parses config.yaml from dir. Returns an empty config
// (not nil) if the file is missing or malformed.
func LoadLocal(dir string) *LocalConfig {
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml")) // #nosec G304 - path from config dir
	if err != nil {
		return &LocalConfig{}
	}
	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		debug.Warnf("config: malformed config.yaml in %s: %v", dir, err)
		return &LocalConfig{}
	}
	return &cfg
}

// LoadLocalWithEnv reads config.yaml and applies environment overrides.
// RAAS_DB, RAAS_ACTOR and RAAS_PERSONA take precedence over file values.
func LoadLocalWithEnv(dir string) *LocalConfig {
	cfg := LoadLocal(dir)
	if db := os.Getenv("RAAS_DB"); db != "" {
		cfg.DBPath = db
	}
	if actor := os.Getenv("RAAS_ACTOR"); actor != "" {
		cfg.Actor = actor
	}
	if persona := os.Getenv("RAAS_PERSONA"); persona != "" {
		cfg.Persona = persona
	}
	return cfg
}
