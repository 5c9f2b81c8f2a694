package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug               = "debug"
	ConfigThreads             = "threads"
	ConfigZobristSeed         = "zobrist-seed"
	ConfigCacheCapacity       = "cache-capacity"
	ConfigCacheMemoryFraction = "cache-memory-fraction"
	ConfigCPUProfile          = "cpu-profile"
	ConfigConfigFile          = "config-file"
	ConfigLevels              = "levels"
)

const envPrefix = "OTHELLO"

// LevelConfig is the strength setting of one level. With iterative
// deepening disabled the level searches only at Depth and MaxTime is not
// enforced.
type LevelConfig struct {
	Depth                     int           `mapstructure:"depth" yaml:"depth"`
	Evaluator                 string        `mapstructure:"evaluator" yaml:"evaluator"`
	MaxTime                   time.Duration `mapstructure:"max-time" yaml:"max-time"`
	DisableTT                 bool          `mapstructure:"disable-tt" yaml:"disable-tt"`
	DisableIterativeDeepening bool          `mapstructure:"disable-iterative-deepening" yaml:"disable-iterative-deepening"`
}

// MaxLevelDepth is the deepest search a level may be configured for; cache
// entries record depth in a byte.
const MaxLevelDepth = math.MaxUint8

// DefaultLevels are used when no levels are configured. Deeper levels get a
// time budget so they stay usable from the shell.
func DefaultLevels() []LevelConfig {
	return []LevelConfig{
		{Depth: 2, Evaluator: "material"},
		{Depth: 3, Evaluator: "mobility"},
		{Depth: 5, Evaluator: "positional"},
		{Depth: 7, Evaluator: "composite"},
		{Depth: 10, Evaluator: "composite", MaxTime: 15 * time.Second},
		{Depth: 15, Evaluator: "composite", MaxTime: 30 * time.Second},
	}
}

type Config struct {
	*viper.Viper
	args []string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigThreads, 1)
	v.SetDefault(ConfigZobristSeed, "")
	v.SetDefault(ConfigCacheCapacity, 0)
	v.SetDefault(ConfigCacheMemoryFraction, 0.0)
	v.SetDefault(ConfigCPUProfile, "")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultConfig returns a configuration with defaults and environment
// overrides applied, but no flags or config file.
func DefaultConfig() *Config {
	return &Config{Viper: newViper()}
}

// Load reads flags from args, then OTHELLO_* environment variables, then
// an optional YAML config file named by --config-file.
func (c *Config) Load(args []string) error {
	if c.Viper == nil {
		c.Viper = newViper()
	}
	fs := pflag.NewFlagSet("othello", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigThreads, 1, "goroutines per search; 0 means one fewer than the number of CPUs")
	fs.String(ConfigZobristSeed, "", "seed for the position fingerprint keys; empty means random")
	fs.Int(ConfigCacheCapacity, 0, "max entries per level cache; 0 means unbounded")
	fs.Float64(ConfigCacheMemoryFraction, 0, "size each level cache to this fraction of system memory")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigConfigFile, "", "YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	if cfgFile := c.GetString(ConfigConfigFile); cfgFile != "" {
		c.SetConfigFile(cfgFile)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}
	return nil
}

// Args are the command line arguments left over after flags.
func (c *Config) Args() []string {
	return c.args
}

// Levels returns the configured levels, in id order starting at level 1.
func (c *Config) Levels() ([]LevelConfig, error) {
	if c.Get(ConfigLevels) == nil {
		return DefaultLevels(), nil
	}
	var levels []LevelConfig
	if err := c.UnmarshalKey(ConfigLevels, &levels); err != nil {
		return nil, fmt.Errorf("parsing levels: %w", err)
	}
	if len(levels) == 0 {
		return nil, errors.New("at least one level must be configured")
	}
	for i, l := range levels {
		if l.Depth < 1 || l.Depth > MaxLevelDepth {
			return nil, fmt.Errorf("level %d: depth must be between 1 and %d", i+1, MaxLevelDepth)
		}
		if l.Evaluator == "" {
			return nil, fmt.Errorf("level %d: no evaluator", i+1)
		}
	}
	return levels, nil
}
