package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/interval-walk/interval-walk-app/internal/walker"
)

// appConfig is everything the host needs to assemble the application. Values
// come from (highest wins): command-line flags, INTERVAL_WALK_* environment
// variables, ~/.interval-walk/config.yaml, built-in defaults.
type appConfig struct {
	StateDir      string `mapstructure:"state_dir"`
	DBPath        string `mapstructure:"db_path"`
	LogPath       string `mapstructure:"log_path"`
	FormulaFile   string `mapstructure:"formula_file"`
	Voice         bool   `mapstructure:"voice"`
	SpeechCommand string `mapstructure:"speech_command"`
	Bell          bool   `mapstructure:"bell"`

	// Ad-hoc formula from flags; used when any of the three counts is set.
	SlowSeconds int  `mapstructure:"slow_seconds"`
	FastSeconds int  `mapstructure:"fast_seconds"`
	Sets        int  `mapstructure:"sets"`
	FastFirst   bool `mapstructure:"fast_first"`
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".interval-walk"
	}
	return filepath.Join(home, ".interval-walk")
}

// registerConfigFlags declares the shared flags on a flag set and binds them
// into viper so flag > env > file > default resolution works uniformly.
func registerConfigFlags(flags *pflag.FlagSet, v *viper.Viper) {
	stateDir := defaultStateDir()

	flags.String("state-dir", stateDir, "directory for config, logs and timer state")
	flags.String("db-path", filepath.Join(stateDir, "sessions.db"), "path to the session history database")
	flags.String("log-path", filepath.Join(stateDir, "interval-walk.log"), "path to the rotating log file")
	flags.String("formula-file", filepath.Join(stateDir, "formulas.yaml"), "path to a YAML file with extra formulas")
	flags.Bool("voice", false, "announce phase changes with the speech command")
	flags.String("speech-command", "espeak {phrase}", "command template for spoken announcements")
	flags.Bool("bell", true, "ring the terminal bell on phase changes")
	flags.Int("slow", 0, "slow phase seconds for an ad-hoc formula")
	flags.Int("fast", 0, "fast phase seconds for an ad-hoc formula")
	flags.Int("sets", 0, "set count for an ad-hoc formula")
	flags.Bool("fast-first", false, "start the ad-hoc formula with the fast phase")

	bind := map[string]string{
		"state_dir":      "state-dir",
		"db_path":        "db-path",
		"log_path":       "log-path",
		"formula_file":   "formula-file",
		"voice":          "voice",
		"speech_command": "speech-command",
		"bell":           "bell",
		"slow_seconds":   "slow",
		"fast_seconds":   "fast",
		"sets":           "sets",
		"fast_first":     "fast-first",
	}
	for key, flagName := range bind {
		if err := v.BindPFlag(key, flags.Lookup(flagName)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flagName, err))
		}
	}
}

// loadConfig resolves the final configuration and makes sure the state
// directory exists.
func loadConfig(v *viper.Viper) (appConfig, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("state_dir"))
	v.SetEnvPrefix("INTERVAL_WALK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is the user's typo.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return appConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg appConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("parse config: %w", err)
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return appConfig{}, fmt.Errorf("create state dir: %w", err)
	}
	return cfg, nil
}

// loadFormulas builds the preset list: built-ins, then the user formula file
// (if present), then an ad-hoc formula from flags at the front so it is
// preselected.
func (cfg appConfig) loadFormulas() ([]walker.Formula, error) {
	formulas := append([]walker.Formula(nil), walker.AllFormulas...)

	if cfg.FormulaFile != "" {
		if _, err := os.Stat(cfg.FormulaFile); err == nil {
			extra, err := walker.LoadFormulaFile(cfg.FormulaFile)
			if err != nil {
				return nil, err
			}
			formulas = append(formulas, extra...)
		}
	}

	if cfg.SlowSeconds > 0 || cfg.FastSeconds > 0 || cfg.Sets > 0 {
		custom := walker.Formula{
			Name:           fmt.Sprintf("Custom %d/%d x%d", cfg.SlowSeconds, cfg.FastSeconds, cfg.Sets),
			Kind:           walker.PatternInterval,
			SlowSeconds:    cfg.SlowSeconds,
			FastSeconds:    cfg.FastSeconds,
			Sets:           cfg.Sets,
			StartsWithFast: cfg.FastFirst,
		}
		if err := custom.Validate(); err != nil {
			return nil, fmt.Errorf("ad-hoc formula (--slow/--fast/--sets): %w", err)
		}
		formulas = append([]walker.Formula{custom}, formulas...)
	}

	return formulas, nil
}
