package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".rivalreview"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .rivalreview configuration file.
// Every field is optional; zero values leave the corresponding Config
// default untouched.
type File struct {
	// Query is the marketplace search term to track.
	Query string `yaml:"query,omitempty"`

	// Thresholds groups the trend-detection knobs.
	Thresholds Thresholds `yaml:"thresholds,omitempty"`

	// TopN is the size of the tracked leaderboard.
	TopN int `yaml:"topN,omitempty"`

	// LookbackDays is the review aggregation window in days.
	LookbackDays int `yaml:"lookbackDays,omitempty"`

	// MaxRankAnalysis is the analysis ceiling in rank positions.
	MaxRankAnalysis int `yaml:"maxRankAnalysis,omitempty"`

	// MaxPages caps search-result pagination.
	MaxPages int `yaml:"maxPages,omitempty"`

	// CSVDir is the directory for CSV exports.
	CSVDir string `yaml:"csvDir,omitempty"`
}

// Thresholds holds the numeric alert thresholds from the config file.
type Thresholds struct {
	// Reviews is the minimum window review count for explosive growth.
	Reviews int `yaml:"reviews,omitempty"`

	// RankJump is the minimum rank change for a jump or drop alert.
	RankJump int `yaml:"rankJump,omitempty"`

	// RatingDrop is the minimum overall-minus-recent rating difference
	// for a decline alert.
	RatingDrop float64 `yaml:"ratingDrop,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers decide
// how to treat that based on whether the path was explicitly specified.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// Apply copies the file's non-zero settings onto the Config.
// Flags are applied after the file, so explicit flags always win.
func (cf *File) Apply(c *Config) {
	if cf.Query != "" {
		c.Query = cf.Query
	}
	if cf.Thresholds.Reviews != 0 {
		c.ReviewThreshold = cf.Thresholds.Reviews
	}
	if cf.Thresholds.RankJump != 0 {
		c.RankJumpThreshold = cf.Thresholds.RankJump
	}
	if cf.Thresholds.RatingDrop != 0 {
		c.RatingDropThreshold = cf.Thresholds.RatingDrop
	}
	if cf.TopN != 0 {
		c.TopN = cf.TopN
	}
	if cf.LookbackDays != 0 {
		c.LookbackDays = cf.LookbackDays
	}
	if cf.MaxRankAnalysis != 0 {
		c.MaxRankAnalysis = cf.MaxRankAnalysis
	}
	if cf.MaxPages != 0 {
		c.MaxPages = cf.MaxPages
	}
	if cf.CSVDir != "" {
		c.CSVDir = cf.CSVDir
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .rivalreview in the current directory
// 3. Look for .rivalreview in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if
// not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
