// Package config provides configuration structures and utilities for
// rival-review. It defines the trend-detection thresholds, the fetch
// settings, and report generation preferences, plus the optional YAML
// configuration file loader.
package config
