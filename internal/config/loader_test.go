package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigFile verifies YAML parsing of the configuration file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("full config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".rivalreview")
		content := `query: "Quiz"
thresholds:
  reviews: 20
  rankJump: 3
  ratingDrop: 0.5
topN: 10
lookbackDays: 14
maxRankAnalysis: 200
maxPages: 5
csvDir: "exports"
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if cf.Query != "Quiz" {
			t.Errorf("expected query 'Quiz', got %q", cf.Query)
		}
		if cf.Thresholds.Reviews != 20 {
			t.Errorf("expected reviews threshold 20, got %d", cf.Thresholds.Reviews)
		}
		if cf.Thresholds.RankJump != 3 {
			t.Errorf("expected rank jump threshold 3, got %d", cf.Thresholds.RankJump)
		}
		if cf.Thresholds.RatingDrop != 0.5 {
			t.Errorf("expected rating drop threshold 0.5, got %v", cf.Thresholds.RatingDrop)
		}
		if cf.TopN != 10 {
			t.Errorf("expected topN 10, got %d", cf.TopN)
		}
		if cf.LookbackDays != 14 {
			t.Errorf("expected lookbackDays 14, got %d", cf.LookbackDays)
		}
		if cf.CSVDir != "exports" {
			t.Errorf("expected csvDir 'exports', got %q", cf.CSVDir)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nonexistent.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed YAML returns an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".rivalreview")
		if err := os.WriteFile(path, []byte("query: [unclosed"), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected an error for malformed YAML")
		}
	})

	t.Run("empty file yields zero-value settings", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".rivalreview")
		if err := os.WriteFile(path, []byte(""), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cf.Query != "" || cf.TopN != 0 {
			t.Errorf("expected zero-value file, got %+v", cf)
		}
	})
}

// TestFileApply verifies that only non-zero file settings override the
// Config defaults.
func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("non-zero settings override defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cf := &File{
			Query:        "Quiz",
			TopN:         10,
			LookbackDays: 7,
			Thresholds:   Thresholds{Reviews: 25},
		}
		cf.Apply(cfg)

		if cfg.Query != "Quiz" {
			t.Errorf("expected query 'Quiz', got %q", cfg.Query)
		}
		if cfg.TopN != 10 {
			t.Errorf("expected TopN 10, got %d", cfg.TopN)
		}
		if cfg.LookbackDays != 7 {
			t.Errorf("expected LookbackDays 7, got %d", cfg.LookbackDays)
		}
		if cfg.ReviewThreshold != 25 {
			t.Errorf("expected ReviewThreshold 25, got %d", cfg.ReviewThreshold)
		}
	})

	t.Run("zero settings leave defaults untouched", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		(&File{}).Apply(cfg)

		if cfg.TopN != DefaultTopN {
			t.Errorf("expected default TopN, got %d", cfg.TopN)
		}
		if cfg.ReviewThreshold != DefaultReviewThreshold {
			t.Errorf("expected default ReviewThreshold, got %d", cfg.ReviewThreshold)
		}
	})
}

// TestFindConfigFile verifies the config file search order.
func TestFindConfigFile(t *testing.T) {
	t.Run("explicit path that exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("query: x"), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})

	t.Run("file in current directory", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("query: x"), 0600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		t.Chdir(dir)
		got := FindConfigFile("")
		if filepath.Base(got) != DefaultConfigFile {
			t.Errorf("expected to find %s in cwd, got %q", DefaultConfigFile, got)
		}
	})
}
