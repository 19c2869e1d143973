package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/perfkit/schedtune-validator/internal/estimator"
)

// Config is the harness configuration. Zero values are filled with defaults
// by Load; Validate rejects combinations the sweep cannot run with.
type Config struct {
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Workload  WorkloadConfig  `yaml:"workload"`
	Results   ResultsConfig   `yaml:"results"`
}

// ArtifactsConfig controls where per-item artifacts are written.
type ArtifactsConfig struct {
	// Root is the directory receiving one subdirectory per sweep item.
	Root string `yaml:"root"`
}

// SweepConfig controls the boost sweep itself.
type SweepConfig struct {
	// Boosts are the boost levels to sweep, in execution order.
	Boosts []int `yaml:"boosts"`
	// MarginPct is the allowed relative deviation between estimated and
	// measured average frequencies.
	MarginPct float64 `yaml:"marginPct"`
}

// WorkloadConfig controls workload execution and trace capture artifacts.
type WorkloadConfig struct {
	// RTAppPath is the rt-app executable on the target.
	RTAppPath string `yaml:"rtAppPath"`
	// Launcher is prepended to the workload command line to place it in
	// the tuning group; empty derives a cgexec launcher.
	Launcher []string `yaml:"launcher"`
	// TraceFile is the name of the ftrace text capture inside each item
	// directory.
	TraceFile string `yaml:"traceFile"`
}

// ResultsConfig controls result persistence.
type ResultsConfig struct {
	// DBPath is the SQLite database receiving sweep verdicts; empty
	// disables persistence.
	DBPath string `yaml:"dbPath"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Artifacts: ArtifactsConfig{Root: "artifacts"},
		Sweep: SweepConfig{
			Boosts:    []int{20, 40, 60, 80, 100},
			MarginPct: estimator.DefaultMarginPct,
		},
		Workload: WorkloadConfig{
			RTAppPath: "/usr/bin/rt-app",
			TraceFile: "trace.txt",
		},
	}
}

// Load reads the YAML configuration at path, filling omitted fields with
// defaults and validating the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := Default()
	if c.Artifacts.Root == "" {
		c.Artifacts.Root = defaults.Artifacts.Root
	}
	if len(c.Sweep.Boosts) == 0 {
		c.Sweep.Boosts = defaults.Sweep.Boosts
	}
	if c.Sweep.MarginPct == 0 {
		c.Sweep.MarginPct = defaults.Sweep.MarginPct
	}
	if c.Workload.RTAppPath == "" {
		c.Workload.RTAppPath = defaults.Workload.RTAppPath
	}
	if c.Workload.TraceFile == "" {
		c.Workload.TraceFile = defaults.Workload.TraceFile
	}
}

// Validate checks for values the sweep cannot run with.
func (c *Config) Validate() error {
	if len(c.Sweep.Boosts) == 0 {
		return fmt.Errorf("sweep needs at least one boost level")
	}
	for _, boost := range c.Sweep.Boosts {
		if boost < 0 || boost > 100 {
			return fmt.Errorf("boost must be between 0 and 100, got %d", boost)
		}
	}
	if c.Sweep.MarginPct <= 0 {
		return fmt.Errorf("marginPct must be positive, got %g", c.Sweep.MarginPct)
	}
	return nil
}
