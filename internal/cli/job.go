package cli

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Job describes one revert run: the delta range to cache and how to emit
// the inverse stream. Values resolve in layers: YAML job file first, then
// MAPMEND_* environment variables, then command-line flags.
type Job struct {
	// APIURL is the base URL of the remote editing API.
	APIURL string `yaml:"api_url" env:"MAPMEND_API_URL"`

	// Start and End bound the delta-id range, inclusive.
	Start int64 `yaml:"start" env:"MAPMEND_START"`
	End   int64 `yaml:"end" env:"MAPMEND_END"`

	// Concurrency caps in-flight history fetches. Zero or one means the
	// strictly sequential reference behavior.
	Concurrency int `yaml:"concurrency" env:"MAPMEND_CONCURRENCY"`

	// StrictVersions rejects history records that carry no version field
	// instead of defaulting them to version 1.
	StrictVersions bool `yaml:"strict_versions" env:"MAPMEND_STRICT_VERSIONS"`

	// FailFast aborts the stream on the first entity whose inverse fails.
	FailFast bool `yaml:"fail_fast" env:"MAPMEND_FAIL_FAST"`

	// Out is the output file for the inverse stream; empty means stdout.
	Out string `yaml:"out" env:"MAPMEND_OUT"`

	// CacheDir overrides where the per-run cache file is created; empty
	// means the OS temp directory.
	CacheDir string `yaml:"cache_dir" env:"MAPMEND_CACHE_DIR"`
}

// LoadJob reads a YAML job file (optional) and applies environment
// overrides. An empty path skips the file layer.
func LoadJob(path string) (Job, error) {
	var job Job

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return job, fmt.Errorf("read job file: %w", err)
		}
		if err := yaml.Unmarshal(data, &job); err != nil {
			return job, fmt.Errorf("parse job file %s: %w", path, err)
		}
	}

	if err := env.Parse(&job); err != nil {
		return job, fmt.Errorf("parse environment: %w", err)
	}

	return job, nil
}

// Validate checks that the job is runnable.
func (j Job) Validate() error {
	if j.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if j.Start <= 0 {
		return fmt.Errorf("start must be a positive delta id, got %d", j.Start)
	}
	if j.End < j.Start {
		return fmt.Errorf("invalid delta range [%d, %d]", j.Start, j.End)
	}
	if j.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", j.Concurrency)
	}
	return nil
}
