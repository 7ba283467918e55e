// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ik5/audload/loaderr"
	"github.com/ik5/audload/ops"
	"github.com/ik5/audload/pipeline"
	"github.com/ik5/audload/reader"
)

// Load reads the YAML configuration file at path and returns a validated
// Config. It is a convenience wrapper around LoadFromReader.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", loaderr.ErrConfiguration, path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over Default and validates the result.
// Unknown keys are rejected. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode yaml: %w", loaderr.ErrConfiguration, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every problem, matching loaderr.ErrConfiguration.
func Validate(cfg *Config) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !cfg.LogLevel.IsValid() {
		add("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel)
	}

	p := cfg.Pipeline
	if p.BatchSize <= 0 {
		add("pipeline.batch_size %d must be positive", p.BatchSize)
	}
	if p.NumThreads <= 0 {
		add("pipeline.num_threads %d must be positive", p.NumThreads)
	}
	if _, err := pipeline.ParseDevice(p.Device); err != nil {
		add("pipeline.device %q is invalid; valid values: cpu, accelerator", p.Device)
	}
	if err := p.Shard().Validate(); err != nil {
		add("pipeline shard: %w", err)
	}
	if _, err := reader.ParsePolicy(p.LastBatchPolicy); err != nil {
		add("pipeline.last_batch_policy %q is invalid; valid values: fill, drop, partial", p.LastBatchPolicy)
	}
	if p.MaxSamplesHint < 0 {
		add("pipeline.max_samples_hint %d must not be negative", p.MaxSamplesHint)
	}

	if cfg.Reader.FileList == "" {
		add("reader.file_list is required")
	}
	if cfg.Decoder.SampleRate < 0 {
		add("decoder.sample_rate %d must not be negative", cfg.Decoder.SampleRate)
	}

	if r := cfg.Resample; r.Enabled {
		if r.Rate <= 0 {
			add("resample.rate %d must be positive", r.Rate)
		} else if _, err := ops.NewUniformRate(r.Options()); err != nil {
			add("resample: %w", err)
		}
	}

	if _, err := ops.NewNonSilentRegion(cfg.NonSilent.Options()); err != nil {
		add("nonsilent: %w", err)
	}

	if f := cfg.Features; f.Enabled {
		if _, err := ops.ParseBorder(f.PreemphBorder); err != nil {
			add("features.preemph_border: %w", err)
		}
		if f.Dither < 0 {
			add("features.dither %v must not be negative", f.Dither)
		}
		if _, err := ops.NewSpectrogram(ops.SpectrogramOptions{NFFT: f.NFFT, WindowLength: f.WindowLength, WindowStep: f.WindowStep}); err != nil {
			add("features: %w", err)
		}
		if f.NFilter <= 0 {
			add("features.nfilter %d must be positive", f.NFilter)
		}
	}
	if !cfg.Decoder.Downmix {
		slog.Warn("region detection needs mono audio; decoder.downmix is off so multi-channel files will fail the run")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", loaderr.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}
