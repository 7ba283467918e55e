// SPDX-License-Identifier: EPL-2.0

// Package config provides the YAML configuration schema and loader for the
// audload command.
package config

import (
	"github.com/ik5/audload/ops"
	"github.com/ik5/audload/pipeline"
	"github.com/ik5/audload/reader"
	"github.com/ik5/audload/shard"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root of the configuration file.
type Config struct {
	LogLevel LogLevel `yaml:"log_level"`
	// MetricsAddr serves Prometheus /metrics when set.
	MetricsAddr string `yaml:"metrics_addr"`

	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Reader    ReaderConfig    `yaml:"reader"`
	Decoder   DecoderConfig   `yaml:"decoder"`
	Resample  ResampleConfig  `yaml:"resample"`
	NonSilent NonSilentConfig `yaml:"nonsilent"`
	Features  FeaturesConfig  `yaml:"features"`
}

type PipelineConfig struct {
	BatchSize  int    `yaml:"batch_size"`
	NumThreads int    `yaml:"num_threads"`
	Device     string `yaml:"device"`
	// Seed 0 asks for a random seed chosen at startup.
	Seed uint32 `yaml:"seed"`

	ShardID      int  `yaml:"shard_id"`
	NumShards    int  `yaml:"num_shards"`
	StickToShard bool `yaml:"stick_to_shard"`

	LastBatchPolicy      string `yaml:"last_batch_policy"`
	PadLastBatchRepeated bool   `yaml:"pad_last_batch_repeated"`
	Shuffle              bool   `yaml:"shuffle"`
	AutoReset            bool   `yaml:"auto_reset"`
	MaxSamplesHint       int    `yaml:"max_samples_hint"`
}

type ReaderConfig struct {
	FileRoot string `yaml:"file_root"`
	FileList string `yaml:"file_list"`
}

type DecoderConfig struct {
	Downmix bool `yaml:"downmix"`
	// SampleRate 0 keeps the native rate.
	SampleRate int `yaml:"sample_rate"`
}

// ResampleConfig resamples every decoded waveform to rate times a factor
// drawn per sample from [min_factor, max_factor], before region detection.
type ResampleConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Rate      int     `yaml:"rate"`
	MinFactor float64 `yaml:"min_factor"`
	MaxFactor float64 `yaml:"max_factor"`
}

type NonSilentConfig struct {
	CutoffDB     float64 `yaml:"cutoff_db"`
	WindowLength int     `yaml:"window_length"`
	// ReferencePower 0 refers to the peak of each signal.
	ReferencePower float64 `yaml:"reference_power"`
	ResetInterval  int     `yaml:"reset_interval"`
}

// FeaturesConfig describes the optional log-mel chain appended after
// region detection.
type FeaturesConfig struct {
	Enabled bool `yaml:"enabled"`
	// Trim cuts the waveform to the detected region first.
	Trim          bool    `yaml:"trim"`
	PreemphCoeff  float32 `yaml:"preemph_coeff"`
	PreemphBorder string  `yaml:"preemph_border"`
	NFFT          int     `yaml:"nfft"`
	WindowLength  int     `yaml:"window_length"`
	WindowStep    int     `yaml:"window_step"`
	NFilter       int     `yaml:"nfilter"`
	DBMultiplier  float64 `yaml:"to_db_multiplier"`
	DBCutoff      float64 `yaml:"to_db_cutoff_db"`
	Normalize     bool    `yaml:"normalize"`
	// Dither is the standard deviation of Gaussian noise added before the
	// spectrogram. 0 disables it.
	Dither float32 `yaml:"dither"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Pipeline: PipelineConfig{
			BatchSize:       2,
			NumThreads:      1,
			Device:          "cpu",
			NumShards:       1,
			StickToShard:    true,
			LastBatchPolicy: "fill",
			AutoReset:       true,
		},
		Reader: ReaderConfig{
			FileRoot: "./data",
			FileList: "./data/list.txt",
		},
		Decoder:  DecoderConfig{Downmix: true},
		Resample: ResampleConfig{Rate: 16000, MinFactor: 1, MaxFactor: 1},
		NonSilent: NonSilentConfig{
			CutoffDB:      -60,
			WindowLength:  2048,
			ResetInterval: 8192,
		},
		Features: FeaturesConfig{
			Trim:          true,
			PreemphCoeff:  0.97,
			PreemphBorder: "clamp",
			NFFT:          512,
			WindowLength:  320,
			WindowStep:    160,
			NFilter:       80,
			DBMultiplier:  10,
			DBCutoff:      -200,
			Normalize:     true,
		},
	}
}

// Shard returns the shard assignment of this process.
func (p PipelineConfig) Shard() shard.Assignment {
	return shard.Assignment{ShardID: p.ShardID, NumShards: p.NumShards, StickToShard: p.StickToShard}
}

// ReaderOptions translates the pipeline section for reader.New. The policy
// must already have been validated.
func (c *Config) ReaderOptions() reader.Options {
	policy, _ := reader.ParsePolicy(c.Pipeline.LastBatchPolicy)
	return reader.Options{
		BatchSize:            c.Pipeline.BatchSize,
		Shard:                c.Pipeline.Shard(),
		Policy:               policy,
		PadLastBatchRepeated: c.Pipeline.PadLastBatchRepeated,
		Shuffle:              c.Pipeline.Shuffle,
		Seed:                 uint64(c.Pipeline.Seed),
	}
}

// GraphConfig translates the pipeline section for pipeline.New. Logger and
// Metrics are left for the caller.
func (c *Config) GraphConfig() pipeline.Config {
	device, _ := pipeline.ParseDevice(c.Pipeline.Device)
	return pipeline.Config{
		BatchSize:      c.Pipeline.BatchSize,
		NumThreads:     c.Pipeline.NumThreads,
		Device:         device,
		Seed:           c.Pipeline.Seed,
		FileRoot:       c.Reader.FileRoot,
		MaxSamplesHint: c.Pipeline.MaxSamplesHint,
	}
}

func (d DecoderConfig) Options() ops.DecoderOptions {
	return ops.DecoderOptions{Downmix: d.Downmix, SampleRate: d.SampleRate}
}

func (r ResampleConfig) Options() ops.RateOptions {
	return ops.RateOptions{Base: r.Rate, MinFactor: r.MinFactor, MaxFactor: r.MaxFactor}
}

func (n NonSilentConfig) Options() ops.RegionOptions {
	return ops.RegionOptions{
		CutoffDB:       n.CutoffDB,
		WindowLength:   n.WindowLength,
		ReferencePower: n.ReferencePower,
		ResetInterval:  n.ResetInterval,
	}
}
