// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"log/slog"

	"github.com/ik5/audload/internal/config"
	"github.com/ik5/audload/internal/observe"
	"github.com/ik5/audload/ops"
	"github.com/ik5/audload/pipeline"
	"github.com/ik5/audload/reader"
)

// Stage names of the graph built from a configuration.
const (
	stageAudio    = "audio"
	stageRate     = "rate"
	stageResample = "resampled"
	stageRegions  = "regions"
	stageTrimmed  = "trimmed"
	stageFeatures = "features"
)

// buildGraph declares and builds decoder -> regions -> trimmed, with a
// per-sample resample after the decoder when enabled and the log-mel chain
// appended when features are enabled. It returns the graph and the name of
// the output to iterate as features.
func buildGraph(cfg *config.Config, r *reader.FileReader, log *slog.Logger, m *observe.Metrics) (*pipeline.Graph, string, error) {
	gc := cfg.GraphConfig()
	gc.Logger = log
	gc.Metrics = m

	g, err := pipeline.New(gc)
	if err != nil {
		return nil, "", err
	}

	dec, err := ops.NewAudioDecoder(cfg.Decoder.Options())
	if err != nil {
		return nil, "", err
	}
	det, err := ops.NewNonSilentRegion(cfg.NonSilent.Options())
	if err != nil {
		return nil, "", err
	}

	file, _ := g.Input(r)
	audio := g.Add(stageAudio, dec, file)
	if rc := cfg.Resample; rc.Enabled {
		rate, err := ops.NewUniformRate(rc.Options())
		if err != nil {
			return nil, "", err
		}
		audio = g.Add(stageResample, ops.NewResample(), audio, g.Add(stageRate, rate, audio))
	}
	regions := g.Add(stageRegions, det, audio)
	trimmed := g.Add(stageTrimmed, ops.NewSlice(), audio, regions)
	outputs := []string{audio, regions, trimmed}
	features := trimmed

	if f := cfg.Features; f.Enabled {
		src := audio
		if f.Trim {
			src = trimmed
		}
		if features, err = addFeatures(g, f, src); err != nil {
			return nil, "", err
		}
		outputs = append(outputs, features)
	}

	g.SetOutputs(outputs...)
	if err := g.Build(); err != nil {
		return nil, "", err
	}
	return g, features, nil
}

func addFeatures(g *pipeline.Graph, f config.FeaturesConfig, src string) (string, error) {
	x := src
	if f.Dither > 0 {
		noise, err := ops.NewGaussianNoise(ops.NoiseOptions{StdDev: f.Dither})
		if err != nil {
			return "", err
		}
		x = g.Add("dither", noise, x)
	}

	border, err := ops.ParseBorder(f.PreemphBorder)
	if err != nil {
		return "", err
	}
	pre, err := ops.NewPreemphasis(ops.PreemphasisOptions{Coeff: f.PreemphCoeff, Border: border})
	if err != nil {
		return "", err
	}
	spec, err := ops.NewSpectrogram(ops.SpectrogramOptions{
		NFFT:         f.NFFT,
		WindowLength: f.WindowLength,
		WindowStep:   f.WindowStep,
		Center:       true,
	})
	if err != nil {
		return "", err
	}
	mel, err := ops.NewMelFilterBank(ops.MelOptions{NFilter: f.NFilter})
	if err != nil {
		return "", err
	}
	db, err := ops.NewToDecibels(ops.DecibelOptions{Multiplier: f.DBMultiplier, CutoffDB: f.DBCutoff})
	if err != nil {
		return "", err
	}

	x = g.Add("preemphasis", pre, x)
	x = g.Add("spectrogram", spec, x)
	x = g.Add("mel", mel, x)

	if !f.Normalize {
		return g.Add(stageFeatures, db, x), nil
	}
	x = g.Add("decibels", db, x)
	norm, err := ops.NewNormalize(ops.NormalizeOptions{PerRow: true})
	if err != nil {
		return "", err
	}
	return g.Add(stageFeatures, norm, x), nil
}
