// SPDX-License-Identifier: EPL-2.0

// Package ops holds the stage operators plugged into a pipeline.Graph.
//
// Each operator implements pipeline.Op: it reads the buffers of its inputs
// for one sample and writes one output buffer. Operators hold only
// configuration and pooled scratch space, so one value can serve every
// worker.
//
//	AudioDecoder     file        -> waveform
//	NonSilentRegion  waveform    -> [begin, length]
//	Slice            waveform, region -> waveform
//	Preemphasis      waveform    -> waveform
//	GaussianNoise    any         -> same shape
//	UniformRate      any         -> [rate]
//	Resample         waveform, rate -> waveform
//	Spectrogram      waveform    -> [bins, frames]
//	MelFilterBank    [bins, frames] -> [nfilter, frames]
//	ToDecibels       any         -> same shape
//	Normalize        any         -> same shape
//
// Constructors validate options and report mistakes as
// loaderr.ErrConfiguration.
package ops
