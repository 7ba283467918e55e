// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/ik5/audload/internal/observe"
	"github.com/ik5/audload/loaderr"
)

// Device selects where stage kernels run.
type Device int

const (
	CPU Device = iota
	// Accelerator is accepted for compatibility with configurations written
	// for GPU loaders. Stages still run on the host.
	Accelerator
)

func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	case Accelerator:
		return "accelerator"
	default:
		return fmt.Sprintf("Device(%d)", int(d))
	}
}

// ParseDevice accepts cpu, accelerator or gpu.
func ParseDevice(s string) (Device, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpu", "":
		return CPU, nil
	case "accelerator", "gpu":
		return Accelerator, nil
	default:
		return 0, fmt.Errorf("%w: device %q", loaderr.ErrConfiguration, s)
	}
}

// Config holds the static settings of a Graph.
type Config struct {
	BatchSize  int
	NumThreads int
	Device     Device
	// Seed feeds the per-sample random streams of stochastic stages.
	Seed uint32
	// FileRoot is joined onto relative manifest paths.
	FileRoot string
	// MaxSamplesHint pre-sizes every stage buffer so that the arena does not
	// grow during the first batches.
	MaxSamplesHint int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics may be nil.
	Metrics *observe.Metrics
	// Tracer receives one span per run. Default: the global provider's.
	Tracer trace.Tracer
}

func (c Config) validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size %d must be positive", loaderr.ErrConfiguration, c.BatchSize)
	case c.NumThreads <= 0:
		return fmt.Errorf("%w: num_threads %d must be positive", loaderr.ErrConfiguration, c.NumThreads)
	case c.Device != CPU && c.Device != Accelerator:
		return fmt.Errorf("%w: device %v", loaderr.ErrConfiguration, c.Device)
	case c.MaxSamplesHint < 0:
		return fmt.Errorf("%w: max_samples_hint %d must not be negative", loaderr.ErrConfiguration, c.MaxSamplesHint)
	}
	return nil
}
