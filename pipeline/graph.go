// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/audload/internal/observe"
	"github.com/ik5/audload/loaderr"
	"github.com/ik5/audload/manifest"
	"github.com/ik5/audload/reader"
)

// Names of the reader outputs declared by Graph.Input.
const (
	FileOutput  = "file"
	LabelOutput = "label"
)

// State is the lifecycle position of a Graph.
type State int

const (
	// Declared accepts Input, Add and SetOutputs.
	Declared State = iota
	// Built has a validated stage order and allocated buffers; Run may be
	// called.
	Built
	// Running is held while a batch is being produced.
	Running
	// Closed is terminal. Build, Run and Reset return loaderr.ErrClosedPipeline.
	Closed
)

func (s State) String() string {
	switch s {
	case Declared:
		return "declared"
	case Built:
		return "built"
	case Running:
		return "running"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type stage struct {
	name   string
	op     Op
	inputs []string
	in     []int
}

// Graph is a DAG of stages fed by a FileReader. Stages are declared with
// Input and Add, resolved once by Build, and executed for one batch per Run.
//
// Run, Reset and Close serialise on one lock, so Close waits for an
// in-flight batch to drain before releasing the arena.
type Graph struct {
	cfg Config
	log *slog.Logger

	mu    sync.Mutex
	state State

	reader  *reader.FileReader
	stages  []stage
	byName  map[string]int
	outputs []string
	declErr []error

	order   []int
	bufs    [][]Buffer
	ins     [][][]*Buffer
	entries []manifest.Entry
	samples []Sample
	fails   []error
	batch   Batch
}

// New validates cfg and returns an empty graph in the Declared state.
func New(cfg Config) (*Graph, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Graph{
		cfg:    cfg,
		log:    log,
		byName: make(map[string]int),
	}, nil
}

// reject records a declaration problem for Build. Once the graph has left
// Declared nothing reads declErr again, so the problem is logged instead.
func (g *Graph) reject(err error) {
	if g.state != Declared {
		g.log.Warn("declaration ignored", "state", g.state, "err", err)
		return
	}
	g.declErr = append(g.declErr, err)
}

func (g *Graph) declare(name string, op Op, inputs []string) {
	if g.state != Declared {
		g.reject(fmt.Errorf("stage %q declared after build", name))
		return
	}
	if name == "" {
		g.reject(errors.New("stage with empty name"))
		return
	}
	if _, dup := g.byName[name]; dup {
		g.reject(fmt.Errorf("stage %q declared twice", name))
		return
	}
	g.byName[name] = len(g.stages)
	g.stages = append(g.stages, stage{name: name, op: op, inputs: inputs})
}

// Input sets the reader feeding the graph and declares its two outputs:
// FileOutput (Ref holds the resolved path) and LabelOutput (Ints holds the
// label).
func (g *Graph) Input(r *reader.FileReader) (file, label string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Declared {
		g.reject(errors.New("input reader set after build"))
		return FileOutput, LabelOutput
	}
	if g.reader != nil {
		g.reject(errors.New("input reader set twice"))
		return FileOutput, LabelOutput
	}
	g.reader = r
	g.declare(FileOutput, nil, nil)
	g.declare(LabelOutput, nil, nil)
	return FileOutput, LabelOutput
}

// Add declares stage name computing op over inputs and returns name so
// declarations can be chained. Problems are reported by Build; after Build
// the declaration is ignored and logged at warn level.
func (g *Graph) Add(name string, op Op, inputs ...string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if op == nil {
		g.reject(fmt.Errorf("stage %q has no op", name))
		return name
	}
	g.declare(name, op, inputs)
	return name
}

// SetOutputs names the stages exposed by every Batch.
func (g *Graph) SetOutputs(names ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Declared {
		g.reject(fmt.Errorf("outputs %q set after build", names))
		return
	}
	g.outputs = append(g.outputs[:0], names...)
}

// State returns the current lifecycle state.
func (g *Graph) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state
}

// Outputs returns the declared output names.
func (g *Graph) Outputs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]string(nil), g.outputs...)
}

// Build resolves the stage order and allocates one buffer per stage and
// batch slot. Structural mistakes are reported as loaderr.ErrGraph.
func (g *Graph) Build() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case Closed:
		return loaderr.ErrClosedPipeline
	case Built, Running:
		return fmt.Errorf("%w: already built", loaderr.ErrGraph)
	}

	if err := g.resolve(); err != nil {
		return err
	}
	if g.reader.BatchSize() != g.cfg.BatchSize {
		return fmt.Errorf("%w: reader batch size %d, pipeline batch size %d",
			loaderr.ErrConfiguration, g.reader.BatchSize(), g.cfg.BatchSize)
	}
	if g.cfg.Device == Accelerator {
		g.log.Warn("no accelerator backend, running stages on the host", "device", g.cfg.Device)
	}

	g.allocate()
	g.state = Built

	g.log.Info("pipeline built",
		"stages", len(g.order),
		"batch_size", g.cfg.BatchSize,
		"num_threads", g.cfg.NumThreads,
		"device", g.cfg.Device,
		"outputs", g.outputs,
	)
	return nil
}

func (g *Graph) resolve() error {
	var errs []error
	errs = append(errs, g.declErr...)

	if g.reader == nil {
		errs = append(errs, errors.New("no input reader"))
	}
	if len(g.outputs) == 0 {
		errs = append(errs, errors.New("no outputs set"))
	}
	for _, name := range g.outputs {
		if _, ok := g.byName[name]; !ok {
			errs = append(errs, fmt.Errorf("output %q is not a declared stage", name))
		}
	}

	for i := range g.stages {
		st := &g.stages[i]
		if st.op == nil {
			continue
		}
		if want := st.op.Arity(); want != len(st.inputs) {
			errs = append(errs, fmt.Errorf("stage %q takes %d inputs, got %d", st.name, want, len(st.inputs)))
		}
		st.in = st.in[:0]
		for _, in := range st.inputs {
			idx, ok := g.byName[in]
			if !ok {
				errs = append(errs, fmt.Errorf("stage %q references undeclared input %q", st.name, in))
				continue
			}
			st.in = append(st.in, idx)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", loaderr.ErrGraph, errors.Join(errs...))
	}

	order, err := g.topoSort()
	if err != nil {
		return fmt.Errorf("%w: %w", loaderr.ErrGraph, err)
	}
	g.order = order
	return nil
}

// topoSort orders the op stages with Kahn's algorithm, keeping declaration
// order among independent stages.
func (g *Graph) topoSort() ([]int, error) {
	indeg := make([]int, len(g.stages))
	users := make([][]int, len(g.stages))
	for i, st := range g.stages {
		for _, in := range st.in {
			indeg[i]++
			users[in] = append(users[in], i)
		}
	}

	var queue, order []int
	for i := range g.stages {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	seen := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		seen++
		if g.stages[i].op != nil {
			order = append(order, i)
		}
		for _, u := range users[i] {
			indeg[u]--
			if indeg[u] == 0 {
				queue = append(queue, u)
			}
		}
	}

	if seen != len(g.stages) {
		var cyclic []string
		for i, d := range indeg {
			if d > 0 {
				cyclic = append(cyclic, g.stages[i].name)
			}
		}
		return nil, fmt.Errorf("dependency cycle through %v", cyclic)
	}
	return order, nil
}

func (g *Graph) allocate() {
	n := g.cfg.BatchSize

	g.bufs = make([][]Buffer, len(g.stages))
	g.ins = make([][][]*Buffer, len(g.stages))
	for s, st := range g.stages {
		g.bufs[s] = make([]Buffer, n)
		if st.op != nil && g.cfg.MaxSamplesHint > 0 {
			for i := range g.bufs[s] {
				g.bufs[s][i].Data = make([]float32, 0, g.cfg.MaxSamplesHint)
			}
		}
	}
	for s, st := range g.stages {
		if st.op == nil {
			continue
		}
		g.ins[s] = make([][]*Buffer, n)
		for i := range n {
			ptrs := make([]*Buffer, len(st.in))
			for k, in := range st.in {
				ptrs[k] = &g.bufs[in][i]
			}
			g.ins[s][i] = ptrs
		}
	}

	g.entries = make([]manifest.Entry, n)
	g.samples = make([]Sample, n)
	g.fails = make([]error, n)

	g.batch = Batch{
		Valid:   make([]bool, 0, n),
		names:   g.outputs,
		outputs: make(map[string][]Buffer, len(g.outputs)),
		index:   make(map[string]int, len(g.outputs)),
	}
	for _, name := range g.outputs {
		g.batch.index[name] = g.byName[name]
	}
}

// Run executes every stage for one batch from the reader and returns it.
// The batch is owned by the graph and valid until the next Run, Reset or
// Close. At the end of the epoch Run returns loaderr.ErrEndOfEpoch.
func (g *Graph) Run(ctx context.Context) (*Batch, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx, span := observe.StartSpan(ctx, g.cfg.Tracer, "audload.pipeline.run")
	defer span.End()

	b, err := g.run(ctx)
	switch {
	case err == nil:
		span.SetAttributes(
			attribute.Int("audload.epoch", b.Epoch),
			attribute.Int("audload.batch", b.Index),
			attribute.Int("audload.samples", b.Size()),
			attribute.Int("audload.failures", len(b.Failures)),
		)
	case errors.Is(err, loaderr.ErrEndOfEpoch):
		span.AddEvent("end of epoch")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return b, err
}

func (g *Graph) run(ctx context.Context) (*Batch, error) {

	switch g.state {
	case Closed:
		return nil, loaderr.ErrClosedPipeline
	case Declared:
		return nil, fmt.Errorf("%w: run before build", loaderr.ErrGraph)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunk, err := g.reader.Next(g.entries)
	if err != nil {
		return nil, err
	}
	g.state = Running
	start := time.Now()

	n := len(chunk.Entries)
	for i, e := range chunk.Entries {
		seed, stream := sampleStream(g.cfg.Seed, chunk.Epoch, chunk.Index, i)
		g.samples[i] = Sample{
			Index:  i,
			Entry:  e,
			Path:   e.Resolve(g.cfg.FileRoot),
			Epoch:  chunk.Epoch,
			Batch:  chunk.Index,
			Seed:   seed,
			Stream: stream,
		}
		g.fails[i] = nil

		file := &g.bufs[g.byName[FileOutput]][i]
		file.Reset()
		file.Ref = g.samples[i].Path
		file.SetInts(e.Label)

		label := &g.bufs[g.byName[LabelOutput]][i]
		label.Reset()
		label.SetInts(e.Label)
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.NumThreads)
	for i := range n {
		eg.Go(func() error {
			return g.runSample(ectx, i)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	b := g.assemble(chunk, n)
	g.cfg.Metrics.RecordBatch(ctx, time.Since(start), n, len(b.Failures))
	return b, nil
}

func (g *Graph) runSample(ctx context.Context, i int) error {
	s := &g.samples[i]

	for k, si := range g.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := &g.stages[si]
		out := &g.bufs[si][i]
		out.Reset()
		s.Stage = k

		t0 := time.Now()
		err := st.op.Apply(ctx, s, g.ins[si][i], out)
		g.cfg.Metrics.RecordStage(ctx, st.name, time.Since(t0))
		if err == nil {
			continue
		}

		if !errors.Is(err, loaderr.ErrDecode) {
			return fmt.Errorf("stage %q, sample %d (%s): %w", st.name, i, s.Path, err)
		}

		g.fails[i] = err
		g.log.Warn("sample flagged invalid", "stage", st.name, "sample", i, "path", s.Path, "err", err)
		// zero-length placeholders for everything this sample produces
		out.Reset()
		for _, rest := range g.order[k+1:] {
			g.bufs[rest][i].Reset()
		}
		return nil
	}
	return nil
}

func (g *Graph) assemble(chunk reader.Chunk, n int) *Batch {
	b := &g.batch
	b.Entries = chunk.Entries
	b.Padded = chunk.Padded
	b.Epoch = chunk.Epoch
	b.Index = chunk.Index
	b.Valid = b.Valid[:0]
	b.Failures = b.Failures[:0]

	for i := range n {
		b.Valid = append(b.Valid, g.fails[i] == nil)
		if g.fails[i] != nil {
			b.Failures = append(b.Failures, Failure{Index: i, Path: g.samples[i].Path, Err: g.fails[i]})
		}
	}
	for name, idx := range b.index {
		b.outputs[name] = g.bufs[idx][:n]
	}
	return b
}

// Reset rewinds the reader to the start of the next epoch.
func (g *Graph) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case Closed:
		return loaderr.ErrClosedPipeline
	case Declared:
		return fmt.Errorf("%w: reset before build", loaderr.ErrGraph)
	}

	g.reader.Reset()
	g.cfg.Metrics.RecordEpoch(context.Background())
	g.log.Debug("reader reset", "epoch", g.reader.Epoch(), "shard_size", g.reader.ShardSize())
	return nil
}

// Epoch returns the reader's epoch.
func (g *Graph) Epoch() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.reader == nil {
		return 0
	}
	return g.reader.Epoch()
}

// Close waits for any running batch, then releases the arena. Every later
// call fails with loaderr.ErrClosedPipeline. Close is idempotent.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Closed {
		return nil
	}
	g.state = Closed
	g.bufs = nil
	g.ins = nil
	g.samples = nil
	g.batch = Batch{}

	g.log.Debug("pipeline closed")
	return nil
}
