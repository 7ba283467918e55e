// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/ik5/audload/formats/wav"
	"github.com/ik5/audload/internal/config"
	"github.com/ik5/audload/internal/observe"
	"github.com/ik5/audload/loaderr"
	"github.com/ik5/audload/manifest"
	"github.com/ik5/audload/pipeline"
	"github.com/ik5/audload/reader"
)

type runFlags struct {
	config   string
	fileRoot string
	fileList string
	logLevel string
	epochs   int
	batches  int
	dump     string
	regions  bool
}

// RunCmd creates the run command.
func RunCmd(env *Env) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the loading pipeline over a file list",
		Long: `Run decodes every file of the list, detects its non-silent region and,
when enabled, computes log-mel features, printing a summary per batch.

Flags override the configuration file; ` + EnvConfig + `, ` + EnvFileRoot + ` and
` + EnvFileList + ` provide defaults for --config, --file-root and --file-list.`,
		Example: `  audload run --config audload.yaml
  audload run --file-list data/list.txt --file-root data --batches 10
  audload run --config audload.yaml --dump trimmed/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context(), env, f)
		},
	}

	cmd.Flags().StringVarP(&f.config, "config", "c", env.Getenv(EnvConfig), "YAML configuration file")
	cmd.Flags().StringVar(&f.fileRoot, "file-root", env.Getenv(EnvFileRoot), "Directory relative list paths are joined to")
	cmd.Flags().StringVar(&f.fileList, "file-list", env.Getenv(EnvFileList), "File list: one \"path label\" per line")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Override log_level: debug, info, warn, error")
	cmd.Flags().IntVar(&f.epochs, "epochs", 1, "Epochs to run when --batches is 0")
	cmd.Flags().IntVar(&f.batches, "batches", 0, "Stop after this many batches (0: run --epochs epochs)")
	cmd.Flags().StringVar(&f.dump, "dump", "", "Write the trimmed audio of every valid sample to this directory")
	cmd.Flags().BoolVar(&f.regions, "regions", false, "Print the region of every sample")

	return cmd
}

func loadConfig(f runFlags) (*config.Config, error) {
	var cfg *config.Config
	if f.config != "" {
		c, err := config.Load(f.config)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Default()
	}

	if f.fileRoot != "" {
		cfg.Reader.FileRoot = f.fileRoot
	}
	if f.fileList != "" {
		cfg.Reader.FileList = f.fileList
	}
	if f.logLevel != "" {
		cfg.LogLevel = config.LogLevel(f.logLevel)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, level config.LogLevel) *slog.Logger {
	var l slog.Level
	_ = l.UnmarshalText([]byte(level))
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func runPipeline(ctx context.Context, env *Env, f runFlags) error {
	if f.epochs < 1 || f.batches < 0 {
		return fmt.Errorf("%w: --epochs must be positive and --batches not negative", loaderr.ErrConfiguration)
	}
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	log := newLogger(env.Stderr, cfg.LogLevel)

	if cfg.Pipeline.Seed == 0 {
		cfg.Pipeline.Seed = rand.Uint32() | 1
		log.Info("random seed chosen", "seed", cfg.Pipeline.Seed)
	}

	var metrics *observe.Metrics
	if cfg.MetricsAddr != "" {
		stop, m, err := serveMetrics(ctx, cfg.MetricsAddr, log)
		if err != nil {
			return err
		}
		defer stop()
		metrics = m
	}

	entries, err := manifest.Load(cfg.Reader.FileList)
	if err != nil {
		return err
	}
	r, err := reader.New(entries, cfg.ReaderOptions())
	if err != nil {
		return err
	}
	log.Info("file list loaded",
		"entries", len(entries),
		"shard", cfg.Pipeline.ShardID,
		"shard_size", r.ShardSize(),
		"batches_per_epoch", r.BatchesPerEpoch(),
	)

	g, features, err := buildGraph(cfg, r, log, metrics)
	if err != nil {
		return err
	}
	defer g.Close()

	it, err := pipeline.NewIterator(g, pipeline.IteratorOptions{
		AutoReset: cfg.Pipeline.AutoReset && f.batches > 0,
		Features:  features,
		Regions:   stageRegions,
	})
	if err != nil {
		return err
	}

	if f.dump != "" {
		if err := os.MkdirAll(f.dump, 0o755); err != nil {
			return fmt.Errorf("dump directory: %w", err)
		}
	}

	var st runStats
	for epochs := 0; ; {
		b, err := it.Next(ctx)
		if errors.Is(err, loaderr.ErrEndOfEpoch) {
			epochs++
			// entries a drop policy left unread
			log.Info("epoch finished", "epoch", it.Epoch(), "unread", r.Remaining())
			if epochs == f.epochs {
				break
			}
			if err := it.Reset(); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		st.add(b)
		report(env, b, f.regions)
		if f.dump != "" {
			if err := dump(f.dump, b, cfg.ReaderOptions().Policy == reader.Fill); err != nil {
				return err
			}
		}
		if f.batches > 0 && st.batches == f.batches {
			break
		}
	}

	fmt.Fprintf(env.Stdout, "%d batches, %d samples, %d invalid\n", st.batches, st.samples, st.invalid)
	return nil
}

type runStats struct {
	batches, samples, invalid int
}

func (s *runStats) add(b *pipeline.Batch) {
	s.batches++
	s.samples += b.Size()
	s.invalid += len(b.Failures)
}

func report(env *Env, b *pipeline.Batch, regions bool) {
	fmt.Fprintf(env.Stdout, "epoch %d batch %d: %d samples, %d invalid, %d padded\n",
		b.Epoch, b.Index, b.Size(), len(b.Failures), b.Padded)
	for _, fail := range b.Failures {
		fmt.Fprintf(env.Stdout, "  invalid %s: %v\n", fail.Path, fail.Err)
	}
	if !regions {
		return
	}
	labels := b.Labels()
	for i, r := range b.Regions() {
		fmt.Fprintf(env.Stdout, "  %s label=%d begin=%d length=%d\n", b.Entries[i].Path, labels[i], r.Begin, r.Length)
	}
}

// dump writes the trimmed audio of the fresh, valid slots of b. Under the
// fill policy the last Padded slots repeat earlier entries and are skipped.
func dump(dir string, b *pipeline.Batch, fill bool) error {
	trimmed := b.Output(stageTrimmed)
	fresh := b.Size()
	if fill {
		fresh -= b.Padded
	}

	for i := range fresh {
		if !b.Valid[i] {
			continue
		}
		name := fmt.Sprintf("e%03d_b%05d_s%03d.wav", b.Epoch, b.Index, i)
		if err := writeWAV(filepath.Join(dir, name), &trimmed[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeWAV(path string, buf *pipeline.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := wav.Encode(f, buf.SampleRate, 1, buf.Data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// serveMetrics installs the Prometheus-backed meter provider and serves
// /metrics on addr until stop is called.
func serveMetrics(ctx context.Context, addr string, log *slog.Logger) (stop func(), m *observe.Metrics, err error) {
	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "audload"})
	if err != nil {
		return nil, nil, fmt.Errorf("metrics provider: %w", err)
	}
	if m, err = observe.NewMetrics(otel.GetMeterProvider()); err != nil {
		_ = shutdown(ctx)
		return nil, nil, fmt.Errorf("metrics instruments: %w", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		_ = shutdown(ctx)
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "err", err)
		}
	}()
	log.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
		_ = shutdown(sctx)
	}, m, nil
}
