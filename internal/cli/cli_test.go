// SPDX-License-Identifier: EPL-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gowav "github.com/go-audio/wav"
	"github.com/joho/godotenv"

	"github.com/ik5/audload/internal/audiotest"
	"github.com/ik5/audload/loaderr"
)

type testEnv struct {
	*Env
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(vars map[string]string) testEnv {
	var out, errOut bytes.Buffer
	return testEnv{
		Env: &Env{
			Stdout: &out,
			Stderr: &errOut,
			Getenv: func(k string) string { return vars[k] },
		},
		stdout: &out,
		stderr: &errOut,
	}
}

// writeData writes n mono files with a burst at [500, 1500) and a file list
// naming them, optionally followed by a missing file.
func writeData(t *testing.T, n int, missing bool) (root, list string) {
	t.Helper()

	root = t.TempDir()
	var lines strings.Builder
	for i := range n {
		name := fmt.Sprintf("clip%d.wav", i)
		audiotest.WriteWAV16(t, root, name, 8000, 1, audiotest.Burst(4000, 500, 1500, 10000))
		fmt.Fprintf(&lines, "%s %d\n", name, i)
	}
	if missing {
		lines.WriteString("gone.wav 99\n")
	}
	list = filepath.Join(root, "list.txt")
	if err := os.WriteFile(list, []byte(lines.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return root, list
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audload.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{context.Canceled, ExitInterrupt},
		{fmt.Errorf("run: %w", context.Canceled), ExitInterrupt},
		{loaderr.ErrConfiguration, ExitUsage},
		{fmt.Errorf("x: %w", loaderr.ErrGraph), ExitUsage},
		{errors.New(`unknown flag: --nope`), ExitUsage},
		{errors.New("disk on fire"), ExitGeneral},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRun_OneEpoch(t *testing.T) {
	t.Parallel()

	root, list := writeData(t, 5, false)
	env := newTestEnv(nil)

	code := Execute(t.Context(), env.Env, "test", []string{
		"run", "--file-root", root, "--file-list", list, "--regions",
	})
	if code != ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr)
	}

	out := env.stdout.String()
	for _, want := range []string{
		"epoch 0 batch 0: 2 samples, 0 invalid, 0 padded",
		"epoch 0 batch 2: 2 samples, 0 invalid, 1 padded",
		"clip3.wav label=3 begin=500 length=1000",
		"3 batches, 6 samples, 0 invalid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(env.stderr.String(), "random seed chosen") {
		t.Errorf("stderr should log the chosen seed:\n%s", env.stderr)
	}
}

func TestRun_InvalidSampleReported(t *testing.T) {
	t.Parallel()

	root, list := writeData(t, 2, true)
	env := newTestEnv(nil)
	cfg := writeConfig(t, "pipeline:\n  batch_size: 3\n  num_threads: 2\n  seed: 7\n")

	code := Execute(t.Context(), env.Env, "test", []string{
		"run", "-c", cfg, "--file-root", root, "--file-list", list,
	})
	if code != ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr)
	}
	if out := env.stdout.String(); !strings.Contains(out, "1 invalid") || !strings.Contains(out, "invalid "+filepath.Join(root, "gone.wav")) {
		t.Errorf("stdout should report the missing file:\n%s", out)
	}
}

func TestRun_BatchesAcrossEpochsWithDump(t *testing.T) {
	t.Parallel()

	root, list := writeData(t, 3, false)
	dir := filepath.Join(t.TempDir(), "out")
	env := newTestEnv(map[string]string{EnvFileRoot: root, EnvFileList: list})

	code := Execute(t.Context(), env.Env, "test", []string{"run", "--batches", "3", "--dump", dir})
	if code != ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "epoch 1 batch 0") {
		t.Errorf("expected the run to cross into epoch 1:\n%s", env.stdout)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.wav"))
	if err != nil {
		t.Fatal(err)
	}
	// epoch 0 yields two fresh samples then one plus a filler; epoch 1
	// starts with two more
	if len(files) != 5 {
		t.Errorf("dumped %d files, want 5: %v", len(files), files)
	}
	st, err := os.Stat(filepath.Join(dir, "e000_b00000_s000.wav"))
	if err != nil {
		t.Fatal(err)
	}
	// 1000 trimmed 16-bit samples plus the header
	if st.Size() < 2000 {
		t.Errorf("dumped file is %d bytes", st.Size())
	}
}

// Serving metrics installs global providers and registers with the default
// Prometheus registry, so this test is not parallel.
func TestRun_ServesMetrics(t *testing.T) {
	root, list := writeData(t, 2, false)
	env := newTestEnv(nil)
	cfg := writeConfig(t, "metrics_addr: 127.0.0.1:0\n")

	code := Execute(t.Context(), env.Env, "test", []string{
		"run", "--config", cfg, "--file-root", root, "--file-list", list,
	})
	if code != ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr)
	}
	if !strings.Contains(env.stderr.String(), "serving metrics") {
		t.Errorf("stderr should report the metrics listener:\n%s", env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "1 batches, 2 samples, 0 invalid") {
		t.Errorf("stdout:\n%s", env.stdout)
	}
}

func TestRun_DropReportsUnread(t *testing.T) {
	t.Parallel()

	root, list := writeData(t, 5, false)
	env := newTestEnv(nil)
	cfg := writeConfig(t, "pipeline:\n  last_batch_policy: drop\n")

	code := Execute(t.Context(), env.Env, "test", []string{
		"run", "--config", cfg, "--file-root", root, "--file-list", list,
	})
	if code != ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "2 batches, 4 samples, 0 invalid") {
		t.Errorf("stdout:\n%s", env.stdout)
	}
	if !strings.Contains(env.stderr.String(), "unread=1") {
		t.Errorf("epoch log should count the dropped entry:\n%s", env.stderr)
	}
}

func TestRun_Resample(t *testing.T) {
	t.Parallel()

	root, list := writeData(t, 1, false)
	dir := filepath.Join(t.TempDir(), "out")
	env := newTestEnv(nil)
	cfg := writeConfig(t, `
resample:
  enabled: true
  rate: 8000
  min_factor: 2
  max_factor: 2
`)

	code := Execute(t.Context(), env.Env, "test", []string{
		"run", "--config", cfg, "--file-root", root, "--file-list", list, "--dump", dir,
	})
	if code != ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr)
	}

	f, err := os.Open(filepath.Join(dir, "e000_b00000_s000.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	d := gowav.NewDecoder(f)
	d.ReadInfo()
	if d.Err() != nil {
		t.Fatal(d.Err())
	}
	if d.SampleRate != 16000 {
		t.Errorf("dumped sample rate = %d, want 16000", d.SampleRate)
	}
}

func TestRun_FeatureChain(t *testing.T) {
	t.Parallel()

	root, list := writeData(t, 2, false)
	env := newTestEnv(nil)
	cfg := writeConfig(t, `
log_level: debug
features:
  enabled: true
  nfft: 256
  window_length: 200
  window_step: 80
  nfilter: 20
  dither: 0.0001
`)

	code := Execute(t.Context(), env.Env, "test", []string{
		"run", "--config", cfg, "--file-root", root, "--file-list", list,
	})
	if code != ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr)
	}
	if !strings.Contains(env.stderr.String(), "pipeline built") {
		t.Errorf("debug log missing build line:\n%s", env.stderr)
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	t.Parallel()

	root, list := writeData(t, 1, false)

	tests := []struct {
		name string
		args []string
	}{
		{"missing list", []string{"run", "--file-list", filepath.Join(root, "nope.txt")}},
		{"bad config", []string{"run", "-c", writeConfig(t, "pipeline:\n  batch_size: -1\n"), "--file-list", list}},
		{"unknown key", []string{"run", "-c", writeConfig(t, "colour: blue\n"), "--file-list", list}},
		{"bad log level", []string{"run", "--file-list", list, "--log-level", "chatty"}},
		{"bad epochs", []string{"run", "--file-list", list, "--epochs", "0"}},
		{"unknown flag", []string{"run", "--nope"}},
		{"fewer entries than shards", []string{"run", "-c", writeConfig(t, "pipeline:\n  num_shards: 2\n"), "--file-list", list}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(nil)
			if code := Execute(t.Context(), env.Env, "test", tt.args); code != ExitUsage {
				t.Errorf("exit = %d, want %d; stderr:\n%s", code, ExitUsage, env.stderr)
			}
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	root, list := writeData(t, 2, false)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	env := newTestEnv(nil)
	code := Execute(ctx, env.Env, "test", []string{"run", "--file-root", root, "--file-list", list})
	if code != ExitInterrupt {
		t.Errorf("exit = %d, want %d; stderr:\n%s", code, ExitInterrupt, env.stderr)
	}
}

func TestFormatsCmd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	if code := Execute(t.Context(), env.Env, "test", []string{"formats"}); code != ExitOK {
		t.Fatalf("exit = %d", code)
	}
	if got := strings.TrimSpace(env.stdout.String()); got != "aif aiff mp3 oga ogg wav wave" {
		t.Errorf("formats = %q", got)
	}
}

func TestShardsCmd(t *testing.T) {
	t.Parallel()

	_, list := writeData(t, 5, false)
	env := newTestEnv(nil)

	code := Execute(t.Context(), env.Env, "test", []string{"shards", "--file-list", list, "--num-shards", "2"})
	if code != ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr)
	}
	out := env.stdout.String()
	for _, want := range []string{
		"shard 0: 3 entries [clip0.wav .. clip4.wav]",
		"shard 1: 2 entries [clip1.wav .. clip3.wav]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}

	if code := Execute(t.Context(), newTestEnv(nil).Env, "test", []string{"shards"}); code != ExitUsage {
		t.Errorf("shards without a list: exit = %d, want %d", code, ExitUsage)
	}
}

func TestEnvFile(t *testing.T) {
	t.Parallel()

	root, list := writeData(t, 2, false)
	envPath := filepath.Join(t.TempDir(), ".env")
	body := EnvFileRoot + "=" + root + "\n" + EnvFileList + "=" + list + "\n"
	if err := os.WriteFile(envPath, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	vars, err := godotenv.Read(envPath)
	if err != nil {
		t.Fatal(err)
	}

	env := newTestEnv(vars)
	if code := Execute(t.Context(), env.Env, "test", []string{"run"}); code != ExitOK {
		t.Fatalf("exit = %d, stderr:\n%s", code, env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "1 batches, 2 samples") {
		t.Errorf("stdout:\n%s", env.stdout)
	}
}
