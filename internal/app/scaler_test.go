package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/bft-labs/pixscale/internal/adapters/fs"
	"github.com/bft-labs/pixscale/internal/adapters/imaging"
	"github.com/bft-labs/pixscale/internal/domain"
	"github.com/bft-labs/pixscale/internal/ports"
)

// recordingLogger implements ports.Logger and keeps every message.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, fields ...ports.Field) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, fields ...ports.Field)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, fields ...ports.Field)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, fields ...ports.Field) { l.record("error", msg) }

func (l *recordingLogger) count(entry string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e == entry {
			n++
		}
	}
	return n
}

// failingFS wraps a FileSystem and fails writes of one filename.
type failingFS struct {
	ports.FileSystem
	failName string
}

func (f failingFS) WriteFileAtomic(dir, name string, data []byte) error {
	if name == f.failName {
		return errors.New("disk full")
	}
	return f.FileSystem.WriteFileAtomic(dir, name, data)
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 4), uint8(y * 4), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func pngSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func newTestScaler(cfg ScalerConfig, logger ports.Logger) *Scaler {
	return NewScaler(cfg, imaging.NewCodec(), fs.NewOS(), logger)
}

func TestRunBatch_Example(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "assets", "icon.png")
	writeTestPNG(t, src, 64, 64)
	outDir := filepath.Join(root, "client", "public", "scaled")

	s := newTestScaler(ScalerConfig{
		Sources:   []domain.Source{{Path: src}},
		Factors:   []float64{0.5, 1.0, 2.0},
		OutputDir: outDir,
		Optimize:  true,
	}, &recordingLogger{})

	report, err := s.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}
	if report.Succeeded() != 3 || report.Failed() != 0 {
		t.Errorf("succeeded=%d failed=%d, want 3/0", report.Succeeded(), report.Failed())
	}

	sizes := map[string]int{"icon_0_5x.png": 32, "icon.png": 64, "icon_2_0x.png": 128}
	for name, want := range sizes {
		w, h := pngSize(t, filepath.Join(outDir, name))
		if w != want || h != want {
			t.Errorf("%s = %dx%d, want %dx%d", name, w, h, want, want)
		}
	}

	manifest, err := os.ReadFile(filepath.Join(outDir, domain.ManifestName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	want := "Available Image Scales\n====================\n\n" +
		"icon.png:\n" +
		"  0.5x → icon_0_5x.png\n" +
		"  1.0x → icon.png\n" +
		"  2.0x → icon_2_0x.png\n\n"
	if string(manifest) != want {
		t.Errorf("manifest =\n%s\nwant\n%s", manifest, want)
	}
	if report.Manifest != filepath.Join(outDir, domain.ManifestName) {
		t.Errorf("report.Manifest = %q", report.Manifest)
	}
}

func TestRunBatch_MissingSourceSkipped(t *testing.T) {
	root := t.TempDir()
	icon := filepath.Join(root, "icon.png")
	writeTestPNG(t, icon, 10, 6)
	outDir := filepath.Join(root, "out")

	logger := &recordingLogger{}
	s := newTestScaler(ScalerConfig{
		Sources: []domain.Source{
			{Path: filepath.Join(root, "magnifying_glass.png")},
			{Path: icon},
		},
		Factors:   []float64{1, 1.5},
		OutputDir: outDir,
	}, logger)

	report, err := s.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}
	if len(report.Missing) != 1 || report.Missing[0].OutputBase() != "magnifying_glass.png" {
		t.Errorf("Missing = %v", report.Missing)
	}
	if logger.count("warn: image not found") != 1 {
		t.Errorf("missing-image warning count = %d, want 1", logger.count("warn: image not found"))
	}

	got := listDir(t, outDir)
	want := []string{domain.ManifestName, "icon.png", "icon_1_5x.png"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("outputs = %v, want %v", got, want)
	}

	w, h := pngSize(t, filepath.Join(outDir, "icon_1_5x.png"))
	if w != 15 || h != 9 {
		t.Errorf("icon_1_5x.png = %dx%d, want 15x9", w, h)
	}

	manifest, _ := os.ReadFile(filepath.Join(outDir, domain.ManifestName))
	if strings.Contains(string(manifest), "magnifying_glass") {
		t.Errorf("manifest lists a missing source:\n%s", manifest)
	}
}

func TestRunBatch_CorruptSourceDoesNotStopBatch(t *testing.T) {
	root := t.TempDir()
	broken := filepath.Join(root, "broken.png")
	if err := os.WriteFile(broken, []byte("not a png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	icon := filepath.Join(root, "icon.png")
	writeTestPNG(t, icon, 4, 4)
	outDir := filepath.Join(root, "out")

	logger := &recordingLogger{}
	s := newTestScaler(ScalerConfig{
		Sources:   []domain.Source{{Path: broken}, {Path: icon}},
		Factors:   []float64{0.5, 2},
		OutputDir: outDir,
	}, logger)

	report, err := s.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}
	if len(report.Sources) != 2 {
		t.Fatalf("Sources = %d, want 2", len(report.Sources))
	}
	for _, j := range report.Sources[0].Jobs {
		if j.OK() {
			t.Errorf("job %s succeeded on a corrupt source", j.Output)
		}
	}
	for _, j := range report.Sources[1].Jobs {
		if !j.OK() {
			t.Errorf("job %s failed: %v", j.Output, j.Err)
		}
	}
	if logger.count("error: scale failed") != 2 {
		t.Errorf("failure log count = %d, want 2", logger.count("error: scale failed"))
	}

	// Both sources existed, so both appear in the manifest.
	manifest, _ := os.ReadFile(filepath.Join(outDir, domain.ManifestName))
	if !strings.Contains(string(manifest), "broken.png:\n") || !strings.Contains(string(manifest), "icon.png:\n") {
		t.Errorf("manifest missing a block:\n%s", manifest)
	}
	if _, err := os.Stat(filepath.Join(outDir, "broken_0_5x.png")); !os.IsNotExist(err) {
		t.Errorf("failed job left an output file (stat err=%v)", err)
	}
}

func TestRunBatch_FailedFactorDoesNotStopSource(t *testing.T) {
	root := t.TempDir()
	dot := filepath.Join(root, "dot.png")
	writeTestPNG(t, dot, 1, 1)
	outDir := filepath.Join(root, "out")

	s := newTestScaler(ScalerConfig{
		Sources:   []domain.Source{{Path: dot}},
		Factors:   []float64{0.5, 1, 3},
		OutputDir: outDir,
	}, &recordingLogger{})

	report, err := s.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}
	jobs := report.Sources[0].Jobs
	if !errors.Is(jobs[0].Err, domain.ErrEmptyImage) {
		t.Errorf("0.5x error = %v, want ErrEmptyImage", jobs[0].Err)
	}
	if !jobs[1].OK() || !jobs[2].OK() {
		t.Errorf("later jobs failed: %v, %v", jobs[1].Err, jobs[2].Err)
	}
	if w, h := pngSize(t, filepath.Join(outDir, "dot_3_0x.png")); w != 3 || h != 3 {
		t.Errorf("dot_3_0x.png = %dx%d, want 3x3", w, h)
	}
}

func TestRunBatch_OversizedFactorFailsOnlyItsJobs(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first.png")
	second := filepath.Join(root, "second.png")
	writeTestPNG(t, first, 4, 4)
	writeTestPNG(t, second, 6, 2)
	outDir := filepath.Join(root, "out")

	s := newTestScaler(ScalerConfig{
		Sources:   []domain.Source{{Path: first}, {Path: second}},
		Factors:   []float64{1e6, 2},
		OutputDir: outDir,
	}, &recordingLogger{})

	report, err := s.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}
	if len(report.Sources) != 2 {
		t.Fatalf("processed %d sources, want 2", len(report.Sources))
	}
	for _, sr := range report.Sources {
		if !errors.Is(sr.Jobs[0].Err, domain.ErrImageTooLarge) {
			t.Errorf("%s 1e6x error = %v, want ErrImageTooLarge", sr.Source.Path, sr.Jobs[0].Err)
		}
		if !sr.Jobs[1].OK() {
			t.Errorf("%s 2x failed: %v", sr.Source.Path, sr.Jobs[1].Err)
		}
	}
	if w, h := pngSize(t, filepath.Join(outDir, "second_2_0x.png")); w != 12 || h != 4 {
		t.Errorf("second_2_0x.png = %dx%d, want 12x4", w, h)
	}
	if report.Failed() != 2 || report.Succeeded() != 2 {
		t.Errorf("failed/succeeded = %d/%d, want 2/2", report.Failed(), report.Succeeded())
	}
}

func TestRunBatch_Idempotent(t *testing.T) {
	root := t.TempDir()
	icon := filepath.Join(root, "icon.png")
	writeTestPNG(t, icon, 16, 8)
	outDir := filepath.Join(root, "out")

	s := newTestScaler(ScalerConfig{
		Sources:   []domain.Source{{Path: icon}},
		Factors:   []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0},
		OutputDir: outDir,
		Optimize:  true,
	}, &recordingLogger{})

	if _, err := s.RunBatch(context.Background()); err != nil {
		t.Fatalf("first RunBatch() error: %v", err)
	}
	first, _ := os.ReadFile(filepath.Join(outDir, domain.ManifestName))
	firstNames := listDir(t, outDir)

	if _, err := s.RunBatch(context.Background()); err != nil {
		t.Fatalf("second RunBatch() error: %v", err)
	}
	second, _ := os.ReadFile(filepath.Join(outDir, domain.ManifestName))
	secondNames := listDir(t, outDir)

	if !bytes.Equal(first, second) {
		t.Error("manifest changed between runs")
	}
	if strings.Join(firstNames, ",") != strings.Join(secondNames, ",") {
		t.Errorf("outputs changed: %v vs %v", firstNames, secondNames)
	}
	if len(firstNames) != 9 {
		t.Errorf("got %d files, want 8 images + manifest", len(firstNames))
	}
}

func TestRunBatch_DryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	icon := filepath.Join(root, "icon.png")
	writeTestPNG(t, icon, 64, 64)
	outDir := filepath.Join(root, "out")

	logger := &recordingLogger{}
	s := newTestScaler(ScalerConfig{
		Sources:   []domain.Source{{Path: icon}, {Path: filepath.Join(root, "gone.gif")}},
		Factors:   []float64{0.5, 2},
		OutputDir: outDir,
		DryRun:    true,
	}, logger)

	report, err := s.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Fatalf("dry run created the output directory (stat err=%v)", err)
	}
	if !report.DryRun || report.Manifest != "" {
		t.Errorf("report = %+v", report)
	}

	jobs := report.Sources[0].Jobs
	if jobs[0].Width != 32 || jobs[1].Width != 128 {
		t.Errorf("planned widths = %d, %d, want 32, 128", jobs[0].Width, jobs[1].Width)
	}
	if jobs[1].Output != filepath.Join(outDir, "icon_2_0x.png") {
		t.Errorf("planned output = %q", jobs[1].Output)
	}
	if logger.count("warn: dry run: no files will be written") != 1 {
		t.Error("dry run banner not logged")
	}
	if logger.count("info: dry run: would scale") != 2 {
		t.Errorf("planned job logs = %d, want 2", logger.count("info: dry run: would scale"))
	}
}

func TestRunBatch_OutputDirFailureAborts(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := newTestScaler(ScalerConfig{
		Sources:   []domain.Source{{Path: blocker}},
		Factors:   []float64{1},
		OutputDir: filepath.Join(blocker, "scaled"),
	}, &recordingLogger{})

	report, err := s.RunBatch(context.Background())
	if err == nil {
		t.Fatal("expected error when the output directory cannot be created")
	}
	if len(report.Sources) != 0 {
		t.Errorf("jobs ran despite the failure: %+v", report.Sources)
	}
}

func TestRunBatch_ManifestFailureAfterJobs(t *testing.T) {
	root := t.TempDir()
	icon := filepath.Join(root, "icon.png")
	writeTestPNG(t, icon, 4, 4)
	outDir := filepath.Join(root, "out")

	s := NewScaler(ScalerConfig{
		Sources:   []domain.Source{{Path: icon}},
		Factors:   []float64{1, 2},
		OutputDir: outDir,
	}, imaging.NewCodec(), failingFS{FileSystem: fs.NewOS(), failName: domain.ManifestName}, &recordingLogger{})

	report, err := s.RunBatch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "write manifest") {
		t.Fatalf("error = %v, want manifest write failure", err)
	}
	if report.Succeeded() != 2 {
		t.Errorf("Succeeded() = %d, want 2 (jobs run before the manifest)", report.Succeeded())
	}
	if _, err := os.Stat(filepath.Join(outDir, "icon_2_0x.png")); err != nil {
		t.Errorf("image missing: %v", err)
	}
}

func TestRunBatch_CanceledContext(t *testing.T) {
	root := t.TempDir()
	icon := filepath.Join(root, "icon.png")
	writeTestPNG(t, icon, 4, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScaler(ScalerConfig{
		Sources:   []domain.Source{{Path: icon}},
		Factors:   []float64{1},
		OutputDir: filepath.Join(root, "out"),
	}, &recordingLogger{})

	if _, err := s.RunBatch(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestScaleOne_UnsupportedOutput(t *testing.T) {
	root := t.TempDir()
	icon := filepath.Join(root, "icon.png")
	writeTestPNG(t, icon, 4, 4)

	s := newTestScaler(ScalerConfig{}, &recordingLogger{})
	res := s.ScaleOne(icon, filepath.Join(root, "icon_2_0x.webp"), 2)
	if !errors.Is(res.Err, domain.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", res.Err)
	}
	if _, err := os.Stat(res.Output); !os.IsNotExist(err) {
		t.Errorf("output written despite failure (stat err=%v)", err)
	}
}

func TestScaleOne_ConvertsByExtension(t *testing.T) {
	root := t.TempDir()
	icon := filepath.Join(root, "icon.png")
	writeTestPNG(t, icon, 6, 4)

	s := newTestScaler(ScalerConfig{Optimize: true}, &recordingLogger{})
	out := filepath.Join(root, "icon_2_0x.gif")
	res := s.ScaleOne(icon, out, 2)
	if !res.OK() {
		t.Fatalf("ScaleOne() error: %v", res.Err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if format != "gif" || cfg.Width != 12 || cfg.Height != 8 {
		t.Errorf("output = %s %dx%d, want gif 12x8", format, cfg.Width, cfg.Height)
	}
}
