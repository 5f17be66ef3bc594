package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeFakeManim creates a shell script standing in for the manim
// binary. It reads the --media_dir argument the same way the real CLI
// does and behaves according to the mode baked into the script body.
func writeFakeManim(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binary tests require a POSIX shell")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "manim")
	script := `#!/bin/sh
MEDIA_DIR=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--media_dir" ]; then
    MEDIA_DIR="$arg"
  fi
  prev="$arg"
done
` + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake manim: %v", err)
	}
	return path
}

func TestLocalRendererSuccess(t *testing.T) {
	binary := writeFakeManim(t, `
mkdir -p "$MEDIA_DIR/videos/scene/720p30"
printf 'mp4-bytes' > "$MEDIA_DIR/videos/scene/720p30/CircleArea.mp4"
`)
	r := NewLocalRenderer(LocalConfig{Binary: binary})

	outputPath := filepath.Join(t.TempDir(), "out.mp4")
	outcome, err := r.Render(context.Background(), &Job{
		Source:     "from manim import *",
		SceneName:  "CircleArea",
		Quality:    QualityMedium,
		OutputPath: outputPath,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("expected success, got error text: %s", outcome.ErrorText)
	}
	if outcome.ArtifactPath != outputPath {
		t.Errorf("expected artifact at %s, got %s", outputPath, outcome.ArtifactPath)
	}
	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if string(data) != "mp4-bytes" {
		t.Errorf("artifact content mismatch: %q", data)
	}
	if outcome.Duration <= 0 {
		t.Error("expected a positive duration")
	}
}

func TestLocalRendererFailureCarriesOutput(t *testing.T) {
	binary := writeFakeManim(t, `
echo "NameError: name 'Circel' is not defined" >&2
exit 1
`)
	r := NewLocalRenderer(LocalConfig{Binary: binary})

	outcome, err := r.Render(context.Background(), &Job{
		Source:     "from manim import *",
		SceneName:  "CircleArea",
		Quality:    QualityLow,
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	})
	if err != nil {
		t.Fatalf("failed renders are outcomes, not errors: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(outcome.ErrorText, "NameError") {
		t.Errorf("subprocess output not carried: %q", outcome.ErrorText)
	}
}

func TestLocalRendererCleanExitWithoutArtifact(t *testing.T) {
	binary := writeFakeManim(t, `exit 0`)
	r := NewLocalRenderer(LocalConfig{Binary: binary})

	outcome, err := r.Render(context.Background(), &Job{
		Source:     "from manim import *",
		SceneName:  "CircleArea",
		Quality:    QualityMedium,
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if outcome.Success {
		t.Fatal("missing artifact must fail the attempt")
	}
	if !strings.Contains(outcome.ErrorText, "no video") {
		t.Errorf("unexpected error text: %q", outcome.ErrorText)
	}
}

func TestLocalRendererTimeout(t *testing.T) {
	binary := writeFakeManim(t, `sleep 10`)
	r := NewLocalRenderer(LocalConfig{Binary: binary, Timeout: 100 * time.Millisecond})

	outcome, err := r.Render(context.Background(), &Job{
		Source:     "from manim import *",
		SceneName:  "CircleArea",
		Quality:    QualityMedium,
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(outcome.ErrorText, "timed out") {
		t.Errorf("expected timeout marker, got %q", outcome.ErrorText)
	}
}

func TestFindVideoSkipsPartials(t *testing.T) {
	mediaDir := t.TempDir()
	partialDir := filepath.Join(mediaDir, "videos", "scene", "720p30", "partial_movie_files", "S")
	if err := os.MkdirAll(partialDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(partialDir, "chunk.mp4"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := findVideo(mediaDir); err == nil {
		t.Fatal("partial movie files must not count as artifacts")
	}

	finalPath := filepath.Join(mediaDir, "videos", "scene", "720p30", "S.mp4")
	if err := os.WriteFile(finalPath, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := findVideo(mediaDir)
	if err != nil {
		t.Fatalf("findVideo failed: %v", err)
	}
	if got != finalPath {
		t.Errorf("expected %s, got %s", finalPath, got)
	}
}

func TestTruncateTail(t *testing.T) {
	long := strings.Repeat("a", 100) + "traceback tail"
	got := truncateTail(long, 20)
	if !strings.HasSuffix(got, "traceback tail") {
		t.Errorf("tail not preserved: %q", got)
	}
	if !strings.HasPrefix(got, "...") {
		t.Errorf("expected ellipsis prefix: %q", got)
	}
	if truncateTail("short", 20) != "short" {
		t.Error("short strings should pass through")
	}
}
