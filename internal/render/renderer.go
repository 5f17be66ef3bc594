package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// maxErrorOutput bounds how much renderer output is carried back
	// into a regeneration prompt. Manim tracebacks end with the useful
	// part, so the tail is kept.
	maxErrorOutput = 4000

	defaultRenderTimeout = 5 * time.Minute
)

// Job describes a single render request.
type Job struct {
	Source     string  // Validated Manim source
	SceneName  string  // Scene class to render
	Quality    Quality // Render preset
	OutputPath string  // Where the final .mp4 is placed
}

// Outcome is the result of a render attempt. A failed render is not a
// Go error; ErrorText carries what the subprocess reported so the
// caller can feed it back into a prompt.
type Outcome struct {
	Success      bool
	ArtifactPath string
	ErrorText    string
	Duration     time.Duration
}

// Renderer executes a render job.
type Renderer interface {
	Render(ctx context.Context, job *Job) (*Outcome, error)
	Name() string
}

// LocalConfig holds configuration for the local renderer.
type LocalConfig struct {
	Binary  string        // manim executable (default: "manim")
	Timeout time.Duration // Per-render timeout (default: 5m)
}

// LocalRenderer runs the manim CLI as a subprocess.
type LocalRenderer struct {
	binary  string
	timeout time.Duration
}

// NewLocalRenderer creates a renderer that shells out to manim.
func NewLocalRenderer(cfg LocalConfig) *LocalRenderer {
	if cfg.Binary == "" {
		cfg.Binary = "manim"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	return &LocalRenderer{
		binary:  cfg.Binary,
		timeout: cfg.Timeout,
	}
}

// Name returns the renderer identifier.
func (r *LocalRenderer) Name() string {
	return "local"
}

// CheckAvailable verifies the manim binary is on PATH.
func (r *LocalRenderer) CheckAvailable() error {
	if _, err := exec.LookPath(r.binary); err != nil {
		return fmt.Errorf("manim binary not found (%s): %w", r.binary, err)
	}
	return nil
}

// Render writes the source to a scratch directory, invokes manim, and
// moves the produced video to the job's output path.
func (r *LocalRenderer) Render(ctx context.Context, job *Job) (*Outcome, error) {
	start := time.Now()

	workDir, err := os.MkdirTemp("", "mathengine-render-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	scenePath := filepath.Join(workDir, "scene.py")
	if err := os.WriteFile(scenePath, []byte(job.Source), 0644); err != nil {
		return nil, fmt.Errorf("failed to write scene source: %w", err)
	}

	mediaDir := filepath.Join(workDir, "media")

	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// --disable_caching: scratch dirs are throwaway, caching only slows
	// repeated attempts down
	cmd := exec.CommandContext(renderCtx, r.binary,
		"render",
		job.Quality.Flag(),
		"--disable_caching",
		"--media_dir", mediaDir,
		scenePath,
		job.SceneName,
	)
	cmd.Dir = workDir

	output, err := cmd.CombinedOutput()
	duration := time.Since(start)

	if err != nil {
		errText := truncateTail(string(output), maxErrorOutput)
		if errors.Is(renderCtx.Err(), context.DeadlineExceeded) {
			errText = fmt.Sprintf("render timed out after %s", r.timeout)
		}
		if errText == "" {
			errText = err.Error()
		}
		return &Outcome{
			Success:   false,
			ErrorText: errText,
			Duration:  duration,
		}, nil
	}

	videoPath, err := findVideo(mediaDir)
	if err != nil {
		// Exit 0 with no artifact still counts as a failed attempt.
		return &Outcome{
			Success:   false,
			ErrorText: fmt.Sprintf("manim exited cleanly but produced no video: %v", err),
			Duration:  duration,
		}, nil
	}

	if err := moveFile(videoPath, job.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to place artifact: %w", err)
	}

	return &Outcome{
		Success:      true,
		ArtifactPath: job.OutputPath,
		Duration:     duration,
	}, nil
}

// findVideo walks the media directory for the rendered .mp4.
func findVideo(mediaDir string) (string, error) {
	var found string
	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		// Manim writes partial movie files under partial_movie_files;
		// only the assembled scene video counts.
		if strings.Contains(path, "partial_movie_files") {
			return nil
		}
		if filepath.Ext(path) == ".mp4" {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no .mp4 under %s", mediaDir)
	}
	return found, nil
}

// moveFile renames src to dst, falling back to copy across filesystems.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// truncateTail keeps the last max bytes of s.
func truncateTail(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}

// Verify interface
var _ Renderer = (*LocalRenderer)(nil)
