package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
)

const (
	DefaultDockerImage = "manimcommunity/manim:stable"

	// containerWorkDir is where the scratch dir is mounted inside the
	// container. The manim image uses /manim as its working directory.
	containerWorkDir = "/manim"
)

// DockerConfig holds configuration for the Docker renderer.
type DockerConfig struct {
	Image   string        // Manim image (default: manimcommunity/manim:stable)
	Timeout time.Duration // Per-render timeout (default: 5m)
}

// DockerRenderer runs manim inside a container. It needs no local
// Python or LaTeX install, at the cost of a one-time image pull.
type DockerRenderer struct {
	cli     *client.Client
	image   string
	timeout time.Duration
}

// NewDockerRenderer creates a renderer backed by the Docker daemon.
func NewDockerRenderer(cfg DockerConfig) (*DockerRenderer, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if cfg.Image == "" {
		cfg.Image = DefaultDockerImage
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultRenderTimeout
	}

	return &DockerRenderer{
		cli:     cli,
		image:   cfg.Image,
		timeout: cfg.Timeout,
	}, nil
}

// Close closes the Docker client.
func (r *DockerRenderer) Close() error {
	return r.cli.Close()
}

// Name returns the renderer identifier.
func (r *DockerRenderer) Name() string {
	return "docker"
}

// CheckAvailable verifies the Docker daemon is reachable.
func (r *DockerRenderer) CheckAvailable(ctx context.Context) error {
	if _, err := r.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker is not running: %w", err)
	}
	return nil
}

// Render mounts a scratch directory into a manim container, waits for
// it to exit, and collects the produced video.
func (r *DockerRenderer) Render(ctx context.Context, job *Job) (*Outcome, error) {
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

	if err := r.ensureImage(ctx); err != nil {
		return nil, err
	}

	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	containerConfig := &container.Config{
		Image:      r.image,
		WorkingDir: containerWorkDir,
		Cmd: []string{
			"manim",
			"render",
			job.Quality.Flag(),
			"--disable_caching",
			"--media_dir", containerWorkDir + "/media",
			"scene.py",
			job.SceneName,
		},
	}
	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: workDir,
				Target: containerWorkDir,
			},
		},
		AutoRemove: false,
	}

	resp, err := r.cli.ContainerCreate(renderCtx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create render container: %w", err)
	}
	defer func() {
		_ = r.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
	}()

	if err := r.cli.ContainerStart(renderCtx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start render container: %w", err)
	}

	exitCode, waitErr := r.waitForExit(renderCtx, resp.ID)
	duration := time.Since(start)

	if waitErr != nil {
		if renderCtx.Err() == context.DeadlineExceeded {
			return &Outcome{
				Success:   false,
				ErrorText: fmt.Sprintf("render timed out after %s", r.timeout),
				Duration:  duration,
			}, nil
		}
		return nil, waitErr
	}

	if exitCode != 0 {
		logs := r.containerLogs(resp.ID)
		return &Outcome{
			Success:   false,
			ErrorText: truncateTail(logs, maxErrorOutput),
			Duration:  duration,
		}, nil
	}

	videoPath, err := findVideo(filepath.Join(workDir, "media"))
	if err != nil {
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

// waitForExit blocks until the container stops and returns its exit code.
func (r *DockerRenderer) waitForExit(ctx context.Context, containerID string) (int64, error) {
	statusCh, errCh := r.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return -1, fmt.Errorf("failed waiting for render container: %w", err)
	case status := <-statusCh:
		return status.StatusCode, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// containerLogs fetches combined stdout/stderr, best effort.
func (r *DockerRenderer) containerLogs(containerID string) string {
	logs, err := r.cli.ContainerLogs(context.Background(), containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       "200",
	})
	if err != nil {
		return fmt.Sprintf("failed to get container logs: %v", err)
	}
	defer logs.Close()

	logBytes, err := io.ReadAll(logs)
	if err != nil {
		return fmt.Sprintf("failed to read container logs: %v", err)
	}
	return string(logBytes)
}

// ensureImage pulls the manim image if not present. Pulls are retried;
// registries fail transiently often enough that one attempt is unfair.
func (r *DockerRenderer) ensureImage(ctx context.Context) error {
	_, err := r.cli.ImageInspect(ctx, r.image)
	if err == nil {
		return nil
	}

	return retry.Do(
		func() error {
			reader, err := r.cli.ImagePull(ctx, r.image, image.PullOptions{})
			if err != nil {
				return fmt.Errorf("failed to pull image: %w", err)
			}
			defer reader.Close()

			_, err = io.Copy(io.Discard, reader)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.LastErrorOnly(true),
	)
}

// Verify interface
var _ Renderer = (*DockerRenderer)(nil)
