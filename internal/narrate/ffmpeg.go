// Package narrate attaches synthesized speech to an already-rendered
// video from a list of timed cues. The base video is never modified.
package narrate

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// TimedClip is one synthesized audio file and its start offset.
type TimedClip struct {
	Path      string
	AtSeconds float64
}

// Muxer drives ffmpeg to lay timed audio clips over a video track.
type Muxer struct {
	ffmpegBinary  string
	ffprobeBinary string
}

// NewMuxer creates a muxer. Empty binary names fall back to PATH
// lookups of ffmpeg and ffprobe.
func NewMuxer(ffmpegBinary, ffprobeBinary string) *Muxer {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Muxer{ffmpegBinary: ffmpegBinary, ffprobeBinary: ffprobeBinary}
}

// CheckAvailable verifies ffmpeg is on PATH.
func (m *Muxer) CheckAvailable() error {
	if _, err := exec.LookPath(m.ffmpegBinary); err != nil {
		return fmt.Errorf("ffmpeg not found (%s): %w", m.ffmpegBinary, err)
	}
	return nil
}

// Mux lays the clips over the video's timeline and writes a new file.
// Each clip is delayed to its cue offset with adelay, the clips are
// mixed into one track, and the video stream is copied untouched.
func (m *Muxer) Mux(ctx context.Context, videoPath string, clips []TimedClip, outputPath string) error {
	if len(clips) == 0 {
		return fmt.Errorf("no audio clips to mux")
	}
	if outputPath == videoPath {
		return fmt.Errorf("output path must differ from the input video")
	}

	args := []string{"-y", "-i", videoPath}
	for _, clip := range clips {
		args = append(args, "-i", clip.Path)
	}

	var filter strings.Builder
	labels := make([]string, len(clips))
	for i, clip := range clips {
		delayMS := int(clip.AtSeconds * 1000)
		label := fmt.Sprintf("a%d", i)
		labels[i] = "[" + label + "]"
		// adelay wants one value per channel; repeating covers stereo.
		fmt.Fprintf(&filter, "[%d:a]adelay=%d|%d[%s];", i+1, delayMS, delayMS, label)
	}
	fmt.Fprintf(&filter, "%samix=inputs=%d:normalize=0[aout]",
		strings.Join(labels, ""), len(clips))

	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, m.ffmpegBinary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg mux failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

// ProbeDuration returns a media file's duration in seconds.
func (m *Muxer) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, m.ffprobeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration %q: %w", output, err)
	}
	return dur, nil
}
