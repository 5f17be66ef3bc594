package narrate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/providers"
)

// Cue is one narration line anchored to a point on the video timeline.
type Cue struct {
	AtSeconds float64 `json:"at_seconds" yaml:"at_seconds"`
	Text      string  `json:"text" yaml:"text"`
}

// Result reports one narration run.
type Result struct {
	Success      bool          `json:"success"`
	OutputPath   string        `json:"output_path,omitempty"`
	CueCount     int           `json:"cue_count"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Config holds narrator dependencies.
type Config struct {
	Synthesizer providers.Synthesizer
	Muxer       *Muxer
	Voice       string
	Speed       float64
	// MaxRetries bounds synthesis attempts per cue. Zero means 3.
	MaxRetries uint
	Logger     *slog.Logger
}

// Narrator synthesizes speech for each cue and muxes the clips onto a
// rendered video. Narration is all or nothing: if any cue fails after
// retries, no output file is produced and the input video is untouched.
type Narrator struct {
	synthesizer providers.Synthesizer
	muxer       *Muxer
	voice       string
	speed       float64
	maxRetries  uint
	logger      *slog.Logger
}

// New creates a narrator from config.
func New(cfg Config) (*Narrator, error) {
	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if cfg.Muxer == nil {
		cfg.Muxer = NewMuxer("", "")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Narrator{
		synthesizer: cfg.Synthesizer,
		muxer:       cfg.Muxer,
		voice:       cfg.Voice,
		speed:       cfg.Speed,
		maxRetries:  cfg.MaxRetries,
		logger:      cfg.Logger,
	}, nil
}

// Narrate voices the cues and writes a narrated copy of the video to
// outputPath.
func (n *Narrator) Narrate(ctx context.Context, videoPath string, cues []Cue, outputPath string) (*Result, error) {
	start := time.Now()
	result := &Result{CueCount: len(cues)}

	if err := n.validate(videoPath, cues, outputPath); err != nil {
		result.ErrorMessage = err.Error()
		result.Duration = time.Since(start)
		return result, err
	}

	// Cues must land inside the video. The probe is best effort; a
	// broken ffprobe should not block narration of a good video.
	if videoDur, err := n.muxer.ProbeDuration(ctx, videoPath); err != nil {
		n.logger.Warn("could not probe video duration, skipping cue bound check", "error", err)
	} else {
		for i, cue := range cues {
			if cue.AtSeconds >= videoDur {
				err := fmt.Errorf("cue %d offset %.2fs is past the video's end (%.2fs)", i+1, cue.AtSeconds, videoDur)
				result.ErrorMessage = err.Error()
				result.Duration = time.Since(start)
				return result, err
			}
		}
	}

	// Cue order in the mix does not matter, but sorted offsets make the
	// ffmpeg invocation reproducible for identical inputs.
	ordered := make([]Cue, len(cues))
	copy(ordered, cues)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AtSeconds < ordered[j].AtSeconds
	})

	clipDir, err := os.MkdirTemp("", "mathengine-narrate-")
	if err != nil {
		result.ErrorMessage = err.Error()
		result.Duration = time.Since(start)
		return result, fmt.Errorf("failed to create clip dir: %w", err)
	}
	defer os.RemoveAll(clipDir)

	clips := make([]TimedClip, 0, len(ordered))
	for i, cue := range ordered {
		clipPath, err := n.synthesizeCue(ctx, cue, clipDir, i)
		if err != nil {
			result.ErrorMessage = fmt.Sprintf("cue %d (%.1fs): %v", i+1, cue.AtSeconds, err)
			result.Duration = time.Since(start)
			return result, fmt.Errorf("narration aborted: %s", result.ErrorMessage)
		}
		clips = append(clips, TimedClip{Path: clipPath, AtSeconds: cue.AtSeconds})
	}

	if err := n.muxer.Mux(ctx, videoPath, clips, outputPath); err != nil {
		result.ErrorMessage = err.Error()
		result.Duration = time.Since(start)
		return result, err
	}

	n.logger.Info("narration complete",
		"video", videoPath,
		"output", outputPath,
		"cues", len(clips),
		"duration", time.Since(start))

	result.Success = true
	result.OutputPath = outputPath
	result.Duration = time.Since(start)
	return result, nil
}

func (n *Narrator) validate(videoPath string, cues []Cue, outputPath string) error {
	if videoPath == "" {
		return fmt.Errorf("video path is required")
	}
	if outputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if outputPath == videoPath {
		return fmt.Errorf("output path must differ from the input video")
	}
	if len(cues) == 0 {
		return fmt.Errorf("at least one cue is required")
	}
	for i, cue := range cues {
		if cue.Text == "" {
			return fmt.Errorf("cue %d has empty text", i+1)
		}
		if cue.AtSeconds < 0 {
			return fmt.Errorf("cue %d has negative offset %.2f", i+1, cue.AtSeconds)
		}
	}
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("video not found: %w", err)
	}
	return nil
}

// synthesizeCue voices one cue with bounded retries. Fatal provider
// errors (bad credentials) are not retried.
func (n *Narrator) synthesizeCue(ctx context.Context, cue Cue, clipDir string, index int) (string, error) {
	var speech *providers.SpeechResult

	err := retry.Do(
		func() error {
			res, err := n.synthesizer.Synthesize(ctx, &providers.SpeechRequest{
				Text:  cue.Text,
				Voice: n.voice,
				Speed: n.speed,
			})
			if err != nil {
				return err
			}
			speech = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(n.maxRetries),
		retry.Delay(time.Second),
		retry.RetryIf(func(err error) bool {
			return !providers.IsFatal(err)
		}),
		retry.OnRetry(func(attempt uint, err error) {
			n.logger.Warn("cue synthesis retry",
				"cue", index+1,
				"attempt", attempt+1,
				"error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}

	ext := speech.Format
	if ext == "" {
		ext = "mp3"
	}
	clipPath := filepath.Join(clipDir, fmt.Sprintf("cue_%03d.%s", index, ext))
	if err := os.WriteFile(clipPath, speech.Audio, 0o644); err != nil {
		return "", fmt.Errorf("failed to write clip: %w", err)
	}
	return clipPath, nil
}
