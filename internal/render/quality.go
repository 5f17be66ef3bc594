// Package render turns validated Manim source into video artifacts,
// either through a local manim binary or a Docker container.
package render

import (
	"fmt"
	"strings"
)

// Quality selects the render preset passed to manim.
type Quality string

const (
	QualityLow    Quality = "low"    // 480p15, fast preview renders
	QualityMedium Quality = "medium" // 720p30
	QualityHigh   Quality = "high"   // 1080p60
	QualityFourK  Quality = "4k"     // 2160p60
)

// DefaultQuality is used when no quality is configured.
const DefaultQuality = QualityMedium

// Qualities lists every preset in ascending fidelity order.
func Qualities() []Quality {
	return []Quality{QualityLow, QualityMedium, QualityHigh, QualityFourK}
}

// ParseQuality normalizes a config value into a Quality.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "medium", "m":
		return QualityMedium, nil
	case "low", "l":
		return QualityLow, nil
	case "high", "h":
		return QualityHigh, nil
	case "4k", "k", "fourk":
		return QualityFourK, nil
	default:
		return "", fmt.Errorf("unknown render quality: %q", s)
	}
}

// Flag returns the manim CLI quality flag.
func (q Quality) Flag() string {
	switch q {
	case QualityLow:
		return "-ql"
	case QualityHigh:
		return "-qh"
	case QualityFourK:
		return "-qk"
	default:
		return "-qm"
	}
}

// Resolution returns the output height in pixels.
func (q Quality) Resolution() int {
	switch q {
	case QualityLow:
		return 480
	case QualityHigh:
		return 1080
	case QualityFourK:
		return 2160
	default:
		return 720
	}
}

// FPS returns the output frame rate.
func (q Quality) FPS() int {
	switch q {
	case QualityLow:
		return 15
	case QualityHigh, QualityFourK:
		return 60
	default:
		return 30
	}
}
