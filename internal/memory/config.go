package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"media-library/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest covers decoders, libvips, ffmpeg and goroutine stacks.
const DefaultMemoryRatio = 0.80

// Limit describes how GOMEMLIMIT was decided.
type Limit struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configured reports whether a heap limit is in force.
func (l Limit) Configured() bool {
	return l.GoMemLimit > 0
}

// ConfigureFromEnv sets the Go heap limit from the environment. Call it
// before the catalogue and renderer allocate.
//
//   - GOMEMLIMIT set: the runtime already applied it; it is only reported.
//   - MEMORY_LIMIT (bytes, e.g. from the Kubernetes Downward API): the
//     heap limit becomes MEMORY_LIMIT * MEMORY_RATIO.
func ConfigureFromEnv() Limit {
	return configure(os.Getenv, debug.SetMemoryLimit)
}

func configure(getenv func(string) string, setLimit func(int64) int64) Limit {
	if env := getenv("GOMEMLIMIT"); env != "" {
		l := Limit{Source: "GOMEMLIMIT"}
		if current := setLimit(-1); current > 0 && current < math.MaxInt64 {
			l.GoMemLimit = current
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return l
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, heap limit left to the runtime")
		return Limit{Source: "none"}
	}

	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return Limit{Source: "none"}
	}

	ratio := DefaultMemoryRatio
	if s := getenv("MEMORY_RATIO"); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		switch {
		case err != nil:
			logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using %.2f", s, err, DefaultMemoryRatio)
		case parsed <= 0 || parsed > 1:
			logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0], using %.2f", s, DefaultMemoryRatio)
		default:
			ratio = parsed
		}
	}

	goMemLimit := int64(float64(containerLimit) * ratio)
	setLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(containerLimit))

	return Limit{
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
