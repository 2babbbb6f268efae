package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv names the environment variable that pins the worker count
// for enrichment and prefetch pools.
const OverrideEnv = "ENRICH_WORKERS"

// Count returns the number of workers for a task with the given CPU
// multiplier. GOMAXPROCS already reflects container CPU limits.
//
//   - 1.0 for CPU-bound work (decode, resize, encode)
//   - 2.0 for I/O-bound work (reading assets, EXIF parsing)
//   - 1.5 for mixed work
//
// limit caps the result; 0 means no cap. ENRICH_WORKERS overrides the
// computed value but is still capped by limit.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capAt(count, limit)
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU).
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
