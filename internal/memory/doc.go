// Package memory keeps the media library inside its container memory limit.
//
// # Overview
//
// GOMAXPROCS follows the cgroup CPU quota automatically; GOMEMLIMIT does
// not. Without a heap limit the collector sizes itself from the live heap
// alone, and a burst of full-size photo decodes can push the process past
// its container limit before a collection runs.
//
// The package does two things:
//   - ConfigureFromEnv derives GOMEMLIMIT from the container limit.
//   - Monitor samples the heap and holds back background rendering while
//     usage is critical.
//
// # Configuration
//
// Call ConfigureFromEnv first thing in main, before the catalogue and the
// renderer allocate:
//
//	limit := memory.ConfigureFromEnv()
//	startup.LogMemoryConfig(limit)
//
// The returned Limit records where the value came from (Source is
// "GOMEMLIMIT", "MEMORY_LIMIT" or "none") and is passed on to the library
// as the monitor's limit.
//
// # Environment Variables
//
//   - GOMEMLIMIT: the standard runtime variable. When set it wins; the
//     runtime has already applied it and it is only reported.
//
//   - MEMORY_LIMIT: container limit in bytes, normally injected with the
//     Kubernetes Downward API. Invalid or non-positive values are ignored
//     with a warning.
//
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap, in (0, 1].
//     Defaults to DefaultMemoryRatio (0.80). Out-of-range values fall back
//     to the default.
//
// The default is lower than a pure Go service would need because decoding
// happens partly outside the Go heap: libvips allocates through C, and
// ffprobe and ffmpeg run as child processes.
//
// # Kubernetes Configuration
//
//	resources:
//	  limits:
//	    memory: "1Gi"
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"
//
// With this manifest the heap limit is 768MiB.
//
// # Backpressure
//
// A Monitor reads runtime.MemStats every CheckInterval and compares the
// heap against its limit:
//
//   - At CriticalWaterMark (0.85 by default) it pauses: Wait starts
//     blocking and a GC is triggered in the background.
//   - Below HighWaterMark (0.70) it resumes and releases every waiter.
//
// The gap between the two marks keeps the monitor from flapping around a
// single threshold. The thumbnail prefetch workers call Wait before each
// render; on-demand thumbnail and photo requests never do, so a user
// waiting on a response is not held back by prefetch.
//
//	mon := memory.NewMonitor(memory.Config{
//	    MemoryLimitBytes:  limit.GoMemLimit,
//	    HighWaterMark:     0.7,
//	    CriticalWaterMark: 0.85,
//	    CheckInterval:     5 * time.Second,
//	})
//	mon.Start()
//	defer mon.Stop()
//
//	if err := mon.Wait(ctx); err != nil {
//	    return err // ctx ended while paused
//	}
//
// A zero MemoryLimitBytes falls back to the runtime's GOMEMLIMIT. With no
// limit at all, Start is a no-op and Wait never blocks. Stop releases any
// waiters, so shutdown cannot hang on a paused prefetch.
//
// # Metrics
//
// Each sample sets media_library_memory_usage_ratio. Pauses set
// media_library_memory_paused to 1 and increment
// media_library_memory_pauses_total. A steadily rising pause count means
// the prefetch rate or worker count is too high for the container.
//
// # Thread Safety
//
// Monitor methods are safe for concurrent use. ConfigureFromEnv changes
// process-wide runtime state and is meant to be called once.
package memory
