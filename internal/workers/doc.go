/*
Package workers sizes the goroutine pools of the media library from the
CPU budget the process actually has.

# Overview

The service runs in containers whose CPU limit is usually far below the
host's core count. Since Go 1.19 the runtime sets GOMAXPROCS from the
cgroup CPU quota, but runtime.NumCPU still reports every core on the host:

	// Wrong: 64 on a 64-core node, whatever the pod limit says
	n := runtime.NumCPU()

	// Right: 2 for a pod limited to two CPUs
	n := runtime.GOMAXPROCS(0)

Sizing a pool from NumCPU on a busy node means dozens of goroutines
decoding full-size photos at once. Each holds a decoded bitmap, so the
cost shows up as memory pressure long before it shows up as CPU
throttling. Every pool in the service is therefore sized here, from
GOMAXPROCS.

# Pools in the service

Two pools use this package:

  - Enrichment in the library pipeline (library.NewPipeline) resolves
    file paths, reads EXIF and runs ffprobe on videos. It is I/O-bound
    and uses ForIO(32).
  - Thumbnail prefetch (render.DefaultCacheConfig) decodes, scales and
    encodes bitmaps. It is CPU- and memory-bound and uses ForCPU(4).

The indexer's parallel walker has its own INDEX_WORKERS setting with a
small fixed default, because its cost is dominated by directory reads on
network storage rather than by CPU.

# Basic Usage

	import "media-library/internal/workers"

	// CPU-bound: one worker per CPU, at most 4
	n := workers.ForCPU(4)

	// I/O-bound: two workers per CPU, at most 32
	n := workers.ForIO(32)

	// Mixed: one and a half workers per CPU, at most 12
	n := workers.ForMixed(12)

Count takes the multiplier directly:

	// 3 workers per CPU, no cap
	n := workers.Count(3.0, 0)

The result is never below one.

# Environment Variable Override

ENRICH_WORKERS (OverrideEnv) pins the worker count for every pool sized
by this package. The limit passed by the caller still applies, so an
override of 64 gives the prefetch pool 4 workers, not 64:

	env:
	- name: ENRICH_WORKERS
	  value: "8"

Values that are not positive integers are ignored.

# Workload Types

CPU-bound tasks (multiplier 1.0): decoding, orientation, Lanczos
resampling and JPEG/PNG encoding. More workers than CPUs only adds
context switches and live bitmaps.

I/O-bound tasks (multiplier 2.0): stat calls and EXIF reads against the
media store, catalogue lookups and ffprobe runs. Workers spend most of
their time waiting, so more of them than CPUs keeps the pipeline busy.

Mixed tasks (multiplier 1.5): work that reads a file and then spends real
CPU on it, such as hashing or small re-encodes.

# Kubernetes Example

	resources:
	  limits:
	    cpu: "2"

With this limit GOMAXPROCS is 2, so:

  - workers.ForCPU(4) returns 2
  - workers.ForIO(32) returns 4
  - workers.ForMixed(12) returns 3

# Best Practices

Always pass a limit. A zero limit lets a large node create a pool far
larger than the downstream resource (the SQLite connection, the NFS
server) can serve.

Size for the scarcest resource. The prefetch cap is low because every
worker holds a decoded image; the memory monitor can pause prefetch, but
it cannot shrink a bitmap that is already allocated.

Log the chosen size next to GOMAXPROCS when a pool starts, so an
unexpected value can be traced to the container limit or the override.

# Thread Safety

All functions are safe for concurrent use. They read runtime.GOMAXPROCS
and the environment and keep no state of their own.
*/
package workers
