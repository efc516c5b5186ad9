// Package resource implements the Controller for shared limits across arenas
// and snapshots.
//
// The Controller manages three resource types:
//
//   - Memory: budget for arena buffers (blocking with ctx, or fail-fast)
//   - Concurrency: limit concurrent snapshot jobs
//   - IO: rate-limit snapshot reads and writes so they do not starve the host
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                        Controller                           │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Memory Limit   │  Background     │  IO Rate Limiter        │
//	│  (semaphore)    │  Jobs (sem)     │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireBack-   │  AcquireIO              │
//	│  TryAcquire     │  ground         │  RateLimitedWriter      │
//	│  ReleaseMemory  │  TryAcquire     │  RateLimitedReader      │
//	│  MemoryUsage    │  Release        │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Memory Management
//
// A Controller satisfies arena.MemoryAcquirer. Arenas reserve their full size
// when created and release it on Close:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//	a, err := arena.New(1<<20, arena.WithMemoryAcquirer(rc))
//
// AcquireMemory blocks until memory is available or ctx is done.
// TryAcquireMemory returns false immediately when the limit would be exceeded.
//
// # IO Rate Limiting
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//
//	if err := rc.AcquireIO(ctx, len(chunk)); err != nil {
//	    return err
//	}
//
//	writer := resource.NewRateLimitedWriter(ctx, file, rc)
//	reader := resource.NewRateLimitedReader(ctx, file, rc)
//
// Requests larger than one second of budget are split into burst-sized waits.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
