// Package resource bounds what concurrent recommender calls may use together.
//
//   - Memory: similarity buffers reserved per query batch (blocking, with a
//     fail-fast check for requests that can never fit)
//   - Workers: a shared cap on batch goroutines across Predict calls
//   - IO: a token bucket for artifact writes and reads
//
// # Usage
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   256 << 20,
//	    MaxWorkers:         8,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(ctx, n); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(n)
//
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
