// Package worker provides the main loop for running aggregation engines as
// Redis queue workers.
//
// # Overview
//
// The worker package enables loss aggregation to run as a background daemon
// that consumes run requests from a Redis queue and publishes pooled measures
// back. This allows aggregation capacity to scale horizontally across multiple
// worker processes or containers sharing one queue.
//
// # Architecture
//
// Workers operate in a producer-consumer pattern:
//   - Submitters (producers): Push RunRequests onto the run queue
//   - Engine workers (consumers): Pop requests, execute runs, publish RunResults
//   - Submitters (collectors): Subscribe to per-run result channels
//
// # Usage
//
// To run a worker around your impact source:
//
//	func main() {
//	    source := myImpactSource()
//
//	    opts := worker.Options{
//	        RedisURL:        "redis://localhost:6379",
//	        EngineName:      "coastal-aggregator",
//	        Concurrency:     2,
//	        ShutdownTimeout: 30 * time.Second,
//	    }
//
//	    // Run the worker (blocks until shutdown)
//	    if err := worker.Run(source, opts); err != nil {
//	        log.Fatalf("Worker failed: %v", err)
//	    }
//	}
//
// Options left unset are read from engine.yaml (searched upward from the
// working directory) and finally fall back to built-in defaults.
//
// # Run Execution
//
// For each popped request the worker parses the inline portfolio document,
// selects the keying policy (the request's CEL expression or the default
// by-hazard policy), applies the request's currency, sims, and seed with the
// worker defaults as fallback, and executes one aggregation run. Failures at
// any step are captured into the RunResult's Error field; the worker never
// crashes on a bad request.
//
// # Concurrency
//
// The Concurrency option controls how many goroutines consume runs in
// parallel. Aggregation runs are CPU-bound, so concurrency beyond the core
// count mostly adds memory pressure; the default of 2 suits typical
// containers.
//
// # Graceful Shutdown
//
// Workers handle SIGTERM and SIGINT signals gracefully:
//  1. Signal received → context cancelled
//  2. Consumers finish their current runs
//  3. No new requests are popped from the queue
//  4. Consumers exit once current work completes
//  5. Run() returns (or times out after ShutdownTimeout)
//
// Requests still queued at shutdown remain in Redis for other workers.
//
// # Error Handling
//
// The worker loop is designed to be resilient:
//   - Redis connection errors: Fatal, causes Run() to return
//   - Pop errors: Logged and loop continues
//   - Run execution errors: Captured and published as error RunResults
//   - Context cancellation: Graceful shutdown initiated
package worker
