// Package queue provides Redis-based run queue primitives for distributed loss
// aggregation.
//
// The queue package enables horizontal scaling of aggregation runs by decoupling
// run submission from execution. Submitters push run requests onto a Redis list,
// worker daemons consume and execute them, and pooled loss measures flow back
// through Redis pub/sub.
//
// # Core Components
//
// Client: Interface for interacting with the run queue. Provides methods for:
//   - Push/Pop operations for run requests
//   - PublishResult/SubscribeResults for measure delivery
//   - Engine registration and discovery
//   - Health monitoring and worker tracking
//
// RunRequest: A queued aggregation run carrying the scenario, projection year,
// run parameters, and the portfolio document to aggregate.
//
// RunResult: The outcome of a run, holding loss measures per pool key or an
// error message.
//
// EngineMeta: Metadata about a registered engine deployment for discovery.
//
// # Redis Key Schema
//
// All keys live under a configurable prefix (default "perilpool") so that
// independent deployments can share one Redis instance:
//   - <prefix>:runs:queue - List of run requests (LPUSH/BRPOP)
//   - <prefix>:engine:<name>:meta - Hash of engine metadata
//   - <prefix>:engine:<name>:health - String with 30s TTL for heartbeat
//   - <prefix>:engine:<name>:workers - Integer counter for active workers
//   - <prefix>:engines:available - Set of all registered engine names
//   - <prefix>:results:<runID> - Pub/Sub channel for the run's result
//
// # Usage
//
// Creating a queue client:
//
//	client, err := queue.NewRedisClient(queue.RedisOptions{
//		URL:            "redis://localhost:6379",
//		Prefix:         "perilpool",
//		ConnectTimeout: 5 * time.Second,
//	})
//
// Submitting a run:
//
//	err := client.Push(ctx, queue.RunRequest{
//		RunID:         uuid.New().String(),
//		Scenario:      "ssp585",
//		Year:          2050,
//		Sims:          100000,
//		Seed:          111,
//		PortfolioYAML: portfolioDoc,
//		SubmittedAt:   time.Now().UnixMilli(),
//	})
//
// Consuming runs (blocking):
//
//	req, err := client.Pop(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	// Execute the run...
//
// Publishing a result:
//
//	err := client.PublishResult(ctx, queue.RunResult{
//		RunID:       req.RunID,
//		Measures:    measures,
//		WorkerID:    workerID,
//		StartedAt:   startedAt,
//		CompletedAt: time.Now().UnixMilli(),
//	})
//
// Waiting for a result:
//
//	results, err := client.SubscribeResults(ctx, runID)
//	if err != nil {
//		log.Fatal(err)
//	}
//	result := <-results
//	for key, m := range result.Measures {
//		fmt.Printf("%s: mean loss %.2f\n", key, m.Mean)
//	}
//
// Registering an engine deployment:
//
//	err := client.RegisterEngine(ctx, queue.EngineMeta{
//		Name:        "coastal-aggregator",
//		Version:     "1.2.0",
//		Description: "Aggregation workers for the coastal book",
//		Tags:        []string{"eu-west", "coastal"},
//	})
//
// Sending heartbeats:
//
//	ticker := time.NewTicker(10 * time.Second)
//	for range ticker.C {
//		if err := client.Heartbeat(ctx, "coastal-aggregator"); err != nil {
//			log.Printf("Heartbeat failed: %v", err)
//		}
//	}
//
// # Error Handling
//
// All methods return errors for Redis connection failures, serialization
// errors, or context cancellation. Submitters should subscribe to the result
// channel before pushing the request, or the result may be published while
// nobody is listening.
//
// # Thread Safety
//
// RedisClient is safe for concurrent use by multiple goroutines.
package queue
