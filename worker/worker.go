package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/perilpool/sdk"
	"github.com/perilpool/sdk/aggregation"
	"github.com/perilpool/sdk/config"
	"github.com/perilpool/sdk/impact"
	"github.com/perilpool/sdk/portfolio"
	"github.com/perilpool/sdk/queue"
)

// Options configures the worker behavior.
type Options struct {
	// RedisURL is the Redis connection string (e.g., "redis://localhost:6379")
	RedisURL string

	// QueuePrefix namespaces the run queue keys.
	// If empty, uses value from engine.yaml or default ("perilpool").
	QueuePrefix string

	// EngineName identifies this deployment in the registry and metadata.
	// If empty, uses the engine.yaml name or "perilpool-engine".
	EngineName string

	// EngineVersion is the version advertised in engine metadata.
	EngineVersion string

	// Description is the human-readable deployment description.
	Description string

	// Tags categorize the deployment in engine metadata.
	Tags []string

	// Concurrency is the number of run consumer goroutines to start.
	// If 0, uses value from engine.yaml or default (2).
	Concurrency int

	// ShutdownTimeout is the time to wait for graceful shutdown.
	// If 0, uses value from engine.yaml or default (30s).
	ShutdownTimeout time.Duration

	// HeartbeatInterval is the interval between worker heartbeats.
	// If 0, uses value from engine.yaml or default (10s).
	HeartbeatInterval time.Duration

	// Currency is the default reporting currency for runs that do not set one.
	Currency string

	// Sims is the default sample count for runs that do not set one.
	Sims int

	// Seed is the default generator seed for runs that do not set one.
	Seed uint64

	// Logger is the structured logger for worker operations.
	// If nil, a default logger will be created.
	Logger *slog.Logger

	// EngineConfig is the parsed engine.yaml configuration.
	// If nil, the worker will attempt to load it from the current directory.
	EngineConfig *config.Config

	// ConfigPath is the path to engine.yaml.
	// If empty and EngineConfig is nil, searches from current directory.
	ConfigPath string
}

// runDefaults are the worker-level fallbacks applied to queued runs that leave
// currency, sims, or seed unset.
type runDefaults struct {
	currency string
	sims     int
	seed     uint64
}

// Run starts the worker loop for the given impact source with the specified
// options. It connects to Redis, registers the engine deployment, starts N
// consumer goroutines based on Concurrency, maintains a heartbeat, and handles
// graceful shutdown on SIGTERM/SIGINT.
//
// Configuration priority (highest to lowest):
//  1. Explicit Options values (if non-zero)
//  2. engine.yaml sections
//  3. Default values
//
// Each consumer goroutine:
//  1. Pops a run request from the queue
//  2. Parses the portfolio and executes the aggregation run
//  3. Publishes the measures back to the run's result channel
//
// The function blocks until a shutdown signal is received or an error occurs.
// On shutdown, it waits for all consumers to finish their current runs before
// returning.
//
// Returns an error if Redis connection or model construction fails.
func Run(source impact.Source, opts Options) error {
	// Load engine.yaml if not provided
	engineCfg := opts.EngineConfig
	if engineCfg == nil {
		var err error
		if opts.ConfigPath != "" {
			engineCfg, err = config.Load(opts.ConfigPath)
		} else {
			engineCfg, err = config.LoadFromCurrentDir()
		}
		if err != nil {
			// engine.yaml is optional - just use defaults
			engineCfg = nil
		}
	}

	// Apply configuration with priority: explicit opts > engine.yaml > defaults
	opts = applyEngineConfig(opts, engineCfg)

	// Set remaining defaults
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	// Generate unique worker ID (hostname + PID + UUID)
	workerID := generateWorkerID()

	logger := opts.Logger.With(
		"engine", opts.EngineName,
		"worker_id", workerID,
	)

	logger.Info("worker starting",
		"concurrency", opts.Concurrency,
		"redis_url", opts.RedisURL,
		"queue_prefix", opts.QueuePrefix,
	)

	// Connect to Redis
	redisClient, err := queue.NewRedisClient(queue.RedisOptions{
		URL:    opts.RedisURL,
		Prefix: opts.QueuePrefix,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer sdk.CloseWithLog(redisClient, logger, "redis queue client")

	// The model is built once and shared by all consumers
	model, err := sdk.NewModel(
		sdk.WithImpactSource(source),
		sdk.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	// Create context for worker lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Register engine deployment with Redis
	meta := queue.EngineMeta{
		Name:        opts.EngineName,
		Version:     opts.EngineVersion,
		Description: opts.Description,
		Tags:        opts.Tags,
		WorkerCount: 0, // Updated separately
	}

	logger.Info("registering engine",
		"name", meta.Name,
		"version", meta.Version,
	)

	if err := redisClient.RegisterEngine(ctx, meta); err != nil {
		logger.Error("failed to register engine", "error", err)
		return fmt.Errorf("failed to register engine: %w", err)
	}

	logger.Info("engine registered successfully")

	// Increment worker count on startup
	if err := redisClient.IncrementWorkerCount(ctx, opts.EngineName); err != nil {
		logger.Error("failed to increment worker count", "error", err)
	}

	// Ensure worker count is decremented on exit (even on crash)
	defer func() {
		// Use background context for cleanup since ctx may be cancelled
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		if err := redisClient.DecrementWorkerCount(cleanupCtx, opts.EngineName); err != nil {
			logger.Error("failed to decrement worker count", "error", err)
		}
	}()

	// Start heartbeat goroutine
	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go runHeartbeat(heartbeatCtx, redisClient, opts.EngineName, opts.HeartbeatInterval, logger)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	defaults := runDefaults{
		currency: opts.Currency,
		sims:     opts.Sims,
		seed:     opts.Seed,
	}

	// Start consumer goroutines
	var wg sync.WaitGroup
	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			workerLoop(ctx, workerNum, model, redisClient, defaults, workerID, logger)
		}(i)
	}

	logger.Info("worker started", "workers", opts.Concurrency)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("received signal, initiating graceful shutdown", "signal", sig)

	// Cancel context to stop consumers and heartbeat
	cancel()

	// Wait for consumers to finish with timeout
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Info("worker shutdown complete")
	case <-time.After(opts.ShutdownTimeout):
		logger.Warn("worker shutdown timeout exceeded", "timeout", opts.ShutdownTimeout)
	}

	return nil
}

// runHeartbeat sends periodic heartbeats to maintain engine health status.
// It runs in a goroutine and stops when the context is cancelled.
func runHeartbeat(ctx context.Context, client queue.Client, engineName string, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Debug("heartbeat goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("heartbeat goroutine stopped")
			return
		case <-ticker.C:
			if err := client.Heartbeat(ctx, engineName); err != nil {
				// Heartbeat failures are transient, keep the noise down
				logger.Debug("heartbeat failed", "error", err)
			}
		}
	}
}

// workerLoop is the main loop for a single consumer goroutine.
// It continuously pops run requests from the queue, executes them,
// and publishes results until the context is cancelled.
func workerLoop(ctx context.Context, workerNum int, model sdk.Model, client queue.Client, defaults runDefaults, workerID string, logger *slog.Logger) {
	logger = logger.With("worker_num", workerNum)
	logger.Debug("worker loop started")

	for {
		// Check if context is cancelled before popping
		select {
		case <-ctx.Done():
			logger.Debug("worker loop stopped", "reason", "context_cancelled")
			return
		default:
		}

		// Pop run request from queue (blocking with context)
		req, err := client.Pop(ctx)
		if err != nil {
			// Check if context was cancelled during Pop
			if ctx.Err() != nil {
				logger.Debug("worker loop stopped", "reason", "context_error")
				return
			}
			// Log error and continue
			logger.Error("failed to pop run request", "error", err)
			continue
		}

		// Check if Pop returned nil (shouldn't happen but handle it)
		if req == nil {
			continue
		}

		logger.Info("received run request",
			"run_id", req.RunID,
			"scenario", req.Scenario,
			"year", req.Year,
			"queue_wait_ms", req.Age().Milliseconds(),
		)

		// Execute the aggregation run
		result := executeRun(ctx, model, *req, defaults, workerID, logger)

		// Publish result to the run's channel
		if err := client.PublishResult(ctx, result); err != nil {
			logger.Error("failed to publish result", "error", err)
		}
	}
}

// executeRun executes a single run request and returns a result.
// It handles all errors at each step and ensures a result is always returned.
func executeRun(ctx context.Context, model sdk.Model, req queue.RunRequest, defaults runDefaults, workerID string, logger *slog.Logger) queue.RunResult {
	startedAt := time.Now().UnixMilli()

	result := queue.RunResult{
		RunID:       req.RunID,
		WorkerID:    workerID,
		StartedAt:   startedAt,
		CompletedAt: 0, // Set later
	}

	if err := req.IsValid(); err != nil {
		result.Error = fmt.Sprintf("invalid run request: %v", err)
		result.CompletedAt = time.Now().UnixMilli()
		logger.Error("invalid run request", "run_id", req.RunID, "error", err)
		return result
	}

	// Parse the portfolio document
	pf, err := portfolio.Parse([]byte(req.PortfolioYAML))
	if err != nil {
		result.Error = fmt.Sprintf("failed to parse portfolio: %v", err)
		result.CompletedAt = time.Now().UnixMilli()
		logger.Error("failed to parse portfolio", "run_id", req.RunID, "error", err)
		return result
	}

	// Build run options from the request, falling back to worker defaults
	runOpts := make([]sdk.RunOption, 0, 4)
	if currency := pick(req.Currency, defaults.currency); currency != "" {
		runOpts = append(runOpts, sdk.WithCurrency(currency))
	}
	if sims := pickInt(req.Sims, defaults.sims); sims > 0 {
		runOpts = append(runOpts, sdk.WithSims(sims))
	}
	if seed := pickUint(req.Seed, defaults.seed); seed > 0 {
		runOpts = append(runOpts, sdk.WithSeed(seed))
	}

	// An explicit keying expression overrides the default by-hazard policy
	if req.KeyExpr != "" {
		aggregator, err := aggregation.NewCELAggregator(req.KeyExpr)
		if err != nil {
			result.Error = fmt.Sprintf("failed to compile keying expression: %v", err)
			result.CompletedAt = time.Now().UnixMilli()
			logger.Error("failed to compile keying expression", "run_id", req.RunID, "error", err)
			return result
		}
		runOpts = append(runOpts, sdk.WithAggregator(aggregator))
	}

	measures, err := model.GetFinancialImpacts(ctx, pf.Assets(), pf.Provider(), req.Scenario, req.Year, runOpts...)
	if err != nil {
		result.Error = err.Error()
		result.CompletedAt = time.Now().UnixMilli()
		logger.Error("aggregation run failed", "run_id", req.RunID, "error", err)
		return result
	}

	result.Measures = measures
	result.CompletedAt = time.Now().UnixMilli()

	logger.Info("run completed",
		"run_id", req.RunID,
		"pools", len(measures),
		"duration_ms", result.CompletedAt-result.StartedAt,
	)

	return result
}

// generateWorkerID creates a unique identifier for this worker instance.
// Uses hostname + PID + UUID for uniqueness.
func generateWorkerID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	pid := os.Getpid()

	// Add UUID suffix for additional uniqueness
	id := uuid.New().String()[:8]

	return fmt.Sprintf("%s-%d-%s", hostname, pid, id)
}

// pick returns the first non-empty string.
func pick(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	return fallback
}

// pickInt returns the first positive int.
func pickInt(explicit, fallback int) int {
	if explicit > 0 {
		return explicit
	}
	return fallback
}

// pickUint returns the first non-zero uint64.
func pickUint(explicit, fallback uint64) uint64 {
	if explicit != 0 {
		return explicit
	}
	return fallback
}

// applyEngineConfig applies engine.yaml settings to Options.
// Explicit Options values take priority over engine.yaml values.
func applyEngineConfig(opts Options, cfg *config.Config) Options {
	if cfg != nil {
		if opts.EngineName == "" {
			opts.EngineName = cfg.Name
		}
		if opts.EngineVersion == "" {
			opts.EngineVersion = cfg.Version
		}
		if opts.Description == "" {
			opts.Description = cfg.Description
		}
		if opts.RedisURL == "" && cfg.Redis != nil {
			opts.RedisURL = cfg.Redis.GetURL()
		}
		if opts.QueuePrefix == "" {
			opts.QueuePrefix = cfg.Worker.GetQueuePrefix()
		}
		if opts.Concurrency <= 0 {
			opts.Concurrency = cfg.Worker.GetConcurrency()
		}
		if opts.ShutdownTimeout == 0 {
			opts.ShutdownTimeout = cfg.Worker.GetShutdownTimeout()
		}
		if opts.HeartbeatInterval == 0 {
			opts.HeartbeatInterval = cfg.Worker.GetHeartbeatInterval()
		}
		if cfg.Defaults != nil {
			if opts.Currency == "" {
				opts.Currency = cfg.Defaults.Currency
			}
			if opts.Sims <= 0 {
				opts.Sims = cfg.Defaults.Sims
			}
			if opts.Seed == 0 {
				opts.Seed = cfg.Defaults.Seed
			}
		}
	}

	// Fall back to built-in defaults for anything still unset
	if opts.EngineName == "" {
		opts.EngineName = "perilpool-engine"
	}
	if opts.EngineVersion == "" {
		opts.EngineVersion = "dev"
	}
	if opts.RedisURL == "" {
		opts.RedisURL = "redis://localhost:6379"
	}
	if opts.QueuePrefix == "" {
		opts.QueuePrefix = queue.DefaultPrefix
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 30 * time.Second
	}
	if opts.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = 10 * time.Second
	}

	return opts
}
