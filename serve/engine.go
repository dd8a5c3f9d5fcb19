package serve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/perilpool/sdk/registry"
)

// Engine starts the health and discovery endpoint of an engine deployment.
// It creates a gRPC server exposing the standard health checking protocol,
// optionally registers the instance with the configured registry, and serves
// until a shutdown signal is received or an error occurs.
//
// Run execution itself flows through the Redis run queue; this server exists
// so orchestration can probe liveness and submitters can discover endpoints.
//
// Example:
//
//	err := serve.Engine("coastal-aggregator", "2.1.0",
//	    serve.WithPort(50052),
//	    serve.WithGracefulShutdown(30*time.Second),
//	    serve.WithRegistryFromEnv(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Engine(name, version string, opts ...Option) error {
	// Build configuration
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Create server
	srv, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Set health status to serving
	srv.HealthServer().SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	slog.Info("engine health server started", "engine", name, "version", version, "port", srv.Port())

	// Register with registry if configured
	if cfg.Registry != nil {
		endpoint := advertiseEndpoint(cfg, srv.Port())

		inst := registry.Instance{
			Name:       name,
			Version:    version,
			InstanceID: uuid.New().String(),
			Endpoint:   endpoint,
			Metadata:   cfg.Metadata,
			StartedAt:  time.Now(),
		}

		ctx := context.Background()
		if err := cfg.Registry.Register(ctx, inst); err != nil {
			slog.Warn("failed to register with registry", "error", err, "endpoint", endpoint, "engine", name)
		} else {
			slog.Info("registered with registry", "endpoint", endpoint, "engine", name)
			// Deregister on shutdown
			defer func() {
				ctx := context.Background()
				if err := cfg.Registry.Deregister(ctx, inst); err != nil {
					slog.Warn("failed to deregister from registry", "error", err, "endpoint", endpoint, "engine", name)
				}
			}()
		}
	}

	// Start serving
	return srv.Serve(context.Background())
}

// advertiseEndpoint selects the endpoint registered for discovery: the Unix
// socket when local mode is enabled, then the advertise address, then the
// local TCP listen address.
func advertiseEndpoint(cfg *Config, port int) string {
	if cfg.LocalMode != "" {
		return fmt.Sprintf("unix://%s", cfg.LocalMode)
	}
	if cfg.AdvertiseAddr != "" {
		// Append the listen port when the address carries none
		if strings.Contains(cfg.AdvertiseAddr, ":") {
			return cfg.AdvertiseAddr
		}
		return fmt.Sprintf("%s:%d", cfg.AdvertiseAddr, port)
	}
	return fmt.Sprintf("localhost:%d", port)
}
