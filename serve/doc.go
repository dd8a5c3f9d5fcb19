// Package serve provides the gRPC health and discovery endpoint of engine
// deployments.
//
// Aggregation runs flow through the Redis run queue, so engines expose no RPC
// API of their own. This package gives every deployment a standard gRPC
// health endpoint for orchestration probes and, when a registry is
// configured, registers the instance for discovery. It handles server
// lifecycle, graceful shutdown, health checks, and signal handling.
//
// # Usage
//
//	func main() {
//	    err := serve.Engine("coastal-aggregator", "2.1.0",
//	        serve.WithPort(50052),
//	        serve.WithGracefulShutdown(30*time.Second),
//	        serve.WithRegistryFromEnv(),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Server Configuration
//
// The serve package provides flexible configuration through functional options:
//
//   - WithPort: Set the gRPC server port (default: 50052)
//   - WithGracefulShutdown: Set the graceful shutdown timeout (default: 30s)
//   - WithTLS: Enable TLS with certificate and key files
//   - WithLocalMode: Listen on a Unix socket alongside TCP
//   - WithAdvertiseAddr: Advertise a different address to the registry
//   - WithRegistry / WithRegistryFromEnv: Enable instance registration
//   - WithMetadata: Attach hazard or region coverage to the registration
//
// # Graceful Shutdown
//
// The server handles SIGINT and SIGTERM signals for graceful shutdown:
//
//  1. Signal received
//  2. Server stops accepting new connections
//  3. Active requests complete within timeout period
//  4. Instance deregisters and resources are cleaned up
//  5. Process exits
//
// # Health Checks
//
// The server exposes the standard gRPC health checking protocol. Load
// balancers and orchestration systems probe it over TCP or, in local mode,
// over the Unix socket. Deployments that track dependency state can flip the
// serving status through HealthServer().
package serve
