// Package health provides reusable health check functions for engine
// deployments.
//
// This package offers standardized ways to verify dependencies, connectivity,
// and system state. Engine daemons run these checks before reporting
// themselves as serving and periodically while running.
//
// # Health Check Functions
//
// The package provides four main health check functions:
//
//   - RedisCheck: Verify the run queue's Redis instance is reachable
//   - NetworkCheck: Verify TCP connectivity to a host:port
//   - FileCheck: Verify a file or directory exists
//   - Combine: Aggregate multiple health checks into a single status
//
// # Usage Example
//
//	import (
//	    "context"
//	    "time"
//	    "github.com/perilpool/sdk/health"
//	)
//
//	// Check the run queue
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	queueStatus := health.RedisCheck(ctx, "redis://localhost:6379/0")
//	if queueStatus.IsUnhealthy() {
//	    log.Fatal("run queue is unreachable")
//	}
//
//	// Check the registry endpoint
//	registryStatus := health.NetworkCheck(ctx, "etcd.internal", 2379)
//
//	// Combine multiple checks
//	overall := health.Combine(
//	    queueStatus,
//	    registryStatus,
//	    health.FileCheck("/etc/perilpool/portfolio.yaml"),
//	)
//
//	if overall.IsUnhealthy() {
//	    log.Printf("Health check failed: %s", overall.Message)
//	    log.Printf("Details: %+v", overall.Details)
//	}
//
// # Health Status Priority
//
// When combining health checks with Combine(), the result follows this priority:
//
//   - Unhealthy: If any check is unhealthy, the combined result is unhealthy
//   - Degraded: If any check is degraded (and none unhealthy), the result is degraded
//   - Healthy: If all checks are healthy, the result is healthy
//
// # Context and Timeouts
//
// RedisCheck and NetworkCheck accept a context for timeout and cancellation
// control. If nil is passed, a default 5-second timeout is used.
package health
