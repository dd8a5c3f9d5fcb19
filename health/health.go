// Package health provides reusable health check functions for engine
// deployments. It offers standardized ways to verify dependencies,
// connectivity, and system state before and while serving.
package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCheck verifies connectivity to the Redis instance backing the run
// queue. It parses the URL, dials, and pings within the context deadline.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	status := health.RedisCheck(ctx, "redis://localhost:6379/0")
//	if status.IsUnhealthy() {
//	    log.Fatal("run queue is unreachable")
//	}
func RedisCheck(ctx context.Context, url string) Status {
	if url == "" {
		return NewUnhealthyStatus("redis URL cannot be empty", nil)
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return NewUnhealthyStatus(
			fmt.Sprintf("invalid redis URL %q", url),
			map[string]any{
				"url":   url,
				"error": err.Error(),
			},
		)
	}

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return NewUnhealthyStatus(
			fmt.Sprintf("failed to ping redis at %s", opts.Addr),
			map[string]any{
				"addr":  opts.Addr,
				"error": err.Error(),
			},
		)
	}

	return NewHealthyStatus(
		fmt.Sprintf("redis at %s is reachable", opts.Addr),
	)
}

// NetworkCheck verifies TCP connectivity to a host and port. Useful for
// probing registry endpoints or hazard data services before a deployment
// reports itself ready.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	status := health.NetworkCheck(ctx, "etcd.internal", 2379)
//	if status.IsUnhealthy() {
//	    log.Println("registry endpoint unreachable")
//	}
func NetworkCheck(ctx context.Context, host string, port int) Status {
	if host == "" {
		return NewUnhealthyStatus("host cannot be empty", nil)
	}

	if port <= 0 || port > 65535 {
		return NewUnhealthyStatus(
			fmt.Sprintf("invalid port number: %d", port),
			map[string]any{"port": port},
		)
	}

	// Use context with timeout if not already set
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	address := net.JoinHostPort(host, strconv.Itoa(port))
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return NewUnhealthyStatus(
			fmt.Sprintf("failed to connect to %s", address),
			map[string]any{
				"host":  host,
				"port":  port,
				"error": err.Error(),
			},
		)
	}

	// Close connection immediately
	conn.Close()

	return NewHealthyStatus(
		fmt.Sprintf("successfully connected to %s", address),
	)
}

// FileCheck verifies that a file or directory exists at the specified path.
// It returns healthy if the path exists, unhealthy otherwise. Deployments
// use this to confirm portfolio documents and engine.yaml are in place.
//
// Example:
//
//	status := health.FileCheck("/etc/perilpool/portfolio.yaml")
//	if status.IsUnhealthy() {
//	    log.Fatal("portfolio file is missing")
//	}
func FileCheck(path string) Status {
	if path == "" {
		return NewUnhealthyStatus("path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewUnhealthyStatus(
				fmt.Sprintf("path '%s' does not exist", path),
				map[string]any{
					"path": path,
				},
			)
		}

		return NewUnhealthyStatus(
			fmt.Sprintf("failed to stat path '%s'", path),
			map[string]any{
				"path":  path,
				"error": err.Error(),
			},
		)
	}

	fileType := "file"
	if info.IsDir() {
		fileType = "directory"
	}

	return NewHealthyStatus(
		fmt.Sprintf("%s '%s' exists", fileType, path),
	)
}

// Combine aggregates multiple health checks into a single status.
// The result follows this priority:
//   - If any check is unhealthy, the result is unhealthy
//   - If any check is degraded (and none unhealthy), the result is degraded
//   - If all checks are healthy, the result is healthy
//
// Example:
//
//	status := health.Combine(
//	    health.RedisCheck(ctx, redisURL),
//	    health.FileCheck("/etc/perilpool/portfolio.yaml"),
//	)
//	if status.IsUnhealthy() {
//	    log.Fatal("engine dependencies not met")
//	}
func Combine(checks ...Status) Status {
	if len(checks) == 0 {
		return NewHealthyStatus("no checks provided")
	}

	var unhealthyChecks []string
	var degradedChecks []string
	var healthyCount int

	for _, check := range checks {
		switch check.Status {
		case StatusUnhealthy:
			msg := check.Message
			if msg == "" {
				msg = "unnamed check"
			}
			unhealthyChecks = append(unhealthyChecks, msg)
		case StatusDegraded:
			msg := check.Message
			if msg == "" {
				msg = "unnamed check"
			}
			degradedChecks = append(degradedChecks, msg)
		case StatusHealthy:
			healthyCount++
		}
	}

	// Return unhealthy if any check is unhealthy
	if len(unhealthyChecks) > 0 {
		return NewUnhealthyStatus(
			fmt.Sprintf("%d check(s) failed", len(unhealthyChecks)),
			map[string]any{
				"total":         len(checks),
				"unhealthy":     len(unhealthyChecks),
				"degraded":      len(degradedChecks),
				"healthy":       healthyCount,
				"failed_checks": unhealthyChecks,
			},
		)
	}

	// Return degraded if any check is degraded
	if len(degradedChecks) > 0 {
		return NewDegradedStatus(
			fmt.Sprintf("%d check(s) degraded", len(degradedChecks)),
			map[string]any{
				"total":           len(checks),
				"degraded":        len(degradedChecks),
				"healthy":         healthyCount,
				"degraded_checks": degradedChecks,
			},
		)
	}

	// All checks are healthy
	return NewHealthyStatus(
		fmt.Sprintf("all %d check(s) passed", len(checks)),
	)
}
