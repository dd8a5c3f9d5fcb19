package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Client implements Registry over an etcd cluster.
//
// The client connects to etcd and provides instance registration, discovery,
// and watch capabilities for engine deployments. It handles lease management
// automatically, renewing leases every TTL/3 to maintain presence.
//
// Example usage:
//
//	cfg := registry.Config{
//	    Endpoints: []string{"localhost:2379"},
//	    Namespace: "perilpool",
//	    TTL:       30,
//	}
//	client, err := registry.NewClient(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// Thread-safety: All methods are safe for concurrent use.
type Client struct {
	client    *clientv3.Client
	namespace string
	ttl       int

	// Lease tracking for keepalive
	mu         sync.RWMutex
	leases     map[string]clientv3.LeaseID // key: instance ID, value: lease ID
	cancelFns  map[string]context.CancelFunc
	wg         sync.WaitGroup // tracks background goroutines
	closed     bool
	closedChan chan struct{}
}

// NewClient creates a registry client from the provided configuration.
//
// This establishes a connection to the etcd cluster and verifies connectivity
// by performing a health check. If the connection fails, an error is returned.
//
// The client must be closed using Close() when no longer needed to release
// resources and stop background keepalive goroutines.
//
// Parameters:
//   - cfg: Configuration containing endpoints, namespace, TTL, and TLS settings
//
// Returns:
//   - *Client: A connected registry client
//   - error: Connection error if etcd is unreachable or authentication fails
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("registry endpoints cannot be empty")
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "perilpool"
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30
	}

	// Build etcd client config
	clientCfg := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: 5 * time.Second,
	}

	// Configure TLS if a certificate section is present
	if cfg.TLS != nil {
		tlsInfo, err := newTLSInfo(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		tlsConfig, err := tlsInfo.ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		clientCfg.TLS = tlsConfig
	}

	// Create etcd client
	cli, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	// Verify connectivity with a quick health check
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = cli.Get(ctx, "health-check")
	if err != nil && err != context.DeadlineExceeded {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return &Client{
		client:     cli,
		namespace:  namespace,
		ttl:        ttl,
		leases:     make(map[string]clientv3.LeaseID),
		cancelFns:  make(map[string]context.CancelFunc),
		closedChan: make(chan struct{}),
	}, nil
}

// NewClientFromEnv creates a registry client using the
// PERILPOOL_REGISTRY_ENDPOINTS environment variable.
//
// The environment variable should contain a comma-separated list of etcd
// endpoints:
//
//	PERILPOOL_REGISTRY_ENDPOINTS=localhost:2379,localhost:2380,localhost:2381
//
// If the environment variable is not set, this function returns (nil, nil) to
// allow engines to work gracefully without registry integration. This is NOT
// considered an error - the engine will function but won't be discoverable.
//
// Returns:
//   - *Client: A connected registry client, or nil if env var not set
//   - error: Connection error if env var is set but connection fails
func NewClientFromEnv() (*Client, error) {
	endpoints := os.Getenv("PERILPOOL_REGISTRY_ENDPOINTS")
	if endpoints == "" {
		// Not an error - the engine works but isn't registered
		return nil, nil
	}

	// Parse comma-separated endpoints
	endpointList := strings.Split(endpoints, ",")
	for i, ep := range endpointList {
		endpointList[i] = strings.TrimSpace(ep)
	}

	// Create config with defaults
	cfg := Config{
		Endpoints: endpointList,
		Namespace: "perilpool",
		TTL:       30,
	}

	return NewClient(cfg)
}

// Register adds this engine instance to the registry.
//
// The instance is discoverable immediately and remains registered as long as
// the lease is kept alive. A background goroutine is started to renew the
// lease every TTL/3 seconds.
//
// If the instance is already registered (same InstanceID), this updates the
// existing entry and restarts the keepalive goroutine.
//
// Parameters:
//   - ctx: Context for the registration operation (not for keepalive)
//   - inst: Instance information to register
//
// Returns:
//   - error: Registration error if etcd is unavailable or lease creation fails
func (c *Client) Register(ctx context.Context, inst Instance) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("registry client is closed")
	}

	// Cancel existing keepalive if re-registering
	if cancelFn, exists := c.cancelFns[inst.InstanceID]; exists {
		cancelFn()
		delete(c.cancelFns, inst.InstanceID)
	}

	// Create lease with TTL
	leaseResp, err := c.client.Grant(ctx, int64(c.ttl))
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	// Serialize instance info to JSON
	data, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("failed to marshal instance info: %w", err)
	}

	// Build registry key: /namespace/engines/name/instance-id
	key := c.buildKey(inst.Name, inst.InstanceID)

	// Put instance info with lease
	_, err = c.client.Put(ctx, key, string(data), clientv3.WithLease(leaseResp.ID))
	if err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	// Store lease ID
	c.leases[inst.InstanceID] = leaseResp.ID

	// Start keepalive goroutine
	keepaliveCtx, cancel := context.WithCancel(context.Background())
	c.cancelFns[inst.InstanceID] = cancel

	c.wg.Add(1)
	go c.keepalive(keepaliveCtx, leaseResp.ID, inst.InstanceID)

	return nil
}

// Deregister removes this engine instance from the registry.
//
// This revokes the etcd lease, which immediately deletes the instance entry.
// The background keepalive goroutine is stopped.
//
// If the instance is not registered, this is a no-op (not an error).
//
// Parameters:
//   - ctx: Context for the deregistration operation
//   - inst: Instance information to deregister (InstanceID is used)
//
// Returns:
//   - error: Deregistration error if etcd is unavailable
func (c *Client) Deregister(ctx context.Context, inst Instance) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("registry client is closed")
	}

	// Stop keepalive goroutine
	if cancelFn, exists := c.cancelFns[inst.InstanceID]; exists {
		cancelFn()
		delete(c.cancelFns, inst.InstanceID)
	}

	// Revoke lease (deletes the instance entry)
	leaseID, exists := c.leases[inst.InstanceID]
	if !exists {
		// Not registered, this is a no-op
		return nil
	}

	_, err := c.client.Revoke(ctx, leaseID)
	if err != nil {
		return fmt.Errorf("failed to revoke lease: %w", err)
	}

	delete(c.leases, inst.InstanceID)

	return nil
}

// Discover finds all running instances of the named deployment.
//
// Returns all currently registered instances. The slice may be empty if no
// instances are running. Instances are returned in arbitrary order.
//
// Parameters:
//   - ctx: Context for the discovery operation
//   - name: Engine deployment name (e.g., "coastal-aggregator")
//
// Returns:
//   - []Instance: List of registered instances
//   - error: Discovery error if etcd is unavailable
func (c *Client) Discover(ctx context.Context, name string) ([]Instance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("registry client is closed")
	}

	// Query all instances: /namespace/engines/name/
	prefix := fmt.Sprintf("/%s/engines/%s/", c.namespace, name)

	return c.query(ctx, prefix)
}

// DiscoverAll finds every registered engine instance across all deployments.
//
// This is useful for status displays that want to show everything currently
// registered.
//
// Parameters:
//   - ctx: Context for the discovery operation
//
// Returns:
//   - []Instance: List of all registered instances
//   - error: Discovery error if etcd is unavailable
func (c *Client) DiscoverAll(ctx context.Context) ([]Instance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("registry client is closed")
	}

	// Query all instances of every deployment: /namespace/engines/
	prefix := fmt.Sprintf("/%s/engines/", c.namespace)

	return c.query(ctx, prefix)
}

// query fetches and decodes all instance entries under an etcd key prefix.
// Entries that fail to decode are skipped.
func (c *Client) query(ctx context.Context, prefix string) ([]Instance, error) {
	resp, err := c.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to discover instances: %w", err)
	}

	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var inst Instance
		if err := json.Unmarshal(kv.Value, &inst); err != nil {
			// Skip invalid entries
			continue
		}
		instances = append(instances, inst)
	}

	return instances, nil
}

// Watch returns a channel that receives updates when a deployment changes.
//
// The channel emits the current list of instances whenever one registers,
// deregisters, or its lease expires. The initial state is sent immediately.
//
// The channel is closed when the context is canceled or Close() is called.
//
// Parameters:
//   - ctx: Context that controls the watch lifetime
//   - name: Engine deployment name to watch
//
// Returns:
//   - <-chan []Instance: Channel that receives instance updates
//   - error: Watch error if etcd is unavailable
func (c *Client) Watch(ctx context.Context, name string) (<-chan []Instance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("registry client is closed")
	}

	prefix := fmt.Sprintf("/%s/engines/%s/", c.namespace, name)

	ch := make(chan []Instance, 1)

	// Send initial state
	instances, err := c.query(ctx, prefix)
	if err != nil {
		return nil, err
	}
	ch <- instances

	// Watch for changes
	watchChan := c.client.Watch(ctx, prefix, clientv3.WithPrefix())

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.closedChan:
				return
			case watchResp, ok := <-watchChan:
				if !ok {
					return
				}
				if watchResp.Err() != nil {
					return
				}

				// Fetch current state after any change
				instances, err := c.query(context.Background(), prefix)
				if err != nil {
					// Skip this update if we can't query
					continue
				}

				select {
				case ch <- instances:
				case <-ctx.Done():
					return
				case <-c.closedChan:
					return
				}
			}
		}
	}()

	return ch, nil
}

// Close releases all resources and stops background goroutines.
//
// After Close() is called, all other methods will return errors. All active
// watches are terminated and their channels closed. All keepalive goroutines
// are stopped.
//
// Returns:
//   - error: Cleanup error, typically ignored during shutdown
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true

	// Cancel all keepalive goroutines
	for _, cancel := range c.cancelFns {
		cancel()
	}
	c.cancelFns = make(map[string]context.CancelFunc)

	close(c.closedChan)
	c.mu.Unlock()

	// Wait for all goroutines to finish
	c.wg.Wait()

	// Close etcd client
	return c.client.Close()
}

// keepalive renews the lease every TTL/3 seconds to maintain presence.
//
// This runs in a background goroutine started by Register(). It stops when:
//   - The context is canceled (via Deregister or Close)
//   - The lease becomes invalid
//   - An unrecoverable error occurs
func (c *Client) keepalive(ctx context.Context, leaseID clientv3.LeaseID, instanceID string) {
	defer c.wg.Done()

	// Renew every TTL/3 seconds
	interval := time.Duration(c.ttl) * time.Second / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closedChan:
			return
		case <-ticker.C:
			_, err := c.client.KeepAliveOnce(context.Background(), leaseID)
			if err != nil {
				// Lease is invalid, stop keepalive
				c.mu.Lock()
				delete(c.leases, instanceID)
				delete(c.cancelFns, instanceID)
				c.mu.Unlock()
				return
			}
		}
	}
}

// buildKey constructs the etcd key for an engine instance.
//
// Format: /namespace/engines/name/instance-id
func (c *Client) buildKey(name, instanceID string) string {
	return fmt.Sprintf("/%s/engines/%s/%s", c.namespace, name, instanceID)
}
