// Package registry provides service discovery and registration for aggregation
// engine deployments.
//
// Engine daemons register themselves at startup so that submitters and
// operational tooling can find running deployments without static endpoint
// lists. Entries are held in etcd under a lease: a crashed or partitioned
// engine disappears from discovery automatically when its lease expires.
//
// Deployments register on startup, maintain presence via lease keepalives,
// and deregister on graceful shutdown. Discovery is the single source of
// truth for which engines are reachable and on which endpoints.
package registry

import (
	"context"
	"time"
)

// Instance describes one running engine deployment.
//
// Several instances of the same deployment may run concurrently, each with a
// unique InstanceID. Discovery returns all of them; callers pick an endpoint
// according to their own strategy.
type Instance struct {
	// Name is the engine deployment name (e.g., "coastal-aggregator")
	Name string `json:"name"`

	// Version is the deployment version (e.g., "2.1.0")
	Version string `json:"version"`

	// InstanceID uniquely identifies this instance (typically UUID).
	// It allows multiple instances of the same deployment to coexist.
	InstanceID string `json:"instance_id"`

	// Endpoint is the network address where this instance serves its
	// health endpoint, in "host:port" form.
	Endpoint string `json:"endpoint"`

	// Metadata carries deployment-specific attributes such as:
	//   - hazards: comma-separated hazard coverage (e.g., "RiverineInundation,Wildfire")
	//   - regions: portfolio regions this deployment is provisioned for
	//   - any other custom key-value pairs
	Metadata map[string]string `json:"metadata"`

	// StartedAt is the timestamp when this instance started
	StartedAt time.Time `json:"started_at"`
}

// Registry defines the registration and discovery interface for engine
// deployments.
//
// Implementations must be safe for concurrent use. Entries are leased:
// registration creates a lease with the configured TTL and a background
// goroutine renews it, so stale entries vanish without operator action.
//
// Example usage:
//
//	reg, _ := registry.NewClient(cfg)
//	defer reg.Close()
//
//	inst := registry.Instance{
//	    Name:       "coastal-aggregator",
//	    Version:    "2.1.0",
//	    InstanceID: uuid.New().String(),
//	    Endpoint:   "localhost:50052",
//	    Metadata:   map[string]string{"hazards": "CoastalInundation"},
//	    StartedAt:  time.Now(),
//	}
//
//	reg.Register(ctx, inst)
//	defer reg.Deregister(ctx, inst)
type Registry interface {
	// Register adds this engine instance to the registry.
	//
	// The instance is discoverable immediately. The implementation creates a
	// lease with the configured TTL, stores the entry under it, and renews
	// the lease periodically (typically every TTL/3). Re-registering the
	// same InstanceID updates the existing entry instead of duplicating it.
	Register(ctx context.Context, inst Instance) error

	// Deregister removes this engine instance from the registry.
	//
	// Called during graceful shutdown to drop out of discovery immediately
	// instead of waiting for lease expiry. Deregistering an instance that
	// was never registered is a no-op, not an error.
	Deregister(ctx context.Context, inst Instance) error

	// Discover finds all running instances of the named deployment.
	//
	// The returned slice may be empty. Instances come back in arbitrary
	// order; callers that need a selection strategy apply their own.
	Discover(ctx context.Context, name string) ([]Instance, error)

	// DiscoverAll finds every registered engine instance across all
	// deployments. Useful for status displays and operational dashboards.
	DiscoverAll(ctx context.Context) ([]Instance, error)

	// Watch returns a channel that receives the current instance list of a
	// deployment whenever it changes: an instance registers, deregisters,
	// or its lease expires. The initial state is sent immediately.
	//
	// The channel is closed when the context is canceled, Close is called,
	// or the underlying watch fails.
	Watch(ctx context.Context, name string) (<-chan []Instance, error)

	// Close releases registry resources and stops all background
	// goroutines. After Close, all other methods return errors. Active
	// watches are terminated and their channels closed.
	Close() error
}

// Config holds registry connection configuration.
type Config struct {
	// Endpoints is the list of etcd endpoints, e.g.
	// ["host1:2379", "host2:2379", "host3:2379"]. Required.
	Endpoints []string `json:"endpoints"`

	// Namespace is the etcd key prefix for all engine entries.
	// Instances are stored under /{namespace}/engines/{name}/{instance-id}.
	// Default: "perilpool"
	Namespace string `json:"namespace"`

	// TTL is the lease time-to-live in seconds. An instance that fails to
	// renew within this interval is removed from discovery.
	// Default: 30 seconds
	TTL int `json:"ttl"`

	// TLS enables mutual TLS towards etcd when set. Nil disables TLS.
	TLS *TLSConfig `json:"tls"`
}

// TLSConfig holds certificate paths for mutual TLS towards etcd. All three
// files are required when the section is present.
type TLSConfig struct {
	// CertFile is the path to the client certificate (PEM format)
	CertFile string `json:"cert_file"`

	// KeyFile is the path to the client private key (PEM format)
	KeyFile string `json:"key_file"`

	// CAFile is the path to the certificate authority bundle (PEM format)
	// used to verify the etcd server's certificate
	CAFile string `json:"ca_file"`
}
