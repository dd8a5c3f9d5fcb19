package serve

import (
	"time"

	"github.com/perilpool/sdk/registry"
)

// Option is a functional option for configuring a Server.
// Options provide a flexible way to customize server behavior
// without requiring a large number of constructor parameters.
type Option func(*Config)

// WithPort sets the TCP port for the gRPC server.
// The port must be between 1 and 65535.
// Use port 0 to automatically select an available port.
//
// Example:
//
//	serve.Engine("coastal-aggregator", "2.1.0", serve.WithPort(8080))
func WithPort(port int) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithGracefulShutdown sets the maximum duration to wait for active
// requests to complete during graceful shutdown.
// After this timeout, the server will force shutdown.
//
// A longer timeout gives more time for long-running requests to complete,
// but delays shutdown. A shorter timeout causes faster shutdown but may
// interrupt active requests.
//
// Example:
//
//	serve.Engine("coastal-aggregator", "2.1.0", serve.WithGracefulShutdown(60*time.Second))
func WithGracefulShutdown(timeout time.Duration) Option {
	return func(c *Config) {
		c.GracefulTimeout = timeout
	}
}

// WithTLS enables TLS encryption for the gRPC server.
// Both certFile and keyFile must be valid paths to PEM-encoded files.
// If either path is empty, TLS will be disabled.
//
// The certificate file should contain the server's certificate chain.
// The key file should contain the server's private key.
//
// Example:
//
//	serve.Engine("coastal-aggregator", "2.1.0",
//	    serve.WithTLS("/etc/certs/server.crt", "/etc/certs/server.key"))
func WithTLS(certFile, keyFile string) Option {
	return func(c *Config) {
		c.TLSCertFile = certFile
		c.TLSKeyFile = keyFile
	}
}

// WithLocalMode enables Unix domain socket listening alongside TCP.
// The server will create a Unix socket at the specified path with 0600
// permissions (owner read/write only) for local IPC. The socket is
// automatically cleaned up on server shutdown.
//
// This is useful for same-host deployments where orchestration tooling
// probes engine health over a socket instead of TCP localhost.
//
// Example:
//
//	serve.Engine("coastal-aggregator", "2.1.0",
//	    serve.WithLocalMode("/var/run/perilpool/engines/coastal.sock"))
func WithLocalMode(socketPath string) Option {
	return func(c *Config) {
		c.LocalMode = socketPath
	}
}

// WithAdvertiseAddr sets the address advertised to the registry instead of
// the local listen address. If the value has no port, the server's listen
// port is appended.
//
// Example:
//
//	serve.Engine("coastal-aggregator", "2.1.0",
//	    serve.WithAdvertiseAddr("engine-3.perilpool.internal"))
func WithAdvertiseAddr(addr string) Option {
	return func(c *Config) {
		c.AdvertiseAddr = addr
	}
}

// WithRegistry enables automatic instance registration with the provided
// registry. When configured, the engine will:
//   - Register itself with the registry after the gRPC server starts
//   - Maintain its registration via lease keepalives
//   - Deregister during graceful shutdown
//
// Example:
//
//	reg, _ := registry.NewClient(cfg)
//	serve.Engine("coastal-aggregator", "2.1.0", serve.WithRegistry(reg))
func WithRegistry(reg registry.Registry) Option {
	return func(c *Config) {
		c.Registry = reg
	}
}

// WithRegistryFromEnv creates a registry client from the
// PERILPOOL_REGISTRY_ENDPOINTS environment variable. If the env var is not
// set, registration is skipped silently (the engine works but isn't
// discoverable).
//
// The env var should be comma-separated endpoints: "localhost:2379,etcd2:2379"
//
// This is a convenience wrapper around WithRegistry for deployments that
// configure discovery purely through the environment.
//
// Example:
//
//	serve.Engine("coastal-aggregator", "2.1.0", serve.WithRegistryFromEnv())
func WithRegistryFromEnv() Option {
	return func(c *Config) {
		client, err := registry.NewClientFromEnv()
		if err != nil {
			// The engine should still serve without discovery
			return
		}
		if client != nil {
			c.Registry = client
		}
		// If client is nil (env not set), leave c.Registry unset
	}
}

// WithMetadata attaches metadata to the registered instance, such as the
// hazards or portfolio regions the deployment covers. It has no effect
// unless a registry is configured.
//
// Example:
//
//	serve.Engine("coastal-aggregator", "2.1.0",
//	    serve.WithRegistry(reg),
//	    serve.WithMetadata(map[string]string{"hazards": "CoastalInundation"}))
func WithMetadata(metadata map[string]string) Option {
	return func(c *Config) {
		c.Metadata = metadata
	}
}
