package backends

import "context"

// HealthChecker is an optional interface backends can implement to let
// failover chains skip them proactively.
type HealthChecker interface {
	// IsHealthy reports whether the backend can currently deliver mail.
	// Implementations should cache the result to avoid excessive API calls.
	IsHealthy(ctx context.Context) bool
}
