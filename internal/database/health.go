package database

import (
	"context"
	"fmt"
)

// HealthStatus summarizes pool health for the /readyz and /diagnostics
// endpoints.
type HealthStatus struct {
	Reachable         bool
	TotalConns        int32
	IdleConns         int32
	AcquiredConns     int32
	SchemaVersion     int
}

// Health pings the pool and reports current statistics.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	if err := c.Pool.Ping(ctx); err != nil {
		return &HealthStatus{Reachable: false}, fmt.Errorf("%w: %v", errUnreachable, err)
	}
	stat := c.Pool.Stat()
	return &HealthStatus{
		Reachable:     true,
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		SchemaVersion: c.schemaVersion,
	}, nil
}

var errUnreachable = fmt.Errorf("database unreachable")
