package cache

import (
	"context"
	"time"

	"github.com/tradedesk/tiercache/internal/types"
)

// defaultProbeTimeout bounds how long a health check may hang on the remote
// tier's ping.
const defaultProbeTimeout = 2 * time.Second

// HealthMonitor probes each tier on demand. The local tier is in-process and
// healthy as long as it is open; the remote tier is healthy when it answers a
// ping. Overall health is the AND of all tiers.
type HealthMonitor struct {
	local         types.LocalTier
	remote        types.RemoteTier
	remoteEnabled bool
	probeTimeout  time.Duration
}

// NewHealthMonitor creates a monitor over the given tiers. remoteEnabled
// distinguishes a deliberately disabled remote tier (which does not count
// against health) from an enabled one that is failing.
func NewHealthMonitor(local types.LocalTier, remote types.RemoteTier, remoteEnabled bool) *HealthMonitor {
	return &HealthMonitor{
		local:         local,
		remote:        remote,
		remoteEnabled: remoteEnabled,
		probeTimeout:  defaultProbeTimeout,
	}
}

// Check probes each tier and returns the aggregated report.
func (h *HealthMonitor) Check(ctx context.Context) *types.HealthReport {
	report := &types.HealthReport{
		Timestamp: time.Now(),
	}

	report.Local = types.TierHealth{
		Name:    h.local.Name(),
		Healthy: h.local.IsAvailable(),
	}
	if !report.Local.Healthy {
		report.Local.Issues = append(report.Local.Issues, "local tier closed")
	}

	report.Remote = h.checkRemote(ctx)

	report.Healthy = report.Local.Healthy && report.Remote.Healthy

	switch {
	case report.Healthy:
		report.Status = types.HealthStatusHealthy
	case report.Local.Healthy:
		report.Status = types.HealthStatusDegraded
	default:
		report.Status = types.HealthStatusUnhealthy
	}

	return report
}

func (h *HealthMonitor) checkRemote(ctx context.Context) types.TierHealth {
	health := types.TierHealth{Name: h.remote.Name()}

	if !h.remoteEnabled {
		// A tier that was never configured is not a failure
		health.Healthy = true
		health.Issues = append(health.Issues, "remote tier disabled")
		return health
	}

	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	if err := h.remote.Ping(probeCtx); err != nil {
		health.Healthy = false
		health.Issues = append(health.Issues, "ping failed: "+err.Error())
		return health
	}

	health.Healthy = true
	return health
}
