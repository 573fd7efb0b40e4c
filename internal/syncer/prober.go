package syncer

import (
	"context"
	"time"

	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
)

// Prober checks whether the remote service answers before a pass touches the network
type Prober struct {
	remote RemoteStore
	logger logging.Logger
}

func NewProber(remote RemoteStore, logger logging.Logger) *Prober {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Prober{remote: remote, logger: logger}
}

// Probe pings the remote up to maxAttempts times, sleeping delay between
// attempts. Only transport failures and 5xx responses count as unreachable;
// a service that rejects the request still answered. Probe returns false
// once attempts are exhausted or ctx is done.
func (p *Prober) Probe(ctx context.Context, maxAttempts int, delay time.Duration) bool {
	config := repoerrors.FixedDelayConfig(maxAttempts, delay)
	config.Logger = repoerrors.NewLoggerBridge(p.logger)

	err := repoerrors.WithRetryContext(ctx, config, func() error {
		return p.remote.Ping(ctx)
	}, "Probe")
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	if repoerrors.IsTransient(err) {
		probeFailures.Inc()
		p.logger.Warn("Remote service unreachable", "attempts", config.MaxAttempts, "error", err)
		return false
	}

	p.logger.Debug("Remote service answered with an error", "error", err)
	return true
}
