package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
)

// State is carried from one pass to the next by whoever schedules passes
type State struct {
	Passes      int
	LastPass    time.Time
	LastSuccess time.Time
	LastError   string
	// AuthAlerted suppresses repeat alerts until a pass completes without an auth failure
	AuthAlerted bool
}

// PassReport describes what a single pass did
type PassReport struct {
	Reachable  bool
	Push       PushResult
	Pull       PullResult
	PushErr    error
	PullErr    error
	AuthFailed bool
	PullRan    bool
	Duration   time.Duration
}

// Outcome is the label a pass is counted under
func (r PassReport) Outcome() string {
	switch {
	case !r.Reachable:
		return "unreachable"
	case r.AuthFailed:
		return "auth_failed"
	case r.Push.Aborted:
		return "push_aborted"
	case r.PushErr != nil || r.PullErr != nil:
		return "error"
	default:
		return "ok"
	}
}

// PassOptions tunes the probe step of a pass
type PassOptions struct {
	ProbeAttempts int
	ProbeDelay    time.Duration
}

// Orchestrator runs probe, push and pull as one sync pass
type Orchestrator struct {
	prober   *Prober
	pusher   *Pusher
	puller   *Puller
	notifier Notifier
	opts     PassOptions
	logger   logging.Logger

	passMu sync.Mutex
}

func NewOrchestrator(prober *Prober, pusher *Pusher, puller *Puller, notifier Notifier, opts PassOptions, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if opts.ProbeAttempts < 1 {
		opts.ProbeAttempts = 3
	}
	return &Orchestrator{
		prober:   prober,
		pusher:   pusher,
		puller:   puller,
		notifier: notifier,
		opts:     opts,
		logger:   logging.With(logger, "component", "sync"),
	}
}

// RunPass performs one probe, push, pull sequence. Only journal storage
// failures and cancellation are returned as errors; network and auth
// failures are recorded in the report and retried on the next pass.
//
// An unreachable remote skips the pass. A push aborted by a transport
// failure skips the pull, and a credential rejected by the remote aborts
// the whole pass. With no credential configured the push is skipped but
// the pull still runs since reads may not need it. Passes never overlap.
func (o *Orchestrator) RunPass(ctx context.Context, state *State) (PassReport, error) {
	o.passMu.Lock()
	defer o.passMu.Unlock()

	if state == nil {
		state = &State{}
	}
	start := time.Now()
	var report PassReport
	defer func() {
		report.Duration = time.Since(start)
		passDuration.Observe(report.Duration.Seconds())
		passCounter.WithLabelValues(report.Outcome()).Inc()
	}()

	state.Passes++
	state.LastPass = start

	if !o.prober.Probe(ctx, o.opts.ProbeAttempts, o.opts.ProbeDelay) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		o.logger.Info("Remote unreachable, staying offline for this pass")
		state.LastError = "remote unreachable"
		return report, nil
	}
	report.Reachable = true

	push, err := o.pusher.PushUnsynced(ctx)
	report.Push = push
	if err != nil {
		if fatal := o.fatal(ctx, err); fatal != nil {
			return report, fatal
		}
		report.PushErr = err
		if repoerrors.IsAuth(err) {
			report.AuthFailed = true
			o.authFailure(state, err)
			if !errors.Is(err, repoerrors.ErrMissingCredential) {
				o.logger.Warn("Push rejected by remote, pass aborted", "sent", push.Sent, "error", err)
				return report, nil
			}
		} else {
			state.LastError = err.Error()
			o.logger.Warn("Push incomplete, pull skipped until next pass", "sent", push.Sent, "skipped", push.Skipped, "error", err)
			return report, nil
		}
	}

	report.PullRan = true
	pull, err := o.puller.PullAll(ctx)
	report.Pull = pull
	if err != nil {
		if fatal := o.fatal(ctx, err); fatal != nil {
			return report, fatal
		}
		report.PullErr = err
		if repoerrors.IsAuth(err) {
			report.AuthFailed = true
			o.authFailure(state, err)
		} else {
			state.LastError = err.Error()
			o.logger.Warn("Pull failed", "error", err)
		}
	}

	if !report.AuthFailed {
		state.AuthAlerted = false
	}
	if report.PushErr == nil && report.PullErr == nil {
		state.LastSuccess = time.Now()
		state.LastError = ""
	}

	o.logger.Info("Sync pass completed",
		"sent", report.Push.Sent,
		"rejected", report.Push.Rejected,
		"fetched", report.Pull.Fetched,
		"inserted", report.Pull.Inserted,
		"outcome", report.Outcome(),
	)
	return report, nil
}

func (o *Orchestrator) fatal(ctx context.Context, err error) error {
	if repoerrors.IsStorage(err) {
		logging.LogError(o.logger, err, "RunPass", nil)
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return nil
}

func (o *Orchestrator) authFailure(state *State, err error) {
	state.LastError = err.Error()
	if state.AuthAlerted {
		o.logger.Debug("Remote credential still rejected", "error", err)
		return
	}
	state.AuthAlerted = true

	message := "The remote service rejected the API key. Records stay local until it is fixed."
	if errors.Is(err, repoerrors.ErrMissingCredential) {
		message = "No API key is configured. Records stay local until one is set."
	}
	o.logger.Error("Remote credential rejected", "error", err)
	if o.notifier != nil {
		if nerr := o.notifier.Notify("winrec sync", message); nerr != nil {
			o.logger.Warn("Failed to deliver notification", "error", nerr)
		}
	}
}
