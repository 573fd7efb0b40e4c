package syncer

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/repository"
	"winrec/internal/types"
)

// PushResult summarizes one push
type PushResult struct {
	Sent     int  // submitted and marked synced
	Skipped  int  // left unsynced because the batch was aborted
	Rejected int  // refused by the remote as invalid; left unsynced
	Aborted  bool // the batch stopped early
}

// PushOptions tunes the push synchronizer
type PushOptions struct {
	Timeout time.Duration // per record submission
	Rate    float64       // submissions per second, 0 for unlimited
}

// Pusher sends unsynced journal records to the remote store
type Pusher struct {
	journal repository.JournalRepository
	remote  RemoteStore
	timeout time.Duration
	limiter *rate.Limiter
	logger  logging.Logger
}

func NewPusher(journal repository.JournalRepository, remote RemoteStore, opts PushOptions, logger logging.Logger) *Pusher {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	return &Pusher{
		journal: journal,
		remote:  remote,
		timeout: opts.Timeout,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// PushUnsynced submits every unsynced record in journal order and marks each
// one synced as soon as the remote accepts it.
//
// The batch stops at the first transport failure, 5xx or auth failure and
// returns that error; the remaining records stay unsynced for the next pass.
// A record the remote rejects as invalid is counted and skipped. Storage
// errors from the journal are returned as is.
func (p *Pusher) PushUnsynced(ctx context.Context) (PushResult, error) {
	var result PushResult

	if !p.remote.HasCredential() {
		return result, repoerrors.NewRemoteError("PushUnsynced", repoerrors.ErrMissingCredential, repoerrors.ErrCodeAuth, nil)
	}

	records, err := p.journal.QueryUnsynced(ctx)
	if err != nil {
		return result, err
	}
	if len(records) == 0 {
		return result, nil
	}

	start := time.Now()
	for i, rec := range records {
		if err := p.limiter.Wait(ctx); err != nil {
			result.Aborted = true
			result.Skipped = len(records) - i
			return result, err
		}

		err := p.submit(ctx, rec)
		switch {
		case err == nil, repoerrors.IsDuplicate(err):
			if markErr := p.journal.MarkSynced(ctx, rec.ID); markErr != nil {
				return result, markErr
			}
			result.Sent++
			pushedCounter.WithLabelValues("sent").Inc()

		case repoerrors.IsValidation(err):
			result.Rejected++
			pushedCounter.WithLabelValues("rejected").Inc()
			p.logger.Warn("Remote rejected record", "id", rec.ID, "error", err)

		default:
			result.Aborted = true
			result.Skipped = len(records) - i
			pushedCounter.WithLabelValues("skipped").Add(float64(result.Skipped))
			p.logger.Warn("Push aborted",
				"sent", result.Sent,
				"remaining", result.Skipped,
				"error", err,
			)
			return result, err
		}
	}

	logging.LogOperation(p.logger, "PushUnsynced", time.Since(start), map[string]interface{}{
		"sent":     result.Sent,
		"rejected": result.Rejected,
	})
	return result, nil
}

func (p *Pusher) submit(ctx context.Context, rec types.ActivityRecord) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	_, err := p.remote.PostLog(ctx, types.SubmissionFor(rec))
	return err
}
