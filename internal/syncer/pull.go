package syncer

import (
	"context"
	"time"

	"winrec/internal/infrastructure/logging"
	"winrec/internal/repository"
	"winrec/internal/types"
)

// PullResult summarizes one pull
type PullResult struct {
	Fetched  int
	Inserted int
}

// Puller merges the remote record set into the local journal
type Puller struct {
	journal   repository.JournalRepository
	remote    RemoteStore
	pageLimit int
	logger    logging.Logger
}

// NewPuller creates a puller fetching at most pageLimit records per pass
func NewPuller(journal repository.JournalRepository, remote RemoteStore, pageLimit int, logger logging.Logger) *Puller {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Puller{journal: journal, remote: remote, pageLimit: pageLimit, logger: logger}
}

// PullAll fetches one bounded page of remote records and inserts those whose
// identity the journal does not hold yet. Records past the page limit are not
// seen by this pass. Nothing local is updated or deleted.
func (p *Puller) PullAll(ctx context.Context) (PullResult, error) {
	var result PullResult
	start := time.Now()

	remoteRecords, err := p.remote.ListLogs(ctx, 0, p.pageLimit)
	if err != nil {
		return result, err
	}
	result.Fetched = len(remoteRecords)
	pulledCounter.WithLabelValues("fetched").Add(float64(result.Fetched))

	records := make([]types.ActivityRecord, 0, len(remoteRecords))
	for _, rr := range remoteRecords {
		records = append(records, rr.ToActivity())
	}

	inserted, err := p.journal.InsertPulled(ctx, records)
	if err != nil {
		return result, err
	}
	result.Inserted = inserted
	pulledCounter.WithLabelValues("inserted").Add(float64(inserted))

	logging.LogOperation(p.logger, "PullAll", time.Since(start), map[string]interface{}{
		"fetched":  result.Fetched,
		"inserted": result.Inserted,
	})
	return result, nil
}
