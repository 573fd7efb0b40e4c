// Package journal puts the remote store in front of the local journal with an
// explicit fallback policy.
package journal

import (
	"context"
	"fmt"
	"sort"
	"time"

	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/repository"
	"winrec/internal/types"
)

// Policy selects which tier is consulted first
type Policy string

const (
	PolicyRemoteFirst Policy = "remote_first"
	PolicyLocalOnly   Policy = "local_only"
)

// Origins reported with each read
const (
	OriginRemote = "remote"
	OriginLocal  = "local"
)

// ParsePolicy validates a configured policy name
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyRemoteFirst, PolicyLocalOnly:
		return Policy(s), nil
	case "":
		return PolicyRemoteFirst, nil
	}
	return "", fmt.Errorf("unknown fallback policy %q", s)
}

// RemoteStore is the part of the remote client the tiered journal reads and writes through
type RemoteStore interface {
	HasCredential() bool
	PostLog(ctx context.Context, sub types.LogSubmission) (types.RemoteRecord, error)
	ListLogs(ctx context.Context, skip, limit int) ([]types.RemoteRecord, error)
	Days(ctx context.Context) ([]string, error)
}

// Tiered reads and writes through the remote store and falls back to the
// local journal whenever the remote cannot serve the call.
type Tiered struct {
	local     repository.JournalRepository
	remote    RemoteStore
	policy    Policy
	loc       *time.Location
	pageLimit int
	logger    logging.Logger
}

// Options configures a Tiered journal
type Options struct {
	Policy    Policy
	Location  *time.Location // day keys for remote records
	PageLimit int
}

// NewTiered creates a tiered journal. remote may be nil, which behaves like PolicyLocalOnly.
func NewTiered(local repository.JournalRepository, remote RemoteStore, opts Options, logger logging.Logger) *Tiered {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if opts.Policy == "" {
		opts.Policy = PolicyRemoteFirst
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Tiered{
		local:     local,
		remote:    remote,
		policy:    opts.Policy,
		loc:       opts.Location,
		pageLimit: opts.PageLimit,
		logger:    logging.With(logger, "component", "journal"),
	}
}

func (t *Tiered) remoteEnabled() bool {
	return t.policy == PolicyRemoteFirst && t.remote != nil
}

func (t *Tiered) fallback(op string, err error) {
	if repoerrors.IsTransient(err) || repoerrors.IsAuth(err) {
		t.logger.Debug("Remote unavailable, using local journal", "operation", op, "error", err)
		return
	}
	t.logger.Warn("Remote call failed, using local journal", "operation", op, "error", err)
}

// ReadDay returns the records of day and the tier that served them
func (t *Tiered) ReadDay(ctx context.Context, day string) ([]types.ActivityRecord, string, error) {
	if !types.ValidDay(day) {
		return nil, "", repoerrors.HandleValidationError("ReadDay", "day", day, "expected YYYY-MM-DD")
	}

	if t.remoteEnabled() {
		remoteRecords, err := t.remote.ListLogs(ctx, 0, t.pageLimit)
		if err == nil {
			records := make([]types.ActivityRecord, 0)
			for _, rr := range remoteRecords {
				rec := rr.ToActivity()
				rec.LocalDate = types.LocalDateFor(rec.Timestamp, t.loc)
				rec.Synced = true
				if rec.LocalDate == day {
					records = append(records, rec)
				}
			}
			return records, OriginRemote, nil
		}
		t.fallback("ReadDay", err)
	}

	records, err := t.local.QueryByDay(ctx, day)
	if err != nil {
		return nil, "", err
	}
	return records, OriginLocal, nil
}

// Days lists the day keys with records, newest first
func (t *Tiered) Days(ctx context.Context) ([]string, string, error) {
	if t.remoteEnabled() {
		days, err := t.remote.Days(ctx)
		if err == nil {
			sort.Sort(sort.Reverse(sort.StringSlice(days)))
			return days, OriginRemote, nil
		}
		t.fallback("Days", err)
	}

	days, err := t.local.DistinctDays(ctx)
	if err != nil {
		return nil, "", err
	}
	return days, OriginLocal, nil
}

// WriteResult describes where a write landed
type WriteResult struct {
	ID     int64
	Synced bool
}

// Write submits rec to the remote first and journals it locally either way:
// as synced when the remote accepted it, unsynced otherwise. A local failure
// is returned even when the remote accepted the record.
func (t *Tiered) Write(ctx context.Context, rec types.ActivityRecord) (WriteResult, error) {
	rec.Synced = false
	if t.remoteEnabled() && t.remote.HasCredential() {
		if _, err := t.remote.PostLog(ctx, types.SubmissionFor(rec)); err == nil {
			rec.Synced = true
		} else {
			t.fallback("Write", err)
		}
	}

	id, err := t.local.Append(ctx, rec)
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{ID: id, Synced: rec.Synced}, nil
}
