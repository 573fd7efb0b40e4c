// Package syncer moves activity records between the local journal and the
// remote canonical store.
package syncer

import (
	"context"

	"winrec/internal/types"
)

// RemoteStore is the part of the remote client the synchronizers need
type RemoteStore interface {
	HasCredential() bool
	Ping(ctx context.Context) error
	PostLog(ctx context.Context, sub types.LogSubmission) (types.RemoteRecord, error)
	ListLogs(ctx context.Context, skip, limit int) ([]types.RemoteRecord, error)
}

// Notifier surfaces a message to the user
type Notifier interface {
	Notify(title, message string) error
}
