// Package algodclient declares the narrow algod collaborator interface the
// subscription engine depends on; it does not implement a full algod HTTP
// client. See pkg/algodrest for a minimal reference implementation.
package algodclient

import "context"

// Status is algod's reported node status.
type Status struct {
	LastRound uint64
}

// PendingTxnInfo is the subset of algod's pending-transaction-info response
// the engine inspects.
type PendingTxnInfo struct {
	ConfirmedRound uint64
	PoolError      string
}

// Client is the narrow algod collaborator the sync orchestrator depends on
// (spec.md §6).
type Client interface {
	// Status returns the node's current status, including its last round.
	Status(ctx context.Context) (Status, error)

	// GetBlockRaw fetches one block's raw msgpack encoding.
	GetBlockRaw(ctx context.Context, round uint64) ([]byte, error)

	// PendingTransactionInfo looks up a transaction by id in the pending
	// pool or, once confirmed, its confirmation round.
	PendingTransactionInfo(ctx context.Context, txid string) (PendingTxnInfo, error)

	// StatusAfterBlock long-polls until a round after the given round is
	// available, for SubscriptionConfig.WaitForBlockWhenAtTip (spec.md §9).
	StatusAfterBlock(ctx context.Context, round uint64) (Status, error)
}
