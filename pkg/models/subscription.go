package models

import "context"

// SyncBehaviour selects the watermark-to-range decision policy used when
// the gap between the watermark and the chain tip exceeds MaxRoundsToSync
// (spec.md §4.6).
type SyncBehaviour string

const (
	SyncFail                SyncBehaviour = "fail"
	SyncSkipSyncNewest       SyncBehaviour = "skip-sync-newest"
	SyncOldest               SyncBehaviour = "sync-oldest"
	SyncOldestStartNow       SyncBehaviour = "sync-oldest-start-now"
	SyncCatchupWithIndexer   SyncBehaviour = "catchup-with-indexer"
)

// DefaultMaxRoundsToSync is the default cap on rounds synced from algod in
// a single poll (spec.md §3).
const DefaultMaxRoundsToSync uint64 = 500

// WatermarkStore is the persistence collaborator for the subscription
// watermark (spec.md §6). Get is called once at poll start, Set once after
// a poll's transactions have been successfully handed to the caller. The
// watermark is single-reader/single-writer per Subscriber instance.
type WatermarkStore interface {
	Get(ctx context.Context) (uint64, error)
	Set(ctx context.Context, round uint64) error
}

// SubscriptionConfig configures one Subscriber instance.
type SubscriptionConfig struct {
	Filters                []NamedFilter
	Arc28Events            Arc28EventCatalog
	MaxRoundsToSync        uint64 // default DefaultMaxRoundsToSync when zero
	MaxIndexerRoundsToSync *uint64
	SyncBehaviour          SyncBehaviour
	Watermark              WatermarkStore

	// WaitForBlockWhenAtTip, when true, makes Start block on the algod
	// client's StatusAfterBlock long-poll instead of sleeping
	// FrequencyInSeconds once the subscriber has caught up to the tip.
	WaitForBlockWhenAtTip bool
	FrequencyInSeconds    float64

	// BlockChunkSize is the number of rounds fetched from algod per chunk
	// within a single poll (spec.md §4.6: "chunks of 30").
	BlockChunkSize int
}

// ResolvedMaxRoundsToSync returns c.MaxRoundsToSync, substituting the
// documented default when unset.
func (c SubscriptionConfig) ResolvedMaxRoundsToSync() uint64 {
	if c.MaxRoundsToSync == 0 {
		return DefaultMaxRoundsToSync
	}
	return c.MaxRoundsToSync
}

// ResolvedBlockChunkSize returns c.BlockChunkSize, substituting the
// documented default of 30 rounds per chunk when unset.
func (c SubscriptionConfig) ResolvedBlockChunkSize() int {
	if c.BlockChunkSize <= 0 {
		return 30
	}
	return c.BlockChunkSize
}

// RoundRange is an inclusive [Start, End] round interval.
type RoundRange struct {
	Start uint64
	End   uint64
}

// BlockMetadata carries block-level facts alongside the flattened
// transaction list; populated only for rounds synced from algod.
type BlockMetadata struct {
	Round           uint64
	Timestamp       int64
	GenesisID       string
	GenesisHash     []byte
	PreviousBlockHash []byte
	Seed            []byte
	ProposerAddress Address
	TransactionsRootSHA256 []byte
}

// SubscriptionResult is the output of one orchestrator poll.
type SubscriptionResult struct {
	CurrentRound         uint64
	StartingWatermark    uint64
	NewWatermark         uint64
	SyncedRoundRange      RoundRange
	SubscribedTransactions []*CanonicalTxn
	BlockMetadata        []BlockMetadata
}
