// Package indexerclient declares the narrow indexer collaborator interface
// the subscription engine's catch-up path depends on.
package indexerclient

import "context"

// SearchParams is the subset of the indexer's /v2/transactions query
// parameters the pre-filter projection (internal/indexeradapter) produces.
type SearchParams struct {
	MinRound          uint64
	MaxRound          uint64
	Address           string
	AddressRole       string // "sender" or "receiver"
	TxType            string
	NotePrefixBase64  string
	ApplicationID     *uint64
	AssetID           *uint64
	CurrencyGreaterThan *uint64
	CurrencyLessThan    *uint64
	NextToken         string
}

// FlatIndexerTxn is one transaction as the indexer's flat JSON form
// represents it: a single map with dotted sub-object fields, the shape
// internal/indexeradapter flattens into models.CanonicalTxn.
type FlatIndexerTxn map[string]interface{}

// SearchResult is one page of the indexer's transaction search response.
type SearchResult struct {
	Transactions []FlatIndexerTxn
	NextToken    string
}

// BlockInfo is the indexer's block-info response, exposed for liveness
// probes; the catch-up path does not call it.
type BlockInfo struct {
	Round     uint64
	Timestamp int64
}

// Client is the narrow indexer collaborator C5 depends on.
type Client interface {
	SearchTransactions(ctx context.Context, params SearchParams) (SearchResult, error)
	BlockInfo(ctx context.Context, round uint64) (BlockInfo, error)
}
