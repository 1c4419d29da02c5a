// Package orchestrator implements C6: deciding which round range to sync
// from which source given the watermark and chain tip, retrieving and
// enriching every transaction in that range, and assembling the result the
// public Subscriber returns to its caller.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"golang.org/x/sync/errgroup"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/arc28"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/balancechange"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/filter"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/indexeradapter"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/normalizer"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/algodclient"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/indexerclient"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// ErrIndexerRequired is returned by New when the configured sync behaviour
// requires an indexer client that was not supplied (spec.md §6).
var ErrIndexerRequired = errors.New("orchestrator: sync_behaviour catchup-with-indexer requires an indexer client")

// Orchestrator drives one poll of C6: watermark → range decision →
// chunked retrieval → per-transaction enrichment → ordered output.
type Orchestrator struct {
	Algod   algodclient.Client
	Indexer indexerclient.Client
	Config  models.SubscriptionConfig
	Logger  *log.Logger
}

// New validates config against the supplied collaborators and returns an
// Orchestrator.
func New(algod algodclient.Client, indexer indexerclient.Client, config models.SubscriptionConfig) (*Orchestrator, error) {
	if config.SyncBehaviour == models.SyncCatchupWithIndexer && indexer == nil {
		return nil, ErrIndexerRequired
	}
	return &Orchestrator{Algod: algod, Indexer: indexer, Config: config}, nil
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

// source identifies which collaborator a round sub-range is read from.
type source int

const (
	sourceAlgod source = iota
	sourceIndexer
)

type rangeSpan struct {
	models.RoundRange
	source source
}

// Poll runs one orchestration pass. It never advances the watermark
// itself — the caller persists config.Watermark.Set(result.NewWatermark)
// only after successfully processing the result (spec.md §7 propagation
// policy).
func (o *Orchestrator) Poll(ctx context.Context) (models.SubscriptionResult, error) {
	watermark, err := o.Config.Watermark.Get(ctx)
	if err != nil {
		return models.SubscriptionResult{}, fmt.Errorf("orchestrator: reading watermark: %w", err)
	}

	status, err := o.Algod.Status(ctx)
	if err != nil {
		return models.SubscriptionResult{}, fmt.Errorf("orchestrator: algod status: %w", err)
	}
	tip := status.LastRound

	if tip <= watermark {
		return models.SubscriptionResult{
			CurrentRound:      tip,
			StartingWatermark: watermark,
			NewWatermark:      watermark,
			SyncedRoundRange:  models.RoundRange{Start: tip, End: tip},
		}, nil
	}

	spans, err := o.decideSpans(watermark, tip)
	if err != nil {
		return models.SubscriptionResult{}, err
	}

	var allTxns []*models.CanonicalTxn
	var allMeta []models.BlockMetadata
	var syncedStart, syncedEnd uint64
	first := true

	for _, span := range spans {
		if span.Start > span.End {
			continue
		}
		if first {
			syncedStart = span.Start
			first = false
		}
		syncedEnd = span.End

		switch span.source {
		case sourceAlgod:
			txns, metas, err := o.fetchAlgodRange(ctx, span.Start, span.End)
			if err != nil {
				return models.SubscriptionResult{}, err
			}
			allTxns = append(allTxns, txns...)
			allMeta = append(allMeta, metas...)
		case sourceIndexer:
			txns, err := indexeradapter.Fetch(ctx, o.Indexer, span.Start, span.End, o.Config.Filters, o.Config.Arc28Events)
			if err != nil {
				return models.SubscriptionResult{}, err
			}
			allTxns = append(allTxns, txns...)
		}
	}

	if first {
		// Decision table produced no non-empty span (shouldn't normally
		// happen once tip > watermark, but keep the result well-formed).
		syncedStart, syncedEnd = tip, tip
	}

	sort.SliceStable(allTxns, func(i, j int) bool {
		if allTxns[i].ConfirmedRound != allTxns[j].ConfirmedRound {
			return allTxns[i].ConfirmedRound < allTxns[j].ConfirmedRound
		}
		return allTxns[i].IntraRoundOffset < allTxns[j].IntraRoundOffset
	})

	return models.SubscriptionResult{
		CurrentRound:           tip,
		StartingWatermark:      watermark,
		NewWatermark:           syncedEnd,
		SyncedRoundRange:       models.RoundRange{Start: syncedStart, End: syncedEnd},
		SubscribedTransactions: allTxns,
		BlockMetadata:          allMeta,
	}, nil
}

// decideSpans implements the spec.md §4.6 decision table.
func (o *Orchestrator) decideSpans(watermark, tip uint64) ([]rangeSpan, error) {
	maxRounds := o.Config.ResolvedMaxRoundsToSync()
	gap := tip - watermark

	if gap <= maxRounds {
		return []rangeSpan{{RoundRange: models.RoundRange{Start: watermark + 1, End: tip}, source: sourceAlgod}}, nil
	}

	switch o.Config.SyncBehaviour {
	case models.SyncFail:
		return nil, fmt.Errorf("Invalid round number to subscribe from %d; current round number is %d", watermark+1, tip)

	case models.SyncSkipSyncNewest:
		return []rangeSpan{{RoundRange: models.RoundRange{Start: tip - maxRounds + 1, End: tip}, source: sourceAlgod}}, nil

	case models.SyncOldest:
		return []rangeSpan{{RoundRange: models.RoundRange{Start: watermark + 1, End: watermark + maxRounds}, source: sourceAlgod}}, nil

	case models.SyncOldestStartNow:
		if watermark == 0 {
			return []rangeSpan{{RoundRange: models.RoundRange{Start: tip - maxRounds + 1, End: tip}, source: sourceAlgod}}, nil
		}
		return []rangeSpan{{RoundRange: models.RoundRange{Start: watermark + 1, End: watermark + maxRounds}, source: sourceAlgod}}, nil

	case models.SyncCatchupWithIndexer:
		indexerEnd := tip - maxRounds
		indexerStart := watermark + 1
		maxIndexerRounds := tip - watermark // effectively unbounded unless configured
		if o.Config.MaxIndexerRoundsToSync != nil {
			maxIndexerRounds = *o.Config.MaxIndexerRoundsToSync
		}
		if indexerEnd-indexerStart+1 > maxIndexerRounds {
			capped := watermark + maxIndexerRounds
			return []rangeSpan{{RoundRange: models.RoundRange{Start: indexerStart, End: capped}, source: sourceIndexer}}, nil
		}
		return []rangeSpan{
			{RoundRange: models.RoundRange{Start: indexerStart, End: indexerEnd}, source: sourceIndexer},
			{RoundRange: models.RoundRange{Start: indexerEnd + 1, End: tip}, source: sourceAlgod},
		}, nil

	default:
		return nil, fmt.Errorf("orchestrator: unrecognized sync_behaviour %q", o.Config.SyncBehaviour)
	}
}

// fetchAlgodRange retrieves [start, end] from algod in chunks, normalizing,
// filtering and enriching every transaction, preserving per-round ordering
// on output even though block fetches within a chunk may run concurrently.
func (o *Orchestrator) fetchAlgodRange(ctx context.Context, start, end uint64) ([]*models.CanonicalTxn, []models.BlockMetadata, error) {
	chunkSize := uint64(o.Config.ResolvedBlockChunkSize())
	var allTxns []*models.CanonicalTxn
	var allMeta []models.BlockMetadata

	for chunkStart := start; chunkStart <= end; chunkStart += chunkSize {
		chunkEnd := chunkStart + chunkSize - 1
		if chunkEnd > end {
			chunkEnd = end
		}

		blocks := make([]*normalizer.RawBlock, chunkEnd-chunkStart+1)
		g, gctx := errgroup.WithContext(ctx)
		for round := chunkStart; round <= chunkEnd; round++ {
			round := round
			idx := round - chunkStart
			g.Go(func() error {
				raw, err := o.Algod.GetBlockRaw(gctx, round)
				if err != nil {
					return fmt.Errorf("fetching block %d: %w", round, err)
				}
				var block normalizer.RawBlock
				if err := msgpack.Decode(raw, &block); err != nil {
					return fmt.Errorf("decoding block %d: %w", round, err)
				}
				blocks[idx] = &block
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, fmt.Errorf("orchestrator: %w", err)
		}

		for _, block := range blocks {
			txns, err := normalizer.Normalize(block)
			if err != nil {
				return nil, nil, fmt.Errorf("orchestrator: normalizing round %d: %w", block.Round, err)
			}
			if err := o.enrichAndFilter(txns); err != nil {
				return nil, nil, err
			}
			for _, t := range txns {
				if len(t.FiltersMatched) > 0 || len(o.Config.Filters) == 0 {
					allTxns = append(allTxns, t)
				}
			}
			allMeta = append(allMeta, models.BlockMetadata{
				Round:             block.Round,
				Timestamp:         block.Timestamp,
				GenesisID:         block.GenesisID,
				GenesisHash:       block.GenesisHash,
				PreviousBlockHash: block.Previous,
				Seed:              block.Seed,
			})
		}
	}
	return allTxns, allMeta, nil
}

// enrichAndFilter derives balance changes and ARC-28 events for every
// transaction in the tree (recursing into inner transactions) and tags
// each with the names of every filter it matches.
func (o *Orchestrator) enrichAndFilter(txns []*models.CanonicalTxn) error {
	extractor := &arc28.Extractor{Catalog: o.Config.Arc28Events, Logger: o.logger()}

	for _, txn := range txns {
		txn.BalanceChanges = balancechange.Derive(txn)

		if appID, ok := txn.CalledOrCreatedAppID(); ok && len(o.Config.Arc28Events.Groups) > 0 {
			events, err := extractor.Extract(txn, appID, func() *models.CanonicalTxn { return txn })
			if err != nil {
				return fmt.Errorf("orchestrator: arc28 extraction for %s: %w", txn.ID, err)
			}
			txn.Arc28Events = events
		}

		for _, nf := range o.Config.Filters {
			if filter.Evaluate(nf.Filter, txn) {
				txn.AddFilterMatch(nf.Name)
			}
		}
	}
	return nil
}
