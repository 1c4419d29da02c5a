// Package subscriber is the public entry point to the subscription engine:
// it wraps internal/orchestrator's per-poll decision logic in an event
// emitter and a run loop, and is responsible for advancing the watermark
// once a poll's transactions have been handed to listeners.
package subscriber

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/orchestrator"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/algodclient"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/indexerclient"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// ErrorEventName is reserved: registering a listener for it overrides the
// default behaviour of PollOnce/Start returning the poll error to the
// caller (spec.md §9 on_error semantics).
const ErrorEventName = "error"

// PollMetadata accompanies every event dispatched from one poll.
type PollMetadata struct {
	PollID            string
	SyncedRoundRange  models.RoundRange
	StartingWatermark uint64
	NewWatermark      uint64
	CurrentRound      uint64
}

// BatchListener receives every transaction from a single poll at once.
type BatchListener func(meta PollMetadata, txns []*models.CanonicalTxn)

// TxnListener receives one matched transaction at a time, tagged with the
// name of the filter that matched it.
type TxnListener func(meta PollMetadata, filterName string, txn *models.CanonicalTxn)

// ErrorListener receives a poll error. Registering one for ErrorEventName
// suppresses the default re-raise from PollOnce/Start.
type ErrorListener func(meta PollMetadata, err error)

// BeforePollListener runs immediately before a poll's orchestration step.
type BeforePollListener func(watermark uint64)

// Subscriber drives repeated orchestrator polls and dispatches their
// results to registered listeners, advancing the watermark after each
// successfully-delivered poll.
type Subscriber struct {
	orch   *orchestrator.Orchestrator
	config models.SubscriptionConfig
	logger *log.Logger

	mu                  sync.Mutex
	batchListeners      []BatchListener
	txnListeners        map[string][]TxnListener // keyed by filter name
	errorListeners      []ErrorListener
	beforePollListeners []BeforePollListener
	pollListeners       []BatchListener

	stopped atomic.Bool
}

// Construct builds a Subscriber from its collaborators. It returns an error
// if config is invalid for the requested sync behaviour (spec.md §6).
func Construct(algod algodclient.Client, indexer indexerclient.Client, config models.SubscriptionConfig) (*Subscriber, error) {
	orch, err := orchestrator.New(algod, indexer, config)
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		orch:         orch,
		config:       config,
		txnListeners: make(map[string][]TxnListener),
	}, nil
}

func (s *Subscriber) log() *log.Logger {
	if s.logger != nil {
		return s.logger
	}
	return log.Default()
}

// SetLogger overrides the default logger.
func (s *Subscriber) SetLogger(l *log.Logger) {
	s.logger = l
}

// WatermarkStore returns the configured watermark collaborator, for callers
// (e.g. internal/monitor's resync endpoint) that need to rewind it
// directly before triggering a poll.
func (s *Subscriber) WatermarkStore() models.WatermarkStore {
	return s.config.Watermark
}

// On registers a listener for every transaction matched by the named
// filter. The filter name must correspond to one of config.Filters.
func (s *Subscriber) On(filterName string, listener TxnListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txnListeners[filterName] = append(s.txnListeners[filterName], listener)
}

// OnBatch registers a listener invoked once per poll with every matched
// transaction in that poll.
func (s *Subscriber) OnBatch(listener BatchListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchListeners = append(s.batchListeners, listener)
}

// OnBeforePoll registers a listener invoked before each poll begins, given
// the watermark it is about to poll from.
func (s *Subscriber) OnBeforePoll(listener BeforePollListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforePollListeners = append(s.beforePollListeners, listener)
}

// OnPoll registers a listener invoked after each poll completes
// successfully, regardless of whether any transactions matched.
func (s *Subscriber) OnPoll(listener BatchListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollListeners = append(s.pollListeners, listener)
}

// OnError registers a listener for poll errors under ErrorEventName,
// overriding the default behaviour of returning the error to the caller.
func (s *Subscriber) OnError(listener ErrorListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorListeners = append(s.errorListeners, listener)
}

func (s *Subscriber) hasErrorListeners() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errorListeners) > 0
}

// PollOnce runs exactly one orchestrator poll, dispatches the result to
// every registered listener, and — only if every listener returns without
// panicking — advances the watermark (spec.md §7 propagation policy: the
// orchestrator itself never writes the watermark).
func (s *Subscriber) PollOnce(ctx context.Context) (models.SubscriptionResult, error) {
	pollID := uuid.NewString()

	watermark, err := s.config.Watermark.Get(ctx)
	if err == nil {
		s.mu.Lock()
		before := append([]BeforePollListener(nil), s.beforePollListeners...)
		s.mu.Unlock()
		for _, l := range before {
			l(watermark)
		}
	}

	result, err := s.orch.Poll(ctx)
	if err != nil {
		meta := PollMetadata{PollID: pollID, StartingWatermark: watermark}
		s.dispatchError(meta, err)
		if s.hasErrorListeners() {
			return models.SubscriptionResult{}, nil
		}
		return models.SubscriptionResult{}, err
	}

	meta := PollMetadata{
		PollID:            pollID,
		SyncedRoundRange:  result.SyncedRoundRange,
		StartingWatermark: result.StartingWatermark,
		NewWatermark:      result.NewWatermark,
		CurrentRound:      result.CurrentRound,
	}

	s.dispatch(meta, result.SubscribedTransactions)

	if err := s.config.Watermark.Set(ctx, result.NewWatermark); err != nil {
		return result, fmt.Errorf("subscriber: persisting watermark: %w", err)
	}
	return result, nil
}

func (s *Subscriber) dispatch(meta PollMetadata, txns []*models.CanonicalTxn) {
	s.mu.Lock()
	batch := append([]BatchListener(nil), s.batchListeners...)
	poll := append([]BatchListener(nil), s.pollListeners...)
	byFilter := make(map[string][]TxnListener, len(s.txnListeners))
	for name, ls := range s.txnListeners {
		byFilter[name] = append([]TxnListener(nil), ls...)
	}
	s.mu.Unlock()

	for _, l := range batch {
		l(meta, txns)
	}
	for _, l := range poll {
		l(meta, txns)
	}
	for _, txn := range txns {
		for _, name := range txn.FilterNames() {
			for _, l := range byFilter[name] {
				l(meta, name, txn)
			}
		}
	}
}

func (s *Subscriber) dispatchError(meta PollMetadata, err error) {
	s.mu.Lock()
	listeners := append([]ErrorListener(nil), s.errorListeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l(meta, err)
	}
}

// Stop requests that a running Start loop exit after its current poll.
func (s *Subscriber) Stop(reason string) {
	s.log().Printf("[Subscriber] stop requested: %s", reason)
	s.stopped.Store(true)
}

// Start runs PollOnce repeatedly until ctx is cancelled or Stop is called.
// Between polls it either sleeps FrequencyInSeconds, or, when the previous
// poll caught up to the tip and WaitForBlockWhenAtTip is set, long-polls
// algod's StatusAfterBlock instead (spec.md §9).
func (s *Subscriber) Start(ctx context.Context, algod algodclient.Client) error {
	s.stopped.Store(false)
	freq := time.Duration(s.config.FrequencyInSeconds * float64(time.Second))
	if freq <= 0 {
		freq = time.Second
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.stopped.Load() {
			return nil
		}

		result, err := s.PollOnce(ctx)
		if err != nil {
			return err
		}

		caughtUp := result.SyncedRoundRange.End >= result.CurrentRound
		if s.stopped.Load() || ctx.Err() != nil {
			return nil
		}

		if caughtUp && s.config.WaitForBlockWhenAtTip && algod != nil {
			if _, err := algod.StatusAfterBlock(ctx, result.CurrentRound); err != nil {
				s.log().Printf("[Subscriber] status-after-block long-poll error: %v", err)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(freq):
				}
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(freq):
		}
	}
}
