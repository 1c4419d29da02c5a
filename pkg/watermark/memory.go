// Package watermark provides an in-memory models.WatermarkStore, suitable
// for tests and single-process callers that don't need the watermark to
// survive a restart. See pkg/watermark/pgwatermark for a persisted store.
package watermark

import (
	"context"
	"sync"
)

// Memory is a models.WatermarkStore backed by a single in-process value.
// Safe for concurrent use, though SubscriptionConfig.Watermark is only ever
// accessed by one Subscriber at a time in practice.
type Memory struct {
	mu    sync.Mutex
	round uint64
}

// NewMemory returns a Memory watermark store starting at the given round.
func NewMemory(startingRound uint64) *Memory {
	return &Memory{round: startingRound}
}

func (m *Memory) Get(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.round, nil
}

func (m *Memory) Set(ctx context.Context, round uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.round = round
	return nil
}
