package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/normalizer"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/algodclient"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/watermark"
)

// fakeAlgod serves a fixed tip and, for each requested round, an empty
// block unless txnsByRound has an entry for it.
type fakeAlgod struct {
	tip          uint64
	txnsByRound  map[uint64]int // number of simple self-payments to synthesize per round
}

func addrAt(b byte) []byte {
	a := make([]byte, 32)
	a[0] = b
	return a
}

func (f *fakeAlgod) Status(ctx context.Context) (algodclient.Status, error) {
	return algodclient.Status{LastRound: f.tip}, nil
}

func (f *fakeAlgod) GetBlockRaw(ctx context.Context, round uint64) ([]byte, error) {
	n := f.txnsByRound[round]
	block := &normalizer.RawBlock{Round: round}
	for i := 0; i < n; i++ {
		block.Txns = append(block.Txns, normalizer.RawSignedTxnInBlock{
			RawSignedTxnWithAD: normalizer.RawSignedTxnWithAD{
				Txn: normalizer.RawTxn{
					RawHeader: normalizer.RawHeader{
						Type:   "pay",
						Sender: addrAt(byte(i + 1)),
					},
					RawPaymentFields: normalizer.RawPaymentFields{
						Receiver: addrAt(byte(i + 2)),
						Amount:   uint64(100 * (i + 1)),
					},
				},
			},
		})
	}
	return msgpack.Encode(block), nil
}

func (f *fakeAlgod) PendingTransactionInfo(ctx context.Context, txid string) (algodclient.PendingTxnInfo, error) {
	return algodclient.PendingTxnInfo{}, nil
}

func (f *fakeAlgod) StatusAfterBlock(ctx context.Context, round uint64) (algodclient.Status, error) {
	return algodclient.Status{LastRound: f.tip}, nil
}

func TestPoll_SkipSyncNewestFromColdStart(t *testing.T) {
	algod := &fakeAlgod{tip: 100}
	cfg := models.SubscriptionConfig{
		MaxRoundsToSync: 1,
		SyncBehaviour:   models.SyncSkipSyncNewest,
		Watermark:       watermark.NewMemory(0),
	}
	o, err := New(algod, nil, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := o.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.SyncedRoundRange != (models.RoundRange{Start: 100, End: 100}) {
		t.Fatalf("synced range = %+v, want (100,100)", result.SyncedRoundRange)
	}
	if result.NewWatermark != 100 {
		t.Fatalf("new watermark = %d, want 100", result.NewWatermark)
	}
}

func TestPoll_SyncOldestWithGap(t *testing.T) {
	algod := &fakeAlgod{tip: 100, txnsByRound: map[uint64]int{1: 2}}
	cfg := models.SubscriptionConfig{
		MaxRoundsToSync: 1,
		SyncBehaviour:   models.SyncOldest,
		Watermark:       watermark.NewMemory(0),
	}
	o, err := New(algod, nil, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := o.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.SyncedRoundRange != (models.RoundRange{Start: 1, End: 1}) {
		t.Fatalf("synced range = %+v, want (1,1)", result.SyncedRoundRange)
	}
	if result.NewWatermark != 1 {
		t.Fatalf("new watermark = %d, want 1", result.NewWatermark)
	}
	if len(result.SubscribedTransactions) != 2 {
		t.Fatalf("want 2 txns, got %d", len(result.SubscribedTransactions))
	}
}

func TestPoll_FailBehaviorGap(t *testing.T) {
	algod := &fakeAlgod{tip: 5}
	cfg := models.SubscriptionConfig{
		MaxRoundsToSync: 1,
		SyncBehaviour:   models.SyncFail,
		Watermark:       watermark.NewMemory(0),
	}
	o, err := New(algod, nil, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = o.Poll(context.Background())
	if err == nil {
		t.Fatal("want error")
	}
	want := "Invalid round number to subscribe from 1; current round number is 5"
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("error = %q, want to contain %q", err.Error(), want)
	}
}

func TestPoll_TipAtOrBelowWatermarkReturnsImmediately(t *testing.T) {
	algod := &fakeAlgod{tip: 50}
	cfg := models.SubscriptionConfig{
		MaxRoundsToSync: 500,
		SyncBehaviour:   models.SyncFail,
		Watermark:       watermark.NewMemory(50),
	}
	o, err := New(algod, nil, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := o.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(result.SubscribedTransactions) != 0 {
		t.Fatalf("want no transactions when tip <= watermark")
	}
	if result.NewWatermark != 50 {
		t.Fatalf("new watermark = %d, want unchanged 50", result.NewWatermark)
	}
}

func TestNew_RequiresIndexerForCatchup(t *testing.T) {
	cfg := models.SubscriptionConfig{SyncBehaviour: models.SyncCatchupWithIndexer, Watermark: watermark.NewMemory(0)}
	_, err := New(&fakeAlgod{}, nil, cfg)
	if err != ErrIndexerRequired {
		t.Fatalf("want ErrIndexerRequired, got %v", err)
	}
}
