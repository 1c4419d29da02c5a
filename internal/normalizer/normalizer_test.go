package normalizer

import (
	"regexp"
	"strings"
	"testing"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

func mustAddr(b byte) []byte {
	a := make([]byte, 32)
	a[0] = b
	return a
}

func TestNormalize_TopLevelPayment(t *testing.T) {
	block := &RawBlock{
		Round:       100,
		Timestamp:   1700000000,
		GenesisID:   "mainnet-v1.0",
		GenesisHash: []byte("genesis-hash-bytes"),
		Txns: []RawSignedTxnInBlock{
			{
				RawSignedTxnWithAD: RawSignedTxnWithAD{
					Txn: RawTxn{
						RawHeader: RawHeader{
							Type:       "pay",
							Sender:     mustAddr(1),
							Fee:        1000,
							FirstValid: 100,
							LastValid:  1100,
						},
						RawPaymentFields: RawPaymentFields{
							Receiver: mustAddr(2),
							Amount:   5000,
						},
					},
				},
				HasGenesisID:   true,
				HasGenesisHash: true,
			},
		},
	}

	out, err := Normalize(block)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("want 1 txn, got %d", len(out))
	}
	txn := out[0]
	if txn.Type != models.Payment {
		t.Fatalf("want pay, got %s", txn.Type)
	}
	if txn.GenesisID != "mainnet-v1.0" {
		t.Fatalf("genesis id not injected: %q", txn.GenesisID)
	}
	if txn.Payment == nil || txn.Payment.Amount != 5000 {
		t.Fatalf("payment payload wrong: %+v", txn.Payment)
	}
	if txn.IsInner() {
		t.Fatalf("top-level txn reported as inner")
	}
	if matched, _ := regexp.MatchString(`^[A-Z2-7]{52}$`, txn.ID); !matched {
		t.Fatalf("id %q does not match canonical id shape", txn.ID)
	}
}

// TestNormalize_FifthInnerTransactionID covers spec scenario 6: an app call
// that emits five inner transactions; the fifth inner must have id
// PARENT_ID/inner/5.
func TestNormalize_FifthInnerTransactionID(t *testing.T) {
	inners := make([]RawSignedTxnWithAD, 5)
	for i := range inners {
		inners[i] = RawSignedTxnWithAD{
			Txn: RawTxn{
				RawHeader: RawHeader{
					Type:   "pay",
					Sender: mustAddr(9),
				},
				RawPaymentFields: RawPaymentFields{
					Receiver: mustAddr(10),
					Amount:   uint64(i + 1),
				},
			},
		}
	}

	block := &RawBlock{
		Round: 200,
		Txns: []RawSignedTxnInBlock{
			{
				RawSignedTxnWithAD: RawSignedTxnWithAD{
					Txn: RawTxn{
						RawHeader: RawHeader{
							Type:   "appl",
							Sender: mustAddr(1),
						},
						RawApplicationCallFields: RawApplicationCallFields{
							ApplicationID: 42,
						},
					},
					EvalDelta: RawEvalDelta{
						InnerTxns: inners,
					},
				},
			},
		},
	}

	out, err := Normalize(block)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("want 6 txns (1 top-level + 5 inner), got %d", len(out))
	}
	parentID := out[0].ID
	fifth := out[5]
	want := parentID + "/inner/5"
	if fifth.ID != want {
		t.Fatalf("fifth inner id = %q, want %q", fifth.ID, want)
	}
	if fifth.ParentTransactionID != parentID {
		t.Fatalf("parent_transaction_id = %q, want %q", fifth.ParentTransactionID, parentID)
	}
	if fifth.ParentOffset != 4 {
		t.Fatalf("parent_offset = %d, want 4", fifth.ParentOffset)
	}

	innerIDPattern := regexp.MustCompile(`^[A-Z2-7]{52}/inner/\d+$`)
	for _, txn := range out[1:] {
		if !innerIDPattern.MatchString(txn.ID) {
			t.Fatalf("inner id %q does not match %s", txn.ID, innerIDPattern.String())
		}
	}
}

// TestNormalize_NestedInnerCounterNotReset covers the design note that the
// per-top-level inner counter is shared across nesting depth: a top-level
// call with two inner transactions, the second of which itself emits two
// more inner transactions, must number its grandchildren 3 and 4, not
// restart at 1.
func TestNormalize_NestedInnerCounterNotReset(t *testing.T) {
	grandchildren := []RawSignedTxnWithAD{
		{Txn: RawTxn{RawHeader: RawHeader{Type: "pay", Sender: mustAddr(1)}, RawPaymentFields: RawPaymentFields{Receiver: mustAddr(2), Amount: 1}}},
		{Txn: RawTxn{RawHeader: RawHeader{Type: "pay", Sender: mustAddr(1)}, RawPaymentFields: RawPaymentFields{Receiver: mustAddr(2), Amount: 2}}},
	}
	children := []RawSignedTxnWithAD{
		{Txn: RawTxn{RawHeader: RawHeader{Type: "pay", Sender: mustAddr(1)}, RawPaymentFields: RawPaymentFields{Receiver: mustAddr(2), Amount: 3}}},
		{
			Txn: RawTxn{
				RawHeader:                RawHeader{Type: "appl", Sender: mustAddr(1)},
				RawApplicationCallFields: RawApplicationCallFields{ApplicationID: 7},
			},
			EvalDelta: RawEvalDelta{InnerTxns: grandchildren},
		},
	}

	block := &RawBlock{
		Round: 300,
		Txns: []RawSignedTxnInBlock{
			{
				RawSignedTxnWithAD: RawSignedTxnWithAD{
					Txn: RawTxn{
						RawHeader:                RawHeader{Type: "appl", Sender: mustAddr(1)},
						RawApplicationCallFields: RawApplicationCallFields{ApplicationID: 1},
					},
					EvalDelta: RawEvalDelta{InnerTxns: children},
				},
			},
		},
	}

	out, err := Normalize(block)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	// top, child1, child2(appl), grandchild1, grandchild2
	if len(out) != 5 {
		t.Fatalf("want 5 txns, got %d", len(out))
	}
	parentID := out[0].ID
	wantSuffixes := []string{"/inner/1", "/inner/2", "/inner/3", "/inner/4"}
	for i, txn := range out[1:] {
		if !strings.HasSuffix(txn.ID, wantSuffixes[i]) || !strings.HasPrefix(txn.ID, parentID) {
			t.Fatalf("txn %d id = %q, want suffix %q on prefix %q", i, txn.ID, wantSuffixes[i], parentID)
		}
		if txn.ParentTransactionID != parentID {
			t.Fatalf("txn %d parent_transaction_id = %q, want ultimate top-level id %q", i, txn.ParentTransactionID, parentID)
		}
	}
	// round_offset must be monotonically increasing pre-order across the
	// whole tree, not reset per branch.
	for i := 1; i < len(out); i++ {
		if out[i].IntraRoundOffset <= out[i-1].IntraRoundOffset {
			t.Fatalf("round offsets not monotonic at index %d: %d <= %d", i, out[i].IntraRoundOffset, out[i-1].IntraRoundOffset)
		}
	}
}

func TestNormalize_UnknownTxType(t *testing.T) {
	block := &RawBlock{
		Round: 1,
		Txns: []RawSignedTxnInBlock{
			{RawSignedTxnWithAD: RawSignedTxnWithAD{Txn: RawTxn{RawHeader: RawHeader{Type: "bogus"}}}},
		},
	}
	if _, err := Normalize(block); err == nil {
		t.Fatal("want error for unrecognized transaction type")
	}
}
