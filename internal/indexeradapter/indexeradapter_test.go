package indexeradapter

import (
	"context"
	"testing"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/indexerclient"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

type fakeIndexer struct {
	pages map[string]indexerclient.SearchResult // keyed by AddressRole for this test's purposes
	calls int
}

func (f *fakeIndexer) SearchTransactions(ctx context.Context, params indexerclient.SearchParams) (indexerclient.SearchResult, error) {
	f.calls++
	return indexerclient.SearchResult{
		Transactions: []indexerclient.FlatIndexerTxn{
			{
				"id":              "TOPLEVELID000000000000000000000000000000000000000",
				"tx-type":         "pay",
				"sender":          "",
				"confirmed-round": uint64(10),
				"round-time":      int64(1000),
				"payment-transaction": indexerclient.FlatIndexerTxn{
					"receiver": "",
					"amount":   uint64(500),
				},
				"inner-txns": []interface{}{
					indexerclient.FlatIndexerTxn{
						"tx-type": "pay",
						"sender":  "",
						"payment-transaction": indexerclient.FlatIndexerTxn{
							"receiver": "",
							"amount":   uint64(1),
						},
					},
				},
			},
		},
	}, nil
}

func (f *fakeIndexer) BlockInfo(ctx context.Context, round uint64) (indexerclient.BlockInfo, error) {
	return indexerclient.BlockInfo{Round: round}, nil
}

// multiTopLevelIndexer fixtures two top-level transactions in the same
// round, each carrying the indexer's real "intra-round-offset" field, to
// catch the two colliding at offset 0 if that field is ever ignored again.
type multiTopLevelIndexer struct{}

func (f *multiTopLevelIndexer) SearchTransactions(ctx context.Context, params indexerclient.SearchParams) (indexerclient.SearchResult, error) {
	return indexerclient.SearchResult{
		Transactions: []indexerclient.FlatIndexerTxn{
			{
				"id":                 "TOPLEVELID000000000000000000000000000000000000001",
				"tx-type":            "pay",
				"sender":             "",
				"confirmed-round":    uint64(10),
				"round-time":         int64(1000),
				"intra-round-offset": uint64(0),
				"payment-transaction": indexerclient.FlatIndexerTxn{
					"receiver": "",
					"amount":   uint64(500),
				},
			},
			{
				"id":                 "TOPLEVELID000000000000000000000000000000000000002",
				"tx-type":            "pay",
				"sender":             "",
				"confirmed-round":    uint64(10),
				"round-time":         int64(1000),
				"intra-round-offset": uint64(1),
				"payment-transaction": indexerclient.FlatIndexerTxn{
					"receiver": "",
					"amount":   uint64(700),
				},
			},
		},
	}, nil
}

func (f *multiTopLevelIndexer) BlockInfo(ctx context.Context, round uint64) (indexerclient.BlockInfo, error) {
	return indexerclient.BlockInfo{Round: round}, nil
}

func TestFetch_MultipleTopLevelTxnsPreserveDistinctIntraRoundOffsets(t *testing.T) {
	client := &multiTopLevelIndexer{}
	filters := []models.NamedFilter{
		{Name: "all-pay", Filter: models.Filter{Type: []models.TxType{models.Payment}}},
	}

	out, err := Fetch(context.Background(), client, 1, 100, filters, models.Arc28EventCatalog{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 top-level txns, got %d", len(out))
	}
	if out[0].IntraRoundOffset == out[1].IntraRoundOffset {
		t.Fatalf("two distinct top-level transactions in the same round collided at offset %d", out[0].IntraRoundOffset)
	}
	if out[0].IntraRoundOffset != 0 || out[1].IntraRoundOffset != 1 {
		t.Fatalf("expected offsets 0 and 1 carried from the indexer, got %d and %d", out[0].IntraRoundOffset, out[1].IntraRoundOffset)
	}
}

func TestFetch_FlattensAndDedupes(t *testing.T) {
	client := &fakeIndexer{}
	filters := []models.NamedFilter{
		{Name: "all-pay", Filter: models.Filter{Type: []models.TxType{models.Payment}}},
	}

	out, err := Fetch(context.Background(), client, 1, 100, filters, models.Arc28EventCatalog{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 (top-level + 1 inner), got %d", len(out))
	}
	if out[0].IntraRoundOffset >= out[1].IntraRoundOffset {
		t.Fatalf("expected ordering by intra-round offset, got %d then %d", out[0].IntraRoundOffset, out[1].IntraRoundOffset)
	}
	for _, txn := range out {
		if len(txn.FilterNames()) != 1 || txn.FilterNames()[0] != "all-pay" {
			t.Fatalf("expected txn %s to carry exactly the all-pay match, got %v", txn.ID, txn.FilterNames())
		}
	}
}
