package arc28

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

func TestSignatureAndPrefix(t *testing.T) {
	def := models.Arc28EventDefinition{
		Name: "Swapped",
		Args: []models.Arc28EventArg{{Type: "uint64", Name: "amount"}},
	}
	sig := Signature(def)
	if sig != "Swapped(uint64)" {
		t.Fatalf("signature = %q, want Swapped(uint64)", sig)
	}
	prefix := Prefix(sig)
	if len(prefix) != 8 {
		t.Fatalf("prefix length = %d, want 8 hex chars", len(prefix))
	}
}

func uint64ABIBytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// TestExtract_RoundTrip emits a log using the same prefix computation the
// extractor uses, then verifies it decodes back to the original value.
func TestExtract_RoundTrip(t *testing.T) {
	def := models.Arc28EventDefinition{
		Name: "Swapped",
		Args: []models.Arc28EventArg{{Type: "uint64", Name: "amount"}},
	}
	sig := Signature(def)
	prefixHex := Prefix(sig)
	prefixBytes, err := hex.DecodeString(prefixHex)
	if err != nil {
		t.Fatalf("decode prefix: %v", err)
	}
	log := append(append([]byte{}, prefixBytes...), uint64ABIBytes(12345)...)

	catalog := models.Arc28EventCatalog{
		Groups: []models.Arc28EventGroup{
			{GroupName: "dex", Events: []models.Arc28EventDefinition{def}},
		},
	}
	ex := &Extractor{Catalog: catalog}
	txn := &models.CanonicalTxn{Logs: [][]byte{log}}

	events, err := ex.Extract(txn, 1, func() *models.CanonicalTxn { return txn })
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("want 1 event, got %d", len(events))
	}
	got := events[0]
	if got.EventName != "Swapped" || got.GroupName != "dex" {
		t.Fatalf("unexpected event: %+v", got)
	}
	amount, ok := got.ArgsByName["amount"]
	if !ok {
		t.Fatalf("missing named arg amount: %+v", got.ArgsByName)
	}
	if amount != uint64(12345) {
		t.Fatalf("amount = %v, want 12345", amount)
	}
}

func TestExtract_AppIDWhitelistExcludes(t *testing.T) {
	def := models.Arc28EventDefinition{Name: "Swapped", Args: []models.Arc28EventArg{{Type: "uint64"}}}
	catalog := models.Arc28EventCatalog{
		Groups: []models.Arc28EventGroup{
			{GroupName: "dex", Events: []models.Arc28EventDefinition{def}, ProcessForAppIDs: []uint64{99}},
		},
	}
	ex := &Extractor{Catalog: catalog}
	txn := &models.CanonicalTxn{Logs: [][]byte{append([]byte{0, 0, 0, 0}, uint64ABIBytes(1)...)}}

	thunkCalled := false
	events, err := ex.Extract(txn, 1, func() *models.CanonicalTxn { thunkCalled = true; return txn })
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("want no events for non-whitelisted app id, got %d", len(events))
	}
	if thunkCalled {
		t.Fatalf("predicate thunk should not be invoked when app-id whitelist already excludes the group")
	}
}
