package algodrest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/normalizer"
)

func TestStatus_ParsesLastRound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Algo-API-Token") != "test-token" {
			t.Errorf("missing or wrong auth token: %q", r.Header.Get("X-Algo-API-Token"))
		}
		w.Write([]byte(`{"last-round": 12345}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.LastRound != 12345 {
		t.Fatalf("last round = %d, want 12345", status.LastRound)
	}
}

func TestGetBlockRaw_UnwrapsEnvelope(t *testing.T) {
	block := normalizer.RawBlock{Round: 42, GenesisID: "testnet-v1.0"}
	env := blockEnvelope{Block: block}
	encoded := msgpack.Encode(env)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(encoded)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	raw, err := c.GetBlockRaw(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetBlockRaw: %v", err)
	}

	var got normalizer.RawBlock
	if err := msgpack.Decode(raw, &got); err != nil {
		t.Fatalf("decoding unwrapped block: %v", err)
	}
	if got.Round != 42 || got.GenesisID != "testnet-v1.0" {
		t.Fatalf("unwrapped block = %+v, want round 42 / genesis testnet-v1.0", got)
	}
}

func TestPendingTransactionInfo_ParsesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"confirmed-round": 7, "pool-error": ""}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	info, err := c.PendingTransactionInfo(context.Background(), "SOMEFAKETXID")
	if err != nil {
		t.Fatalf("PendingTransactionInfo: %v", err)
	}
	if info.ConfirmedRound != 7 {
		t.Fatalf("confirmed round = %d, want 7", info.ConfirmedRound)
	}
}

func TestGetBlockRaw_Non2xxReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"round not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token")
	if _, err := c.GetBlockRaw(context.Background(), 999); err == nil {
		t.Fatal("want error for non-2xx response")
	}
}
