// Package algodrest is a minimal reference implementation of
// pkg/algodclient.Client against algod's REST API, provided for the example
// program and for completeness; the core pipeline depends only on the
// algodclient.Client interface.
package algodrest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/normalizer"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/algodclient"
)

// Client is a thin HTTP wrapper around an algod node's REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New returns a Client targeting baseURL (e.g. "http://localhost:4001"),
// authenticating with token via the X-Algo-API-Token header.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("algodrest: building request for %s: %w", path, err)
	}
	req.Header.Set("X-Algo-API-Token", c.token)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("algodrest: requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("algodrest: reading response from %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("algodrest: %s returned status %d: %s", path, resp.StatusCode, string(body))
	}
	return body, nil
}

type statusResponse struct {
	LastRound uint64 `json:"last-round"`
}

// Status satisfies algodclient.Client.
func (c *Client) Status(ctx context.Context) (algodclient.Status, error) {
	body, err := c.get(ctx, "/v2/status", "application/json")
	if err != nil {
		return algodclient.Status{}, err
	}
	var s statusResponse
	if err := json.Unmarshal(body, &s); err != nil {
		return algodclient.Status{}, fmt.Errorf("algodrest: decoding status: %w", err)
	}
	return algodclient.Status{LastRound: s.LastRound}, nil
}

// StatusAfterBlock satisfies algodclient.Client; it long-polls algod's
// wait-for-block-after endpoint, which blocks server-side until a later
// round is available.
func (c *Client) StatusAfterBlock(ctx context.Context, round uint64) (algodclient.Status, error) {
	path := "/v2/status/wait-for-block-after/" + strconv.FormatUint(round, 10)
	body, err := c.get(ctx, path, "application/json")
	if err != nil {
		return algodclient.Status{}, err
	}
	var s statusResponse
	if err := json.Unmarshal(body, &s); err != nil {
		return algodclient.Status{}, fmt.Errorf("algodrest: decoding status-after-block: %w", err)
	}
	return algodclient.Status{LastRound: s.LastRound}, nil
}

// GetBlockRaw satisfies algodclient.Client, fetching the block's raw
// msgpack "block" envelope (algod's format=msgpack response).
func (c *Client) GetBlockRaw(ctx context.Context, round uint64) ([]byte, error) {
	path := "/v2/blocks/" + strconv.FormatUint(round, 10) + "?format=msgpack"
	body, err := c.get(ctx, path, "application/msgpack")
	if err != nil {
		return nil, err
	}
	return unwrapBlockEnvelope(body)
}

// blockEnvelope mirrors the outer msgpack map algod's /v2/blocks endpoint
// returns: the block itself under "block", alongside a certificate this
// engine has no use for.
type blockEnvelope struct {
	Block normalizer.RawBlock `codec:"block"`
}

// unwrapBlockEnvelope decodes algod's block envelope and re-encodes just
// the block, so callers (internal/normalizer via internal/orchestrator)
// can msgpack.Decode it directly into a normalizer.RawBlock.
func unwrapBlockEnvelope(body []byte) ([]byte, error) {
	var env blockEnvelope
	if err := msgpack.Decode(body, &env); err != nil {
		return nil, fmt.Errorf("algodrest: decoding block envelope: %w", err)
	}
	return msgpack.Encode(env.Block), nil
}

type pendingTxnInfoResponse struct {
	ConfirmedRound uint64 `json:"confirmed-round"`
	PoolError      string `json:"pool-error"`
}

// PendingTransactionInfo satisfies algodclient.Client.
func (c *Client) PendingTransactionInfo(ctx context.Context, txid string) (algodclient.PendingTxnInfo, error) {
	body, err := c.get(ctx, "/v2/transactions/pending/"+txid, "application/json")
	if err != nil {
		return algodclient.PendingTxnInfo{}, err
	}
	var resp pendingTxnInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return algodclient.PendingTxnInfo{}, fmt.Errorf("algodrest: decoding pending txn info: %w", err)
	}
	return algodclient.PendingTxnInfo{ConfirmedRound: resp.ConfirmedRound, PoolError: resp.PoolError}, nil
}
