package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/algodclient"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/subscriber"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/watermark"
)

type fakeAlgod struct{ tip uint64 }

func (f *fakeAlgod) Status(ctx context.Context) (algodclient.Status, error) {
	return algodclient.Status{LastRound: f.tip}, nil
}
func (f *fakeAlgod) GetBlockRaw(ctx context.Context, round uint64) ([]byte, error) {
	return nil, nil
}
func (f *fakeAlgod) PendingTransactionInfo(ctx context.Context, txid string) (algodclient.PendingTxnInfo, error) {
	return algodclient.PendingTxnInfo{}, nil
}
func (f *fakeAlgod) StatusAfterBlock(ctx context.Context, round uint64) (algodclient.Status, error) {
	return algodclient.Status{LastRound: f.tip}, nil
}

func TestHandleHealth_ReturnsOperational(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sub, err := subscriber.Construct(&fakeAlgod{tip: 5}, nil, models.SubscriptionConfig{
		SyncBehaviour: models.SyncFail,
		Watermark:     watermark.NewMemory(5),
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	r := SetupRouter(sub, NewHub())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHandleStatus_BeforeAnyPollReportsNotPolled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sub, err := subscriber.Construct(&fakeAlgod{tip: 5}, nil, models.SubscriptionConfig{
		SyncBehaviour: models.SyncFail,
		Watermark:     watermark.NewMemory(5),
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	r := SetupRouter(sub, NewHub())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHandlePollNow_RequiresAuthWhenTokenConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("API_AUTH_TOKEN", "secret")

	sub, err := subscriber.Construct(&fakeAlgod{tip: 5}, nil, models.SubscriptionConfig{
		SyncBehaviour: models.SyncFail,
		Watermark:     watermark.NewMemory(5),
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	r := SetupRouter(sub, NewHub())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/poll-now", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without Authorization header", w.Code)
	}
}
