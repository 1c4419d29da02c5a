// Package monitor is an optional HTTP/websocket control-and-broadcast
// surface around a pkg/subscriber.Subscriber: health and status endpoints,
// an operator-triggered poll-now/resync surface, and a websocket stream of
// every poll's SubscriptionResult.
package monitor

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/subscriber"
)

// Handler wires a Subscriber and its watermark store to the HTTP surface.
type Handler struct {
	sub   *subscriber.Subscriber
	wsHub *Hub

	mu         sync.Mutex
	lastResult *models.SubscriptionResult
	pollErrors int
}

// SetupRouter builds the Gin engine. wsHub receives a broadcast of every
// poll's SubscriptionResult as JSON, in addition to whatever in-process
// listeners were registered directly on sub.
func SetupRouter(sub *subscriber.Subscriber, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &Handler{sub: sub, wsHub: wsHub}
	sub.OnPoll(handler.onPoll)
	sub.OnError(handler.onError)

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/status", handler.handleStatus)
		pub.GET("/stream", wsHub.Subscribe)
	}

	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	auth.Use(NewOperatorRateLimiter().Middleware())
	{
		auth.POST("/poll-now", handler.handlePollNow)
		auth.POST("/resync", handler.handleResync)
	}

	return r
}

// onPoll records the last poll result and broadcasts it over the
// websocket hub as the subscriber's out-of-process event surface.
func (h *Handler) onPoll(meta subscriber.PollMetadata, txns []*models.CanonicalTxn) {
	h.mu.Lock()
	h.lastResult = &models.SubscriptionResult{
		CurrentRound:           meta.CurrentRound,
		StartingWatermark:      meta.StartingWatermark,
		NewWatermark:           meta.NewWatermark,
		SyncedRoundRange:       meta.SyncedRoundRange,
		SubscribedTransactions: txns,
	}
	h.mu.Unlock()

	if h.wsHub == nil {
		return
	}
	payload, err := json.Marshal(gin.H{
		"type":   "poll_result",
		"pollId": meta.PollID,
		"range":  meta.SyncedRoundRange,
		"count":  len(txns),
		"txns":   txns,
	})
	if err != nil {
		log.Printf("[monitor] failed to marshal poll result: %v", err)
		return
	}
	h.wsHub.Broadcast(payload)
}

func (h *Handler) onError(meta subscriber.PollMetadata, err error) {
	h.mu.Lock()
	h.pollErrors++
	h.mu.Unlock()

	log.Printf("[monitor] poll error: %v", err)
	if h.wsHub == nil {
		return
	}
	payload, marshalErr := json.Marshal(gin.H{
		"type":  "poll_error",
		"error": err.Error(),
	})
	if marshalErr != nil {
		return
	}
	h.wsHub.Broadcast(payload)
}

// handleHealth reports liveness for service discovery/load balancer probes.
func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
	})
}

// handleStatus reports the last poll's watermark progress and transaction
// count, alongside a running error counter.
func (h *Handler) handleStatus(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lastResult == nil {
		c.JSON(http.StatusOK, gin.H{
			"polled":     false,
			"pollErrors": h.pollErrors,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"polled":            true,
		"currentRound":      h.lastResult.CurrentRound,
		"startingWatermark": h.lastResult.StartingWatermark,
		"newWatermark":      h.lastResult.NewWatermark,
		"syncedRoundRange":  h.lastResult.SyncedRoundRange,
		"transactionCount":  len(h.lastResult.SubscribedTransactions),
		"pollErrors":        h.pollErrors,
	})
}

// handlePollNow triggers a single synchronous orchestrator poll outside the
// subscriber's normal run loop, for operator-initiated catch-up.
func (h *Handler) handlePollNow(c *gin.Context) {
	result, err := h.sub.PollOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"syncedRoundRange": result.SyncedRoundRange,
		"newWatermark":     result.NewWatermark,
		"transactionCount": len(result.SubscribedTransactions),
	})
}

// handleResync rewinds the watermark to the requested round and triggers an
// immediate poll from there, for operator-driven recovery from a bad state.
// POST /api/v1/resync { "round": 12345 }
func (h *Handler) handleResync(c *gin.Context) {
	var req struct {
		Round uint64 `json:"round"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body, expected {round}"})
		return
	}

	if err := h.sub.WatermarkStore().Set(c.Request.Context(), req.Round); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := h.sub.PollOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"resyncedFrom":     req.Round,
		"syncedRoundRange": result.SyncedRoundRange,
		"newWatermark":     result.NewWatermark,
	})
}

