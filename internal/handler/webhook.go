// Package handler provides HTTP handlers for the SocialFlow web application.
//
// This file contains the X (Twitter) webhook endpoint:
// - GET  /webhooks/twitter  CRC ownership challenge, or a liveness message
// - POST /webhooks/twitter  Account Activity event delivery
package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/socialflow/internal/automation"
	"github.com/DukeRupert/socialflow/internal/domain"
	"github.com/DukeRupert/socialflow/internal/metrics"
	"github.com/DukeRupert/socialflow/internal/twitter"
)

// maxWebhookBody bounds a single delivery. Account Activity batches are
// small; anything larger is treated as a malformed delivery.
const maxWebhookBody = 1 << 20

// WebhookHandler answers the X webhook contract and hands every received
// tweet to a processor.
type WebhookHandler struct {
	secret    string
	processor automation.Processor
	logger    *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler. An empty secret is allowed;
// CRC challenges then fail with a configuration error.
func NewWebhookHandler(secret string, processor automation.Processor, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		processor: processor,
		logger:    logger,
	}
}

// RegisterRoutes registers webhook routes on the provided ServeMux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /webhooks/twitter", h.HandleCRC)
	mux.HandleFunc("POST /webhooks/twitter", h.HandleEvents)
}

// HandleCRC answers the challenge-response check X sends to prove the
// endpoint owner holds the consumer secret.
func (h *WebhookHandler) HandleCRC(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("crc_token")
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Twitter webhook endpoint Active"})
		return
	}

	responseToken, err := twitter.ResponseToken(h.secret, token)
	if err != nil {
		if errors.Is(err, twitter.ErrMissingSecret) {
			metrics.CRCChallengesTotal.WithLabelValues("missing_secret").Inc()
			JSONErrorResponse(w, r, h.logger, domain.MissingConfig("webhook.crc", "TWITTER_CONSUMER_SECRET"))
			return
		}
		metrics.CRCChallengesTotal.WithLabelValues("error").Inc()
		JSONErrorResponse(w, r, h.logger, domain.Internal(err, "webhook.crc", "CRC computation failed"))
		return
	}

	metrics.CRCChallengesTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, twitter.CRCResponse{ResponseToken: responseToken})
}

// HandleEvents decodes one delivery and processes its tweets in order.
// The first failing tweet aborts the rest of the batch.
func (h *WebhookHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	payload, err := twitter.DecodePayload(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		JSONErrorResponse(w, r, h.logger, domain.Internal(err, "webhook.events", "Failed to decode delivery"))
		return
	}

	envelopes := payload.Envelopes()
	for i, env := range envelopes {
		if err := h.process(r, env); err != nil {
			metrics.WebhookEventProcessed(false)
			h.logger.Error("webhook event processing failed",
				"tweet_id", env.Data.ID,
				"index", i,
				"batch_size", len(envelopes),
				"error", err,
			)
			JSONErrorResponse(w, r, h.logger, domain.Internal(err, "webhook.events", "Failed to process event"))
			return
		}
		metrics.WebhookEventProcessed(true)
	}

	h.logger.Debug("webhook delivery processed", "events", len(envelopes))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// process runs the processor for one envelope, converting a panic into an
// error so one bad event cannot take the server down.
func (h *WebhookHandler) process(r *http.Request, env twitter.Envelope) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("processor panic: %v", rec)
		}
	}()
	return h.processor.ProcessTweet(r.Context(), env)
}
