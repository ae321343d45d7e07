// Package handler implements HTTP request handlers.
// Following Hexagonal Architecture: adapters translate HTTP to domain logic.
package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"messenger-inbox/internal/config"
)

// DeliveryProcessor consumes one raw webhook delivery for one app.
type DeliveryProcessor interface {
	ProcessDelivery(ctx context.Context, app config.FacebookApp, payload []byte)
}

// WebhookHandler answers Facebook subscription verification and accepts
// event deliveries.
type WebhookHandler struct {
	processor DeliveryProcessor
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(processor DeliveryProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// RegisterWebhookRoutes registers one callback route per configured app, so
// an unregistered app id simply has no endpoint.
func RegisterWebhookRoutes(r chi.Router, apps []config.FacebookApp, h *WebhookHandler) {
	for _, app := range apps {
		app := app
		r.HandleFunc("/service/facebook/"+app.ID+"/webhook-callback", func(w http.ResponseWriter, req *http.Request) {
			h.HandleCallback(w, req, app)
		})
	}
}

// HandleCallback serves both halves of the webhook contract on one path:
// subscription verification (query-driven, checked first) and event delivery.
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request, app config.FacebookApp) {
	query := r.URL.Query()

	// When the endpoint is registered as a webhook it must echo back the
	// hub.challenge value it receives.
	if query.Get("hub.mode") == "subscribe" && query.Get("hub.challenge") != "" {
		token := query.Get("hub.verify_token")
		if token != "" && token != app.VerifyToken {
			// Note: the challenge is still echoed after the mismatch notice.
			// Long-standing behavior that registered subscriptions depend on;
			// kept as is and pinned by a test.
			slog.Warn("Webhook verification token mismatch", "app_id", app.ID)
			w.Write([]byte("Verification token mismatch"))
		}
		w.Write([]byte(query.Get("hub.challenge")))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("Failed to read webhook body", "app_id", app.ID, "error", err)
		respondSuccess(w)
		return
	}
	defer r.Body.Close()

	// A bad signature is dropped silently: answering with an error status would
	// only make the platform redeliver the same forged payload.
	if !validSignature(app.AppSecret, r.Header.Get("X-Hub-Signature-256"), body) {
		slog.Warn("Webhook signature mismatch, dropping delivery", "app_id", app.ID)
		respondSuccess(w)
		return
	}

	h.processor.ProcessDelivery(r.Context(), app, body)

	respondSuccess(w)
}

// validSignature checks the X-Hub-Signature-256 header against the app secret.
// Apps without a configured secret accept unsigned deliveries.
func validSignature(appSecret, header string, body []byte) bool {
	if appSecret == "" {
		return true
	}

	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.TrimPrefix(header, prefix)))
}

// respondSuccess acknowledges a delivery. A non-2xx answer (or a timeout)
// makes the platform redeliver, so processing failures are never surfaced as
// error statuses on this endpoint.
func respondSuccess(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("success"))
}
