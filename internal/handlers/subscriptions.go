package handlers

import (
	"net/http"

	"github.com/vidshare/backend/internal/auth"
)

// SubscriptionHandler implements the subscription toggle.
type SubscriptionHandler struct {
	Subscriptions SubscriptionService
}

// Toggle handles POST /api/v1/subscriptions/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.Subscriptions.Toggle(ctx, auth.ViewerFromContext(ctx), r.PathValue("channelId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	message := "unsubscribed successfully"
	if result.Subscribed {
		message = "subscribed successfully"
	}
	respondData(ctx, w, http.StatusOK, result, message)
}
