package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Support-tooling endpoints. They sit under /internal and are expected to be
// blocked from public traffic at the ingress.

func (h *Handler) DeleteIdempotencyKey(w http.ResponseWriter, r *http.Request) {
	const op = "handler.DeleteIdempotencyKey"
	log := h.logger.With(slog.String("op", op))

	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	removed := h.admin.Delete(r.Context(), key)
	log.Info("Idempotency cache delete requested", "key", key, "removed", removed)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]bool{"removed": removed}); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) CleanupIdempotencyCache(w http.ResponseWriter, r *http.Request) {
	const op = "handler.CleanupIdempotencyCache"
	log := h.logger.With(slog.String("op", op))

	removed := h.admin.CleanupExpired(r.Context())
	log.Info("Idempotency cache cleanup completed", "removed", removed)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]int{"removed": removed}); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}
