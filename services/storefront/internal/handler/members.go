package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kay-kewl/shop-platform/internal/metrics"
	"github.com/kay-kewl/shop-platform/services/storefront/internal/service"
)

type CreateMemberRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type CreateMemberResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	const op = "handler.CreateMember"

	log := h.logger.With(slog.String("op", op))

	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("Failed to decode request body", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.members.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			log.Warn("Invalid registration input", "email", req.Email)
			http.Error(w, "invalid email, name or password", http.StatusBadRequest)
		case errors.Is(err, service.ErrMemberExists):
			log.Warn("Attempt to register existing member", "email", req.Email)
			http.Error(w, "member with this email already exists", http.StatusConflict)
		default:
			log.Error("Failed to register member", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	log.Info("Member registered", slog.Int64("memberId", id))
	metrics.MembersRegisteredTotal.Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(CreateMemberResponse{ID: id, Email: req.Email, Name: req.Name}); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handler.Login"
	log := h.logger.With(slog.String("op", op))

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("Failed to decode request body", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.members.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		log.Error("Failed to login", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"token": token}); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}
