package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kay-kewl/shop-platform/internal/metrics"
	"github.com/kay-kewl/shop-platform/services/storefront/internal/service"
	"github.com/kay-kewl/shop-platform/services/storefront/internal/storage"
)

type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
}

type CreateProductResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "handler.CreateProduct"

	log := h.logger.With(slog.String("op", op))

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		http.Error(w, "missing authorization header", http.StatusUnauthorized)
		return
	}

	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		http.Error(w, "invalid authorization header", http.StatusUnauthorized)
		return
	}

	memberID, err := h.members.ValidateToken(r.Context(), headerParts[1])
	if err != nil {
		log.Warn("Token validation failed", "error", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.products.CreateProduct(r.Context(), req.Name, req.Description, req.PriceCents)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			http.Error(w, "invalid product name or price", http.StatusBadRequest)
			return
		}
		log.Error("Failed to create product", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Info("Product created", slog.Int64("productId", id), slog.Int64("memberId", memberID))
	metrics.ProductsCreatedTotal.Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(CreateProductResponse{ID: id, Name: req.Name, PriceCents: req.PriceCents}); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(slog.String("op", "handler.ListProducts"))

	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		log.Error("Failed to list products", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if products == nil {
		products = []storage.Product{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(products); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}
