package handler

import (
	"context"
	"log/slog"

	"github.com/kay-kewl/shop-platform/services/storefront/internal/storage"
)

type Members interface {
	Register(ctx context.Context, email, name, password string) (int64, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (int64, error)
}

type Products interface {
	CreateProduct(ctx context.Context, name, description string, priceCents int64) (int64, error)
	ListProducts(ctx context.Context) ([]storage.Product, error)
}

type IdempotencyAdmin interface {
	Delete(ctx context.Context, key string) bool
	CleanupExpired(ctx context.Context) int
}

type Handler struct {
	members  Members
	products Products
	admin    IdempotencyAdmin
	logger   *slog.Logger
}

func New(members Members, products Products, admin IdempotencyAdmin, logger *slog.Logger) *Handler {
	return &Handler{
		members:  members,
		products: products,
		admin:    admin,
		logger:   logger,
	}
}
