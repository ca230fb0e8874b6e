package service

import (
	"context"
	"fmt"

	"github.com/kay-kewl/shop-platform/services/storefront/internal/storage"
)

type ProductSaver interface {
	SaveProduct(ctx context.Context, name, description string, priceCents int64) (int64, error)
}

type ProductLister interface {
	Products(ctx context.Context) ([]storage.Product, error)
}

type Products struct {
	productSaver  ProductSaver
	productLister ProductLister
}

func NewProducts(saver ProductSaver, lister ProductLister) *Products {
	return &Products{
		productSaver:  saver,
		productLister: lister,
	}
}

func (p *Products) CreateProduct(ctx context.Context, name, description string, priceCents int64) (int64, error) {
	const op = "Products.CreateProduct"

	if name == "" || priceCents < 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	id, err := p.productSaver.SaveProduct(ctx, name, description, priceCents)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (p *Products) ListProducts(ctx context.Context) ([]storage.Product, error) {
	const op = "Products.ListProducts"

	products, err := p.productLister.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return products, nil
}
