package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kay-kewl/shop-platform/internal/requestid"
)

var ErrMemberExists = errors.New("member with this email already exists")
var ErrMemberNotFound = errors.New("member with this email is not found")

type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
}

type Storage struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

// SaveMember inserts the member and a member.registered outbox event in one
// transaction, so the event is published iff the member row exists.
func (s *Storage) SaveMember(ctx context.Context, email, name string, passHash []byte) (int64, error) {
	const op = "storage.SaveMember"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(
		ctx,
		"INSERT INTO shop.members(email, name, password_hash) VALUES($1, $2, $3) RETURNING id",
		email, name, passHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%s: %w", op, ErrMemberExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	payload, err := json.Marshal(map[string]any{
		"member_id": id,
		"email":     email,
		"name":      name,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := insertOutboxMessage(ctx, tx, "shop_events", "member.registered", payload); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) Member(ctx context.Context, email string) (int64, []byte, error) {
	const op = "storage.Member"

	var id int64
	var passHash []byte

	err := s.db.QueryRow(
		ctx,
		"SELECT id, password_hash FROM shop.members WHERE email = $1",
		email,
	).Scan(&id, &passHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, fmt.Errorf("%s: %w", op, ErrMemberNotFound)
		}
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, passHash, nil
}

// SaveProduct inserts the product and a product.created outbox event in one
// transaction.
func (s *Storage) SaveProduct(ctx context.Context, name, description string, priceCents int64) (int64, error) {
	const op = "storage.SaveProduct"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(
		ctx,
		"INSERT INTO shop.products(name, description, price_cents) VALUES($1, $2, $3) RETURNING id",
		name, description, priceCents,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	payload, err := json.Marshal(map[string]any{
		"product_id":  id,
		"name":        name,
		"price_cents": priceCents,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := insertOutboxMessage(ctx, tx, "shop_events", "product.created", payload); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) Products(ctx context.Context) ([]Product, error) {
	const op = "storage.Products"

	rows, err := s.db.Query(
		ctx,
		"SELECT id, name, description, price_cents FROM shop.products ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return products, nil
}

func insertOutboxMessage(ctx context.Context, tx pgx.Tx, exchange, routingKey string, payload []byte) error {
	reqID, _ := requestid.Get(ctx)

	_, err := tx.Exec(
		ctx,
		"INSERT INTO shop.outbox_messages(exchange, routing_key, payload, request_id) VALUES($1, $2, $3, $4)",
		exchange, routingKey, payload, reqID,
	)
	return err
}
