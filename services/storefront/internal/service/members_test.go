package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kay-kewl/shop-platform/services/storefront/internal/storage"
)

type fakeMemberStore struct {
	nextID  int64
	byEmail map[string][]byte
	ids     map[string]int64
}

func newFakeMemberStore() *fakeMemberStore {
	return &fakeMemberStore{
		byEmail: make(map[string][]byte),
		ids:     make(map[string]int64),
	}
}

func (f *fakeMemberStore) SaveMember(_ context.Context, email, _ string, passHash []byte) (int64, error) {
	if _, exists := f.byEmail[email]; exists {
		return 0, fmt.Errorf("SaveMember: %w", storage.ErrMemberExists)
	}
	f.nextID++
	f.byEmail[email] = passHash
	f.ids[email] = f.nextID
	return f.nextID, nil
}

func (f *fakeMemberStore) Member(_ context.Context, email string) (int64, []byte, error) {
	passHash, exists := f.byEmail[email]
	if !exists {
		return 0, nil, fmt.Errorf("Member: %w", storage.ErrMemberNotFound)
	}
	return f.ids[email], passHash, nil
}

func newTestMembers(store *fakeMemberStore) *Members {
	return NewMembers("test-secret", time.Hour, store, store)
}

func TestMembers_RegisterAndLogin(t *testing.T) {
	store := newFakeMemberStore()
	members := newTestMembers(store)
	ctx := context.Background()

	id, err := members.Register(ctx, "ann@example.com", "Ann", "password123")
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	token, err := members.Login(ctx, "ann@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	uid, err := members.ValidateToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, id, uid)
}

func TestMembers_RegisterDuplicate(t *testing.T) {
	store := newFakeMemberStore()
	members := newTestMembers(store)
	ctx := context.Background()

	_, err := members.Register(ctx, "ann@example.com", "Ann", "password123")
	require.NoError(t, err)

	_, err = members.Register(ctx, "ann@example.com", "Ann", "password123")
	require.ErrorIs(t, err, ErrMemberExists)
}

func TestMembers_RegisterInvalidInput(t *testing.T) {
	members := newTestMembers(newFakeMemberStore())
	ctx := context.Background()

	_, err := members.Register(ctx, "not-an-email", "Ann", "password123")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = members.Register(ctx, "ann@example.com", "", "password123")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = members.Register(ctx, "ann@example.com", "Ann", "short")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMembers_LoginFailures(t *testing.T) {
	store := newFakeMemberStore()
	members := newTestMembers(store)
	ctx := context.Background()

	_, err := members.Login(ctx, "missing@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = members.Register(ctx, "ann@example.com", "Ann", "password123")
	require.NoError(t, err)

	_, err = members.Login(ctx, "ann@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMembers_ValidateTokenRejectsGarbage(t *testing.T) {
	members := newTestMembers(newFakeMemberStore())

	_, err := members.ValidateToken(context.Background(), "not-a-token")
	require.Error(t, err)
}

func TestProducts_CreateValidation(t *testing.T) {
	products := NewProducts(nil, nil)
	ctx := context.Background()

	_, err := products.CreateProduct(ctx, "", "desc", 100)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = products.CreateProduct(ctx, "Widget", "desc", -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}
