package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kay-kewl/shop-platform/services/storefront/internal/storage"
)

var ErrMemberExists = errors.New("member already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidInput = errors.New("invalid input")

type MemberSaver interface {
	SaveMember(ctx context.Context, email, name string, passHash []byte) (int64, error)
}

type MemberProvider interface {
	Member(ctx context.Context, email string) (id int64, passHash []byte, err error)
}

type Members struct {
	jwtSecret      []byte
	tokenTTL       time.Duration
	memberSaver    MemberSaver
	memberProvider MemberProvider
}

func NewMembers(jwtSecret string, tokenTTL time.Duration, saver MemberSaver, provider MemberProvider) *Members {
	return &Members{
		jwtSecret:      []byte(jwtSecret),
		tokenTTL:       tokenTTL,
		memberSaver:    saver,
		memberProvider: provider,
	}
}

func (m *Members) Register(ctx context.Context, email, name, password string) (int64, error) {
	const op = "Members.Register"

	if !strings.Contains(email, "@") || name == "" || len(password) < 8 {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidInput)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := m.memberSaver.SaveMember(ctx, email, name, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrMemberExists) {
			return 0, fmt.Errorf("%s: %w", op, ErrMemberExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (m *Members) Login(ctx context.Context, email, password string) (string, error) {
	const op = "Members.Login"

	id, passHash, err := m.memberProvider.Member(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrMemberNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(passHash, []byte(password)); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": id,
		"exp": time.Now().Add(m.tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(m.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return tokenString, nil
}

func (m *Members) ValidateToken(ctx context.Context, tokenString string) (int64, error) {
	const op = "Members.ValidateToken"

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return m.jwtSecret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if uidFloat, ok := claims["uid"].(float64); ok {
			return int64(uidFloat), nil
		}
	}

	return 0, fmt.Errorf("%s: invalid token", op)
}
