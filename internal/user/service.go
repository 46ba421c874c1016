package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUnauthorized       = errors.New("could not validate credentials")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

const (
	TokenTypeBearer = "bearer"
	DefaultCost     = bcrypt.DefaultCost

	// bcrypt 只接受前 72 个字节，按字节而不是字符计算
	MaxPasswordBytes = 72
)

// dummyHash 用于邮箱不存在时仍执行一次 bcrypt 比较，避免通过耗时差异探测账号
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type Service struct {
	store  Store
	tokens *TokenService
	cost   int
}

func NewService(store Store, tokens *TokenService) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		cost:   DefaultCost,
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (User, error) {
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return User{}, err
	}
	return s.store.Create(ctx, NormalizeEmail(email), hash)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (Token, error) {
	user, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Token{}, ErrInvalidCredentials
	}

	access, expiresAt, err := s.tokens.Issue(user.Email)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: access, TokenType: TokenTypeBearer, ExpiresAt: expiresAt}, nil
}

// ResolveIdentity maps a bearer token back to its user. It only checks the
// signature and expiry, then looks the subject up by email.
func (s *Service) ResolveIdentity(ctx context.Context, token string) (User, error) {
	email, err := s.tokens.Parse(token)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, err
	}
	return user, nil
}

// CurrentUser re-reads the authenticated user by id.
func (s *Service) CurrentUser(ctx context.Context, id string) (User, error) {
	return s.store.GetByID(ctx, id)
}

func HashPassword(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
