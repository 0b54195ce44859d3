package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Stillgh/sentiment-analysis/internal/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Service is the authentication collaborator: it turns credentials into an
// account identity and back. Everything else in the system only sees account
// ids.
type Service struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
}

func NewService(db *gorm.DB, secret string, tokenTTL time.Duration) *Service {
	return &Service{db: db, secret: []byte(secret), tokenTTL: tokenTTL}
}

func (s *Service) Signup(ctx context.Context, email, password, name, surname string) (database.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return database.Account{}, fmt.Errorf("error hashing password: %w", err)
	}

	account := database.Account{
		Id:             uuid.New(),
		Email:          email,
		Name:           name,
		Surname:        surname,
		HashedPassword: string(hash),
		Balance:        decimal.Zero,
		Role:           database.RoleUser,
		CreationTime:   time.Now().UTC(),
	}

	if _, err := database.GetAccountByEmail(ctx, s.db, email); err == nil {
		return database.Account{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Account{}, fmt.Errorf("error checking account email: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return database.Account{}, fmt.Errorf("error creating account: %w", err)
	}

	slog.Info("created account", "account_id", account.Id, "email", account.Email)
	return account, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	account, err := database.GetAccountByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("error loading account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.HashedPassword), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.RegisteredClaims{
		Subject:   account.Id.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return token, nil
}

// VerifyToken returns the account id a token was issued for.
func (s *Service) VerifyToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	accountId, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return accountId, nil
}
