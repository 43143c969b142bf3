package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/annboard/annboard/internal/config"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const csrfTokenLength = 40

type JWTService struct {
	secretKey     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	logger        *logrus.Logger
}

func NewJWTService(cfg *config.JWTConfig, logger *logrus.Logger) (*JWTService, error) {
	secretKey := []byte(cfg.SecretKey)
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	return &JWTService{
		secretKey:     secretKey,
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
		logger:        logger,
	}, nil
}

type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// GenerateTokenPair issues an access token and a refresh token for userID.
// Each token gets its own TTL passed to the signer per call; there is no
// shared expiry state to toggle.
func (s *JWTService) GenerateTokenPair(userID string) (accessToken, refreshToken string, err error) {
	accessToken, err = s.signToken(userID, TokenTypeAccess, s.accessExpiry)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign access token")
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err = s.signToken(userID, TokenTypeRefresh, s.refreshExpiry)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign refresh token")
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// GenerateAccessToken issues a fresh access token only. Used by the refresh
// flow, which does not rotate the refresh token.
func (s *JWTService) GenerateAccessToken(userID string) (string, error) {
	token, err := s.signToken(userID, TokenTypeAccess, s.accessExpiry)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign access token")
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

func (s *JWTService) signToken(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *JWTService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

const csrfAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCSRFToken returns an opaque random 40-character alphanumeric
// token. It is returned alongside auth tokens but is not a signed claim.
func GenerateCSRFToken() (string, error) {
	out := make([]byte, csrfTokenLength)
	max := big.NewInt(int64(len(csrfAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = csrfAlphabet[n.Int64()]
	}
	return string(out), nil
}
