package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// TokenRevoker invalidates issued access tokens before their natural
// expiry. Token validity is otherwise purely claim-driven.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RevocationService keeps a Redis denylist of revoked token JTIs. Entries
// carry a TTL equal to the token's remaining life, so the list never
// outgrows the set of tokens that are still otherwise valid.
type RevocationService struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRevocationService(client *redis.Client, logger *logrus.Logger) *RevocationService {
	return &RevocationService{
		client: client,
		logger: logger,
	}
}

func (s *RevocationService) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; nothing to deny.
		return nil
	}

	key := fmt.Sprintf("revoked_token:%s", jti)
	if err := s.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		s.logger.WithError(err).Error("Failed to store revoked token")
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

func (s *RevocationService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	key := fmt.Sprintf("revoked_token:%s", jti)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
