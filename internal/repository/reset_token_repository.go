package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetTokenRepository tracks consumed password-reset tokens in Redis so a
// verified token cannot be replayed within its validity window.
type ResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository constructs the repository.
func NewResetTokenRepository(client *redis.Client) *ResetTokenRepository {
	return &ResetTokenRepository{client: client}
}

// Consume marks the token as used. It returns false when the token was
// already consumed. The marker expires with the token itself.
func (r *ResetTokenRepository) Consume(ctx context.Context, userID, resetToken string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	sum := sha256.Sum256([]byte(resetToken))
	key := fmt.Sprintf("reset_token:%s:%s", userID, hex.EncodeToString(sum[:]))

	fresh, err := r.client.SetNX(ctx, key, "used", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark reset token used: %w", err)
	}
	return fresh, nil
}
