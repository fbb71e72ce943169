package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ResetSigner creates and validates password-reset tokens. A token is bound to
// the user id and the current password hash, so it stops verifying as soon as
// the password changes.
type ResetSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewResetSigner constructs a signer with the provided secret and TTL.
func NewResetSigner(secret string, ttl time.Duration) *ResetSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResetSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// EncodeUID converts a user id into the URL-safe form embedded in reset links.
func EncodeUID(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode uid: %w", err)
	}
	return string(raw), nil
}

// Generate returns a signed reset token for the user.
func (s *ResetSigner) Generate(userID, passwordHash string) (string, time.Time, error) {
	if userID == "" || passwordHash == "" {
		return "", time.Time{}, fmt.Errorf("userID and passwordHash required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	ts := fmt.Sprintf("%d", expiresAt.Unix())
	token := strings.Join([]string{ts, s.sign(userID, ts, passwordHash)}, ".")
	return token, expiresAt, nil
}

// Verify checks a token against the expected user and their stored hash.
func (s *ResetSigner) Verify(token, userID, passwordHash string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return fmt.Errorf("invalid token format")
	}
	ts := parts[0]
	signature := parts[1]

	expUnix, err := parseUnix(ts)
	if err != nil {
		return err
	}

	expected := s.sign(userID, ts, passwordHash)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("invalid token signature")
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return fmt.Errorf("token expired")
	}
	return nil
}

func (s *ResetSigner) sign(userID, ts, passwordHash string) string {
	payload := fmt.Sprintf("%s|%s|%s", userID, ts, passwordHash)
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseUnix(raw string) (int64, error) {
	var ts int64
	_, err := fmt.Sscanf(raw, "%d", &ts)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp")
	}
	return ts, nil
}
