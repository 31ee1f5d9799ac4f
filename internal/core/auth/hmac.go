package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// keyPrefix identifies SentenceParser keys and their format version.
const keyPrefix = "sp-v1"

// ParseAPIKey extracts secret_id and random_data from an API key.
// Format: sp-v1-<secret_id 32 hex>-<random_data 64 hex>.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	rest, ok := strings.CutPrefix(key, keyPrefix+"-")
	if !ok {
		return "", "", ErrInvalidKeyFormat
	}

	secretID, randomData, ok = strings.Cut(rest, "-")
	if !ok || len(secretID) != 32 || len(randomData) != 64 {
		return "", "", ErrInvalidKeyFormat
	}

	for _, c := range secretID + randomData {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", "", ErrInvalidKeyFormat
		}
	}

	return secretID, randomData, nil
}

// ComputeHMAC computes HMAC-SHA256 signature of API key using secret.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// VerifyHMAC verifies HMAC signature using constant-time comparison.
func VerifyHMAC(expectedHash, computedHash []byte) bool {
	return hmac.Equal(expectedHash, computedHash)
}

// FormatAPIKey constructs API key from components.
func FormatAPIKey(secretID, randomData string) string {
	return fmt.Sprintf("%s-%s-%s", keyPrefix, secretID, randomData)
}

// CreateKey mints a new API key signed with the given secret and stores
// only its hash. The plaintext key is returned once and never persisted.
func CreateKey(ctx context.Context, queries Queries, secretID string, secret []byte, name string) (apiKeyID, apiKey string, err error) {
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return "", "", fmt.Errorf("failed to generate key: %w", err)
	}

	apiKey = FormatAPIKey(secretID, hex.EncodeToString(random))
	apiKeyID = uuid.Must(uuid.NewV7()).String()

	if _, err := queries.Exec(ctx, "insert-api-key", apiKeyID, name, ComputeHMAC(secret, apiKey), time.Now().UTC()); err != nil {
		return "", "", fmt.Errorf("failed to store key: %w", err)
	}
	return apiKeyID, apiKey, nil
}

// RevokeKey marks a key revoked. Revoking twice is not an error.
func RevokeKey(ctx context.Context, queries Queries, apiKeyID string) error {
	if _, err := queries.Exec(ctx, "revoke-api-key", time.Now().UTC(), apiKeyID); err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}
	return nil
}
