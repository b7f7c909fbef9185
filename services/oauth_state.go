package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"lichess-stats-api/config"

	"github.com/redis/go-redis/v9"
)

const (
	oauthStateKeyPrefix = "lichess:oauth:state:"
	oauthStateTTL       = 10 * time.Minute
)

// ErrOAuthStateNotFound means the state parameter is unknown or expired.
var ErrOAuthStateNotFound = errors.New("oauth state not found")

// OAuthStateStore holds the transient PKCE handshake state (state parameter
// to code verifier) in Redis with a short TTL, so the callback can land on
// any instance.
type OAuthStateStore struct {
	rdb *redis.Client
}

// NewOAuthStateStore constructs an OAuthStateStore.
func NewOAuthStateStore(rdb *redis.Client) *OAuthStateStore {
	if rdb == nil {
		rdb = config.Redis
	}
	return &OAuthStateStore{rdb: rdb}
}

// Save stores the verifier under the state parameter.
func (s *OAuthStateStore) Save(ctx context.Context, state, verifier string) error {
	if err := s.rdb.Set(ctx, oauthStateKeyPrefix+state, verifier, oauthStateTTL).Err(); err != nil {
		return fmt.Errorf("store oauth state: %w", err)
	}
	return nil
}

// Take returns the verifier for a state parameter and consumes the entry, so
// a state can only be redeemed once.
func (s *OAuthStateStore) Take(ctx context.Context, state string) (string, error) {
	verifier, err := s.rdb.GetDel(ctx, oauthStateKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrOAuthStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("take oauth state: %w", err)
	}
	return verifier, nil
}

// CreateVerifier generates a PKCE code verifier.
func CreateVerifier() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}

// CreateChallenge derives the S256 code challenge for a verifier.
func CreateChallenge(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

// CreateState generates the opaque state parameter.
func CreateState() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
