package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventpass/internal/status"
	"eventpass/utils"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// SessionService issues explicit scanner session tokens to volunteers
// and admins. The server keeps only a bcrypt hash of the secret, under
// a redis TTL, so expiry is enforced server-side instead of trusting a
// client clock.
type SessionService struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewSessionService(redisClient *redis.Client, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &SessionService{Redis: redisClient, TTL: ttl}
}

// ScannerIdentity is who a validated session belongs to.
type ScannerIdentity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type sessionRecord struct {
	ScannerIdentity
	SecretHash string `json:"secret_hash"`
}

func sessionKey(id string) string {
	return fmt.Sprintf("scanner:session:%s", id)
}

// Issue creates a session and returns the composite token the scanner
// presents on every request: "<session id>.<secret>".
func (s *SessionService) Issue(ctx context.Context, identity ScannerIdentity) (string, error) {
	id, err := utils.GenerateCode(8)
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	secret, err := utils.GenerateCode(16)
	if err != nil {
		return "", fmt.Errorf("session secret: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("session hash: %w", err)
	}

	record := sessionRecord{ScannerIdentity: identity, SecretHash: string(hash)}
	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	if err := s.Redis.Set(ctx, sessionKey(id), data, s.TTL).Err(); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	return id + "." + secret, nil
}

// Validate checks a presented token against the stored hash. Expired
// sessions simply no longer exist in redis.
func (s *SessionService) Validate(ctx context.Context, token string) (*ScannerIdentity, error) {
	id, secret, ok := strings.Cut(token, ".")
	if !ok || id == "" || secret == "" {
		return nil, status.ErrSessionInvalid
	}

	data, err := s.Redis.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, status.ErrSessionInvalid
		}
		return nil, fmt.Errorf("session lookup: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, status.ErrSessionInvalid
	}

	if bcrypt.CompareHashAndPassword([]byte(record.SecretHash), []byte(secret)) != nil {
		return nil, status.ErrSessionInvalid
	}

	return &record.ScannerIdentity, nil
}

// Revoke deletes the session; subsequent validations fail.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	id, _, ok := strings.Cut(token, ".")
	if !ok || id == "" {
		return status.ErrSessionInvalid
	}
	return s.Redis.Del(ctx, sessionKey(id)).Err()
}

// ActiveSessions counts live scanner sessions, for the monitor.
func (s *SessionService) ActiveSessions(ctx context.Context) (int64, error) {
	keys, err := s.Redis.Keys(ctx, sessionKey("*")).Result()
	if err != nil {
		return 0, err
	}
	return int64(len(keys)), nil
}
