package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"eventpass/internal/status"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func sessionFixture(t *testing.T, secret string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	data, err := json.Marshal(sessionRecord{
		ScannerIdentity: ScannerIdentity{UserID: "vol1", Name: "Volunteer One", Role: "volunteer"},
		SecretHash:      string(hash),
	})
	require.NoError(t, err)
	return string(data)
}

func TestSessionIssue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewSessionService(db, time.Hour)

	mock.Regexp().ExpectSet(`scanner:session:[0-9A-F]{16}`, `.+`, time.Hour).SetVal("OK")

	token, err := svc.Issue(context.Background(), ScannerIdentity{UserID: "vol1", Role: "volunteer"})
	require.NoError(t, err)

	// "<16 hex id>.<32 hex secret>"
	assert.Regexp(t, `^[0-9A-F]{16}\.[0-9A-F]{32}$`, token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionValidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewSessionService(db, time.Hour)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		mock.ExpectGet("scanner:session:ABCD").SetVal(sessionFixture(t, "S3CR3T"))

		identity, err := svc.Validate(ctx, "ABCD.S3CR3T")
		require.NoError(t, err)
		assert.Equal(t, "vol1", identity.UserID)
		assert.Equal(t, "volunteer", identity.Role)
	})

	t.Run("wrong secret", func(t *testing.T) {
		mock.ExpectGet("scanner:session:ABCD").SetVal(sessionFixture(t, "S3CR3T"))

		_, err := svc.Validate(ctx, "ABCD.WRONG")
		assert.ErrorIs(t, err, status.ErrSessionInvalid)
	})

	t.Run("expired or unknown session", func(t *testing.T) {
		mock.ExpectGet("scanner:session:GONE").RedisNil()

		_, err := svc.Validate(ctx, "GONE.S3CR3T")
		assert.ErrorIs(t, err, status.ErrSessionInvalid)
	})

	t.Run("malformed token", func(t *testing.T) {
		for _, token := range []string{"", "nodot", ".secretonly", "idonly."} {
			_, err := svc.Validate(ctx, token)
			assert.ErrorIs(t, err, status.ErrSessionInvalid, "token %q", token)
		}
	})
}

func TestSessionRevoke(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewSessionService(db, time.Hour)

	mock.ExpectDel("scanner:session:ABCD").SetVal(1)

	require.NoError(t, svc.Revoke(context.Background(), "ABCD.S3CR3T"))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.ErrorIs(t, svc.Revoke(context.Background(), ""), status.ErrSessionInvalid)
}
