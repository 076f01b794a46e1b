package competitionhttp

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-chars-long!!"

func TestProvider_GenerateAndValidateToken(t *testing.T) {
	userID := uuid.New()
	p := NewProvider(testSecret, "stride", "stride-api")

	tests := []struct {
		name        string
		sign        *Provider
		ttl         time.Duration
		token       string
		expectedErr error
	}{
		{name: "success", sign: p, ttl: time.Hour},
		{name: "expired token", sign: p, ttl: -time.Hour, expectedErr: ErrExpiredToken},
		{name: "invalid signature", sign: NewProvider("wrong-secret-at-least-32-chars-long", "stride", "stride-api"), ttl: time.Hour, expectedErr: ErrInvalidSignature},
		{name: "wrong issuer", sign: NewProvider(testSecret, "someone-else", "stride-api"), ttl: time.Hour, expectedErr: ErrInvalidToken},
		{name: "wrong audience", sign: NewProvider(testSecret, "stride", "other-api"), ttl: time.Hour, expectedErr: ErrInvalidToken},
		{name: "malformed token", token: "not.a.jwt", expectedErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.token
			if tt.sign != nil {
				var err error
				token, err = tt.sign.GenerateToken(userID, tt.ttl)
				require.NoError(t, err)
			}

			got, err := p.ValidateToken(token)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, uuid.Nil, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, got)
		})
	}
}

func TestProvider_OptionalIssuerAudience(t *testing.T) {
	userID := uuid.New()
	signer := NewProvider(testSecret, "anyone", "")
	token, err := signer.GenerateToken(userID, time.Minute)
	require.NoError(t, err)

	got, err := NewProvider(testSecret, "", "").ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestProvider_ServiceTokens(t *testing.T) {
	p := NewProvider(testSecret, "stride", "stride-api")
	serviceID, userID := uuid.New(), uuid.New()

	serviceToken, err := p.GenerateServiceToken(serviceID, "reports:read "+ScopeCaptureBuyIn, time.Minute)
	require.NoError(t, err)
	userToken, err := p.GenerateToken(userID, time.Minute)
	require.NoError(t, err)

	got, err := p.ValidateServiceToken(serviceToken, ScopeCaptureBuyIn)
	require.NoError(t, err)
	assert.Equal(t, serviceID, got)

	_, err = p.ValidateServiceToken(userToken, ScopeCaptureBuyIn)
	assert.ErrorIs(t, err, ErrInsufficientScope)

	_, err = p.ValidateToken(serviceToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "service tokens cannot act as a user")

	_, err = p.GenerateServiceToken(serviceID, " ", time.Minute)
	assert.Error(t, err)
}
