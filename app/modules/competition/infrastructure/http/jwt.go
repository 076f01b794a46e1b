package competitionhttp

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when the token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")

	// ErrInvalidSignature is returned when the token signature is invalid.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrInsufficientScope is returned when a valid token lacks the scope a
	// service route requires.
	ErrInsufficientScope = errors.New("token lacks required scope")
)

// ScopeCaptureBuyIn is granted to the payment collaborator.
const ScopeCaptureBuyIn = "buy-ins:capture"

// TokenVerifier resolves a bearer token to the caller's user ID.
type TokenVerifier interface {
	ValidateToken(tokenString string) (uuid.UUID, error)
}

// ServiceVerifier resolves a service token holding scope to the service ID.
type ServiceVerifier interface {
	ValidateServiceToken(tokenString, scope string) (uuid.UUID, error)
}

type callerClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// Provider signs and validates HS256 caller tokens. The subject is the
// caller's user UUID.
type Provider struct {
	secret   []byte
	issuer   string
	audience string
}

// NewProvider creates a new JWT provider. Empty issuer or audience disables
// that check.
func NewProvider(secret, issuer, audience string) *Provider {
	return &Provider{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

// GenerateToken creates a signed token for userID.
func (p *Provider) GenerateToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	return p.sign(userID, "", ttl)
}

// GenerateServiceToken creates a signed token for a collaborator service.
// scope is a space-separated list.
func (p *Provider) GenerateServiceToken(serviceID uuid.UUID, scope string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(scope) == "" {
		return "", errors.New("service token requires a scope")
	}
	return p.sign(serviceID, scope, ttl)
}

func (p *Provider) sign(subject uuid.UUID, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := callerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject.String(),
			Issuer:    p.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Scope: scope,
	}
	if p.audience != "" {
		claims.Audience = jwt.ClaimStrings{p.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a user token and returns the caller's user ID.
// Service tokens are rejected.
func (p *Provider) ValidateToken(tokenString string) (uuid.UUID, error) {
	claims, subject, err := p.parse(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.Scope != "" {
		return uuid.Nil, ErrInvalidToken
	}
	return subject, nil
}

// ValidateServiceToken validates a service token and returns the service ID.
// A valid token without scope yields ErrInsufficientScope.
func (p *Provider) ValidateServiceToken(tokenString, scope string) (uuid.UUID, error) {
	claims, subject, err := p.parse(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	if !slices.Contains(strings.Fields(claims.Scope), scope) {
		return uuid.Nil, ErrInsufficientScope
	}
	return subject, nil
}

func (p *Provider) parse(tokenString string) (*callerClaims, uuid.UUID, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	if p.audience != "" {
		opts = append(opts, jwt.WithAudience(p.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &callerClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return p.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, uuid.Nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, uuid.Nil, ErrInvalidSignature
		}
		return nil, uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*callerClaims)
	if !ok || !token.Valid {
		return nil, uuid.Nil, ErrInvalidToken
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil || subject == uuid.Nil {
		return nil, uuid.Nil, ErrInvalidToken
	}
	return claims, subject, nil
}
