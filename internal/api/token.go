package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer          = "solarsite"
	defaultTokenLifetime = 12 * time.Hour
	minimumSecretLength  = 16
)

var (
	// ErrInvalidToken indicates a token failed signature or claim validation.
	ErrInvalidToken = errors.New("api: invalid token")
	// ErrExpiredToken indicates a token is past its expiry.
	ErrExpiredToken = errors.New("api: token expired")
	// ErrWeakTokenSecret indicates the signing secret is too short.
	ErrWeakTokenSecret = errors.New("api: token secret must be at least 16 bytes")
)

// IssuedToken is a signed operator token with its expiry.
type IssuedToken struct {
	Value     string
	Subject   string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 operator tokens.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenIssuer builds a TokenIssuer. A non-positive lifetime defaults to twelve hours.
func NewTokenIssuer(secret string, lifetime time.Duration) (*TokenIssuer, error) {
	trimmedSecret := strings.TrimSpace(secret)
	if len(trimmedSecret) < minimumSecretLength {
		return nil, ErrWeakTokenSecret
	}
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	return &TokenIssuer{secret: []byte(trimmedSecret), lifetime: lifetime, now: time.Now}, nil
}

// Issue signs a token for the operator username.
func (issuer *TokenIssuer) Issue(subject string) (IssuedToken, error) {
	issuedAt := issuer.now().UTC()
	expiresAt := issuedAt.Add(issuer.lifetime)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(issuer.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("api: sign token: %w", err)
	}
	return IssuedToken{Value: signed, Subject: subject, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Verify validates a token and returns its subject.
func (issuer *TokenIssuer) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return issuer.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(issuer.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
