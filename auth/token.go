package auth

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "chat-hub"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens with a shared secret.
type TokenManager struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), duration: duration, now: time.Now}
}

// GenerateToken creates a signed JWT for a user, carrying its ID and roles.
func (m *TokenManager) GenerateToken(user domain.User) (string, error) {
	now := m.now()
	claims := &CustomClaims{
		UserID: user.ID,
		Roles:  user.Roles(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrTokenGeneration, err)
	}
	return signed, nil
}

// ValidateToken parses and validates the signature, issuer and expiration of a JWT string.
func (m *TokenManager) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{},
		func(token *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.ErrUnauthorized
	}
	return claims, nil
}

// Authenticate validates an "Authorization: Bearer <token>" header value.
func (m *TokenManager) Authenticate(header string) (Identity, error) {
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(tokenString) == "" {
		return Identity{}, errors.ErrUnauthorized
	}
	claims, err := m.ValidateToken(strings.TrimSpace(tokenString))
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID, Roles: claims.Roles}, nil
}
