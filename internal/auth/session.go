// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// privateKey and publicKey are used for signing and verifying host tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// TokenTTL is how long a host token stays valid (0 => never expires).
	TokenTTL time.Duration
)

// HostRole is the role claim carried by host tokens.
const HostRole = "host"

var (
	ErrNotInitialized = errors.New("auth keys not initialized")
	ErrWrongRoom      = errors.New("token was issued for another room")
)

// ParseTokenTTL reads a TOKEN_EXPIRE_TIME style value: "never", "0" or "" disable expiry.
func ParseTokenTTL(value string) (time.Duration, error) {
	if value == "never" || value == "0" || value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token expire time: %w", err)
	}
	return d, nil
}

// Init generates a fresh ed25519 key pair at runtime and sets the token lifetime.
func Init(ttl time.Duration) error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	TokenTTL = ttl
	return nil
}

// InitFromPath reads ed25519 private/public keys from file so several nodes can share them.
func InitFromPath(privatePath, publicPath string, ttl time.Duration) error {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}

	privateKey = ed25519.PrivateKey(privateKeyData)
	publicKey = ed25519.PublicKey(publicKeyData)
	TokenTTL = ttl
	return nil
}

// CreateHostToken signs a token binding its bearer to seat 0 of the room at address.
func CreateHostToken(address string) (string, error) {
	if privateKey == nil {
		return "", ErrNotInitialized
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  address,
		"role": HostRole,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
	}
	if TokenTTL > 0 {
		claims["exp"] = now.Add(TokenTTL).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateHostToken verifies a host token and checks it was issued for address.
func AuthenticateHostToken(tokenString, address string) error {
	if publicKey == nil {
		return ErrNotInitialized
	}
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("invalid jwt claims")
	}
	if role, _ := claims["role"].(string); role != HostRole {
		return fmt.Errorf("token is not a host token")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return fmt.Errorf("missing sub in jwt")
	}
	if sub != address {
		return ErrWrongRoom
	}
	return nil
}
