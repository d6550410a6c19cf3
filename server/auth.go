package server

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoCredentials is returned by Identity implementations when the request
// carries no credentials at all.
var ErrNoCredentials = errors.New("no credentials")

// Identity resolves the caller of a request to a user id.
type Identity interface {
	// Identify returns the user id, ErrNoCredentials for anonymous requests,
	// or another error when credentials are present but invalid.
	Identify(r *http.Request) (string, error)
}

// TokenClaims represents the JWT token payload.
type TokenClaims struct {
	UserID string `json:"user"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies Ed25519 signed bearer tokens.
type JWTManager struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	issuer     string
	ttl        time.Duration
}

// NewJWTManager derives the signing key from secret. A zero ttl issues
// tokens without expiry.
func NewJWTManager(secret string, ttl time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	seed := sha256.Sum256([]byte(secret))
	privateKey := ed25519.NewKeyFromSeed(seed[:])

	return &JWTManager{
		privateKey: privateKey,
		publicKey:  privateKey.Public().(ed25519.PublicKey),
		issuer:     "chat-app",
		ttl:        ttl,
	}, nil
}

// CreateToken creates a new token for userID.
func (m *JWTManager) CreateToken(userID string) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(m.privateKey)
}

// VerifyToken verifies and parses a token.
func (m *JWTManager) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.publicKey, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Identify implements Identity for "Authorization: Bearer <token>".
func (m *JWTManager) Identify(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoCredentials
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization header format")
	}

	claims, err := m.VerifyToken(parts[1])
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

const userIDKey = "userID"

// identify resolves the caller when credentials are present. Invalid
// credentials are rejected; anonymous requests pass through.
func identify(id Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id == nil {
			c.Next()
			return
		}
		userID, err := id.Identify(c.Request)
		switch {
		case errors.Is(err, ErrNoCredentials):
		case err != nil:
			abortWithError(c, http.StatusUnauthorized, "Unauthorized")
			return
		default:
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

// requireUser rejects anonymous callers.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := getUserID(c); !ok {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}

// getUserID extracts the user ID from the gin context.
func getUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}
