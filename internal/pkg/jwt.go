package pkg

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager verifies the staff tokens that guard the administrative surface.
// Token issuing (login) lives in the surrounding application, not here.
type JWTManager struct {
	secretKey []byte
	issuer    string
	tokenTTL  time.Duration
}

// StaffClaims represents staff token claims
type StaffClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// StaffRole is the role claim required by the staff middleware.
const StaffRole = "staff"

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey, issuer string, tokenTTL time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		tokenTTL:  tokenTTL,
	}
}

// Generate creates a signed staff token. Used by operational tooling and tests.
func (jm *JWTManager) Generate(email, role string) (string, error) {
	now := time.Now()
	claims := &StaffClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jm.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jm.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jm.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a staff token
func (jm *JWTManager) Verify(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jm.secretKey, nil
	}, jwt.WithIssuer(jm.issuer))
	if err != nil {
		return nil, ErrUnauthorized.WithCause(err)
	}

	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}

	return claims, nil
}
