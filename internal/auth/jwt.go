package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verifier validates bearer tokens minted by the phone authentication
// provider and extracts the verified identity they carry.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a token verifier.
// secret must be at least 32 characters for HS256 security.
func NewVerifier(secret string, issuer string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// providerClaims extends standard JWT claims with the fields the phone
// auth provider issues.
type providerClaims struct {
	jwt.RegisteredClaims
	PhoneNumber  string       `json:"phone_number"`
	Name         string       `json:"name,omitempty"`
	CustomClaims CustomClaims `json:"claims,omitempty"`
}

// Verify parses and validates a bearer token.
// Returns the identity it carries: uid (subject), phone number, display
// name, and the custom-claims capability set.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &providerClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*providerClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != v.issuer {
		return Identity{}, fmt.Errorf("invalid issuer: expected %s, got %s", v.issuer, claims.Issuer)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid subject UUID: %w", err)
	}

	if claims.PhoneNumber == "" {
		return Identity{}, fmt.Errorf("token carries no phone number")
	}

	return Identity{
		UID:         uid,
		PhoneNumber: claims.PhoneNumber,
		DisplayName: claims.Name,
		Claims:      claims.CustomClaims,
	}, nil
}
