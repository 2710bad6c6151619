package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"aelin/pkg/evm"
)

// Claims identify a connected wallet. Subject is the checksummed wallet address.
type Claims struct {
	jwt.RegisteredClaims

	ChainID int64 `json:"chainId,omitempty"`
}

type VerifiedSession struct {
	Address   string
	ChainID   int64
	ExpiresAt time.Time
}

// Issue signs an HS256 session token for a wallet address.
func Issue(address string, chainID int64, issuer, secret string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("missing session secret")
	}
	normalized := evm.Normalize(address)
	if normalized == "" {
		return "", fmt.Errorf("invalid wallet address %q", address)
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   normalized,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ChainID: chainID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify checks signature, expiry and issuer, and returns the wallet the token was issued to.
func Verify(tokenString, issuer, secret string, now time.Time) (*VerifiedSession, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing session secret")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	claims := &Claims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	address := evm.Normalize(claims.Subject)
	if address == "" {
		return nil, fmt.Errorf("token subject is not a wallet address")
	}

	return &VerifiedSession{
		Address:   address,
		ChainID:   claims.ChainID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
