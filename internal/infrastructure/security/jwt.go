package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
)

// Claims carries the authenticated user id. UserID is a pointer so a token
// without the claim can be told apart from user 0.
type Claims struct {
	UserID *int64 `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

type JWTIssuer struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
}

func NewJWTIssuer(secret, algorithm string, lifetime time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}
	if lifetime <= 0 {
		lifetime = 60 * time.Minute
	}
	return &JWTIssuer{
		secret:   []byte(secret),
		method:   method,
		lifetime: lifetime,
	}, nil
}

func (j *JWTIssuer) Issue(userID int64, now time.Time) (string, error) {
	token := jwt.NewWithClaims(j.method, Claims{
		UserID: &userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (j *JWTIssuer) Verify(tokenString string) (ports.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{j.method.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.TokenClaims{}, domain.Failf(domain.ErrUnauthorized, "token expired", err)
		}
		return ports.TokenClaims{}, domain.Failf(domain.ErrUnauthorized, "could not validate credentials", err)
	}
	if !token.Valid {
		return ports.TokenClaims{}, domain.Fail(domain.ErrUnauthorized, "could not validate credentials")
	}
	if claims.UserID == nil {
		return ports.TokenClaims{}, domain.Fail(domain.ErrUnauthorized, "could not validate credentials")
	}

	out := ports.TokenClaims{UserID: *claims.UserID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
