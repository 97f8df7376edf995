package identity

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the bearer token payload: subject = identity id, jti = session id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// FederatedClaims is what an upstream identity provider asserts about a user.
type FederatedClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func signToken(secret []byte, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// parseHS256 validates raw with secret, accepting HS256 only.
func parseHS256(raw string, secret []byte, claims jwt.Claims) error {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
