package utils // package utils provides helpers for access tokens and credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller identity carried inside an access token.
type Identity struct {
	PersonID uint64 `json:"id_persona"`
	Email    string `json:"correo"`
	Name     string `json:"nombre"`
	Role     string `json:"rol"`
}

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// accessClaims are the JWT claims issued at login. The subject holds the
// person id in decimal form.
type accessClaims struct {
	Email string `json:"correo"`
	Name  string `json:"nombre"`
	Role  string `json:"rol"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned for tokens that fail parsing, signature or
// expiry checks, or that carry no usable subject.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for id that expires after
// ttl.
func NewAccessToken(secret string, id Identity, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := accessClaims{
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", id.PersonID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates raw against secret and returns the identity it
// carries. Only HMAC signatures are accepted.
func ParseAccessToken(secret, raw string) (Identity, error) {
	var claims accessClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	var id uint64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &id); err != nil || id == 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{PersonID: id, Email: claims.Email, Name: claims.Name, Role: claims.Role}, nil
}
