package user

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenIssuer signs the bearer tokens handed out at login. Verification is
// done by the jwtware middleware configured with the same secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(user User) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}

	claims := jwt.MapClaims{
		"user_id":   user.ID,
		"username":  user.Username,
		"email":     user.Email,
		"user_type": string(user.Role),
		"exp":       t.now().Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}
