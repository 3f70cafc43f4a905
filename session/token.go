// Package session issues and decodes the bearer token carried in the session
// cookie. There is no server-side session table: the token is the credential,
// so it is HMAC-signed and carries its own expiry.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMalformedToken = errors.New("malformed session token")
	ErrExpiredToken   = errors.New("session token expired")
)

// Claims is the signed payload of a session token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Token is a decoded session.
type Token struct {
	SessionID string
	UserID    string
	ExpiresAt time.Time
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret []byte, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	return &Codec{secret: secret, ttl: ttl, now: time.Now}, nil
}

// TTL is how long an issued token stays valid.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue returns a signed token binding a fresh session id to userID.
func (c *Codec) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("issue session: empty user id")
	}
	now := c.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies raw and returns the session it carries. Any input that is
// not a token signed by this codec yields ErrMalformedToken; a genuine but
// stale token yields ErrExpiredToken.
func (c *Codec) Decode(raw string) (Token, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Token{}, ErrExpiredToken
		}
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !parsed.Valid || claims.ID == "" || claims.UserID == "" {
		return Token{}, ErrMalformedToken
	}
	return Token{
		SessionID: claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
