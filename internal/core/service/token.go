package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fazpramim/marketplace/internal/core/domain"
)

const defaultTokenTTL = 24 * time.Hour

// TokenIssuer signs the bearer tokens handed out on login. A token names
// the session it belongs to; the identity claims are informational, the
// session store stays authoritative.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed HS256 token for session sid and its expiry.
func (t *TokenIssuer) Issue(sid string, identity domain.Identity) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := jwt.MapClaims{
		"sid":   sid,
		"sub":   identity.ID,
		"email": identity.Email,
		"name":  identity.DisplayName,
		"role":  string(identity.Role),
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
