package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/escapeeng/admin-gateway/internal/model"
)

// Claims is the signed payload of a session token. It extends the
// registered JWT claims (sub, exp, iat) with the fields the dashboard
// needs to render and gate without a database round trip. SessionID
// ties the token to its row in the sessions table so logout can revoke
// it before the absolute expiry.
type Claims struct {
	UserID    uint64     `json:"uid"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	SessionID string     `json:"sid"`
	jwt.RegisteredClaims
}

// IssuedToken bundles a freshly signed token with the session row that
// must be persisted alongside it. Callers write Session to the store
// before handing Token to the client; a token without a durable session
// row could never be force-revoked.
type IssuedToken struct {
	Token   string
	Session model.Session
	Claims  Claims
}

// Issue builds and signs an HS256 session token for a verified admin
// user. A fresh random session_id is generated per call and the expiry
// is a fixed absolute ceiling (ttl), independent of any client-side
// inactivity window.
func Issue(secret string, u model.AdminUser, ttl time.Duration) (IssuedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	sid := uuid.NewString()

	claims := Claims{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{
		Token: signed,
		Session: model.Session{
			SessionID: sid,
			UserID:    u.ID,
			IssuedAt:  now,
			ExpiresAt: exp,
		},
		Claims: claims,
	}, nil
}

// VerifyToken validates a raw token string against the current secret
// and returns its decoded claims. It is pure: no session store lookup
// happens here, trading perfect revocation latency for a cheap hot
// path. The failure branches are distinct:
//
//	missing token          -> ErrUnauthenticated
//	bad signature/encoding -> ErrInvalidToken
//	valid but past expiry  -> ErrExpired
//	malformed claim shape  -> ErrInvalidToken
func VerifyToken(secret, raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrUnauthenticated
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC; an attacker must
		// not be able to downgrade the algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidToken
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}

	// Structural shape: a signed token from an old or foreign issuer
	// that lacks our fields is rejected, not half-trusted.
	if claims.UserID == 0 || claims.SessionID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
