// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminCookieName = "admin_session"
	VoterCookieName = "voter"

	adminAudience = "costume-contest/admin"
	voterAudience = "costume-contest/voter"
	adminSubject  = "admin"

	// VoterTokenTTL keeps a guest's identity for the whole party and then some.
	VoterTokenTTL = 30 * 24 * time.Hour
)

var (
	ErrInvalidPassword = errors.New("invalid admin password")
	ErrInvalidSession  = errors.New("invalid or expired session")
	ErrInvalidToken    = errors.New("invalid token format")
	ErrMissingSecret   = errors.New("signing secret is empty")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// PasswordChecker holds the bcrypt hash of the shared admin password.
type PasswordChecker struct {
	hash []byte
}

// NewPasswordChecker hashes plain, or uses hash directly when plain is empty.
func NewPasswordChecker(plain, hash string) (*PasswordChecker, error) {
	if plain == "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid admin password hash: %w", err)
		}
		return &PasswordChecker{hash: []byte(hash)}, nil
	}

	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return &PasswordChecker{hash: h}, nil
}

// Check compares candidate against the admin password in constant time.
func (p *PasswordChecker) Check(candidate string) error {
	if candidate == "" {
		return ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword(p.hash, []byte(candidate)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

func sign(claims jwt.RegisteredClaims, secret string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func parse(token, secret, audience string) (*jwt.RegisteredClaims, error) {
	if token == "" || secret == "" {
		return nil, ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return claims, nil
}

// IssueAdminSession returns a signed session token valid for ttl.
func IssueAdminSession(secret string, ttl time.Duration) (string, error) {
	id, err := GenerateID(16)
	if err != nil {
		return "", err
	}

	now := time.Now()
	return sign(jwt.RegisteredClaims{
		ID:        id,
		Subject:   adminSubject,
		Audience:  jwt.ClaimStrings{adminAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}, secret)
}

// ValidateAdminSession checks signature, audience, subject and expiry.
func ValidateAdminSession(token, secret string) error {
	claims, err := parse(token, secret, adminAudience)
	if err != nil {
		return err
	}
	if claims.Subject != adminSubject {
		return ErrInvalidSession
	}
	return nil
}

// IsAdmin is the single capability check for admin routes: it reports whether
// the request carries a valid admin session cookie.
func IsAdmin(r *http.Request, secret string) bool {
	cookie, err := r.Cookie(AdminCookieName)
	if err != nil {
		return false
	}
	return ValidateAdminSession(cookie.Value, secret) == nil
}

// IssueVoterToken mints a new voter identity and returns the signed token
// along with the identity stored on votes.
func IssueVoterToken(secret string) (token, voterID string, err error) {
	voterID = uuid.NewString()
	now := time.Now()
	token, err = sign(jwt.RegisteredClaims{
		Subject:   voterID,
		Audience:  jwt.ClaimStrings{voterAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(VoterTokenTTL)),
	}, secret)
	if err != nil {
		return "", "", err
	}
	return token, voterID, nil
}

// VoterID verifies a voter token and returns the identity inside it.
func VoterID(token, secret string) (string, error) {
	claims, err := parse(token, secret, voterAudience)
	if err != nil {
		return "", err
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// AdminCookie wraps a session token in an HttpOnly cookie.
func AdminCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     AdminCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearAdminCookie expires the admin session cookie.
func ClearAdminCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     AdminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func VoterCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     VoterCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(VoterTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
