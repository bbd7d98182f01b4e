package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vytor/learncert/internal/errors"
)

const (
	issuer    = "learncert"
	adminRole = "admin"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth verifies the admin password and issues bearer tokens for admin routes.
type AdminAuth struct {
	passHash []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAdminAuth(passHash, secret string, ttl time.Duration) *AdminAuth {
	return &AdminAuth{
		passHash: []byte(passHash),
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Enabled reports whether an admin password is configured. Without one every login fails.
func (a *AdminAuth) Enabled() bool {
	return len(a.passHash) > 0
}

// Login checks password against the configured bcrypt hash and returns a signed token.
func (a *AdminAuth) Login(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, errors.NewUnauthorizedError("admin access is not configured")
	}
	if err := bcrypt.CompareHashAndPassword(a.passHash, []byte(password)); err != nil {
		return "", time.Time{}, errors.NewUnauthorizedError("invalid credentials")
	}
	return a.Issue()
}

// Issue signs an admin token valid for the configured TTL.
func (a *AdminAuth) Issue() (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)
	claims := &Claims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   adminRole,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, errors.NewInternalError(fmt.Errorf("sign admin token: %w", err))
	}
	return signed, expires, nil
}

// Verify parses an admin token. Any failure is reported as UNAUTHORIZED.
func (a *AdminAuth) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewUnauthorizedError("admin token expired")
		}
		return nil, errors.NewUnauthorizedError("invalid admin token")
	}
	if !parsed.Valid || claims.Role != adminRole {
		return nil, errors.NewUnauthorizedError("invalid admin token")
	}
	return claims, nil
}
