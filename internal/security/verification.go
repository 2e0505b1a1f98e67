package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidVerificationToken is returned when an email-verification token is
// malformed, expired, or signed with the wrong secret.
var ErrInvalidVerificationToken = errors.New("invalid verification token")

// VerificationClaims holds JWT claims for an email-verification token.
type VerificationClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// VerificationProvider issues and validates signed, time-limited
// email-verification tokens (HS256). These are single-purpose tokens carried
// in verification links; they are not session tokens and grant no access.
type VerificationProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewVerificationProvider returns a VerificationProvider signing with secret.
// ttl bounds how long an issued token remains valid.
func NewVerificationProvider(secret []byte, issuer string, ttl time.Duration) *VerificationProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &VerificationProvider{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue returns a verification token for the given user and email.
func (p *VerificationProvider) Issue(userID, email string) (string, error) {
	now := time.Now().UTC()
	claims := VerificationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Validate parses and validates the token (signature, exp, iss). Returns the
// user id and email it was issued for.
func (p *VerificationProvider) Validate(tokenString string) (userID, email string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &VerificationClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidVerificationToken
		}
		return p.secret, nil
	})
	if err != nil {
		return "", "", ErrInvalidVerificationToken
	}
	claims, ok := token.Claims.(*VerificationClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidVerificationToken
	}
	if claims.Issuer != p.issuer || claims.Subject == "" {
		return "", "", ErrInvalidVerificationToken
	}
	return claims.Subject, claims.Email, nil
}
