// Package auth provides JWT issuing and the Echo JWT middleware for the operator API.
package auth

import (
	"errors"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSubject is returned when a token carries no subject claim.
var ErrNoSubject = errors.New("token has no subject")

// GenerateToken issues an HS256 JWT for the given subject.
func GenerateToken(subject, secret string, expiresIn time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(expiresIn)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseSubject verifies a token string and returns its subject claim.
func ParseSubject(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrNoSubject
	}
	return claims.Subject, nil
}

// JWTMiddleware returns the Echo JWT middleware with the given skipper.
// Tokens are accepted from the Authorization header or the access_token
// query parameter (EventSource cannot set headers).
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:     skipper,
		SigningKey:  []byte(secret),
		TokenLookup: "header:Authorization:Bearer ,query:access_token",
	})
}

// SubjectFromContext returns the authenticated subject stored by the JWT middleware.
func SubjectFromContext(c echo.Context) (string, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return "", errors.New("no token in context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrNoSubject
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrNoSubject
	}
	return subject, nil
}
