// Package auth issues and verifies the service's access and refresh tokens
// and hashes account passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/routehaul/hosplan/foundation/apperror"
	"golang.org/x/crypto/bcrypt"
)

//token type claims, so a refresh token can never pass as an access token
const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

//Claims are the JWT claims both token kinds carry.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
}

//Tokens signs and verifies the service's JWTs with a single HS256 key.
type Tokens struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

//NewTokens builds a Tokens. The signing key must not be empty.
func NewTokens(signingKey string, accessTTL, refreshTTL time.Duration) (*Tokens, error) {
	if signingKey == "" {
		return nil, errors.New("auth signing key is required")
	}
	return &Tokens{
		signingKey: []byte(signingKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

//IssuedPair is one access/refresh token pair plus the refresh token's id for
//the blacklist record.
type IssuedPair struct {
	Access           string
	Refresh          string
	RefreshID        uuid.UUID
	RefreshExpiresAt time.Time
}

//Issue creates a fresh token pair for a user at the given instant.
func (t *Tokens) Issue(userID uuid.UUID, email, name string, now time.Time) (IssuedPair, error) {
	access, err := t.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
		TokenType: accessTokenType,
		Email:     email,
		Name:      name,
	})
	if err != nil {
		return IssuedPair{}, fmt.Errorf("signing access token: %w", err)
	}

	refreshID := uuid.New()
	refreshExpiry := now.Add(t.refreshTTL)
	refresh, err := t.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        refreshID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
		},
		TokenType: refreshTokenType,
	})
	if err != nil {
		return IssuedPair{}, fmt.Errorf("signing refresh token: %w", err)
	}

	return IssuedPair{
		Access:           access,
		Refresh:          refresh,
		RefreshID:        refreshID,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

func (t *Tokens) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.signingKey)
}

//VerifyAccess checks an access token and returns the user it belongs to.
func (t *Tokens) VerifyAccess(token string) (uuid.UUID, *Claims, error) {
	claims, err := t.verify(token, accessTokenType)
	if err != nil {
		return uuid.Nil, nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, nil, apperror.Wrap(apperror.Unauthenticated, err, "invalid access token")
	}
	return userID, claims, nil
}

//VerifyRefresh checks a refresh token and returns the user and the token id.
func (t *Tokens) VerifyRefresh(token string) (uuid.UUID, uuid.UUID, error) {
	claims, err := t.verify(token, refreshTokenType)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperror.Wrap(apperror.Unauthenticated, err, "invalid refresh token")
	}
	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperror.Wrap(apperror.Unauthenticated, err, "invalid refresh token")
	}
	return userID, tokenID, nil
}

func (t *Tokens) verify(token, wantType string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.signingKey, nil
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.Unauthenticated, err, "invalid or expired token")
	}
	if !parsed.Valid || claims.TokenType != wantType {
		return nil, apperror.New(apperror.Unauthenticated, "invalid or expired token")
	}
	return &claims, nil
}

//HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

//CheckPassword compares a stored hash against a login attempt.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
