package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

type Claims struct {
	UserID    string    `json:"user_id"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// TokenIssuer mints and checks bearer tokens bound to a user identifier.
type TokenIssuer interface {
	Mint(userID uuid.UUID) (TokenPair, error)
	Refresh(refreshToken string) (string, error)
	Validate(accessToken string) (uuid.UUID, error)
}

// JWTIssuer issues HS256-signed tokens.
type JWTIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewJWTIssuer(secret string, accessTTL, refreshTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (j *JWTIssuer) Mint(userID uuid.UUID) (TokenPair, error) {
	access, err := j.sign(userID, TokenTypeAccess, j.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := j.sign(userID, TokenTypeRefresh, j.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (j *JWTIssuer) Refresh(refreshToken string) (string, error) {
	userID, err := j.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return j.sign(userID, TokenTypeAccess, j.accessTTL)
}

func (j *JWTIssuer) Validate(accessToken string) (uuid.UUID, error) {
	return j.parse(accessToken, TokenTypeAccess)
}

func (j *JWTIssuer) sign(userID uuid.UUID, typ TokenType, ttl time.Duration) (string, error) {
	now := j.now()
	claims := Claims{
		UserID:    userID.String(),
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *JWTIssuer) parse(raw string, want TokenType) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("%w: token expired", ErrUnauthorized)
		}
		return uuid.Nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: invalid token claims", ErrUnauthorized)
	}
	if claims.TokenType != want {
		return uuid.Nil, fmt.Errorf("%w: %s token required", ErrUnauthorized, want)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid token subject", ErrUnauthorized)
	}
	return userID, nil
}
