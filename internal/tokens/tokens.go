package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/apifoundry/apifoundry/internal/config"
)

// ErrAuthentication is the single error kind surfaced for any token failure:
// malformed, bad signature, expired, wrong kind, or revoked. Callers must not
// be able to distinguish the cases.
var ErrAuthentication = errors.New("authentication failed")

const refreshKind = "refresh"

// AccessClaims are the signed claims of a short-lived access token.
type AccessClaims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims are the signed claims of a long-lived refresh token.
// Email and Roles are embedded so a refreshed access token carries the full
// login claim set without a directory round trip.
type RefreshClaims struct {
	Kind  string   `json:"kind"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the login/refresh response shape exposed over HTTP.
type TokenPair struct {
	AccessToken     string `json:"accessToken"`
	RefreshToken    string `json:"refreshToken"`
	ExpiresInMillis int64  `json:"expiresInMillis"`
}

// RevocationChecker reports whether a raw token has been revoked.
// Satisfied by *revocation.Registry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) bool
}

// Issuer mints and verifies access/refresh tokens. Access and refresh tokens
// are signed with distinct secrets so one can never verify as the other.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	revocations   RevocationChecker
}

// NewIssuer builds an Issuer from JWT config. revocations may be nil, in which
// case Refresh skips the denylist check.
func NewIssuer(cfg config.JWTConfig, revocations RevocationChecker) *Issuer {
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		revocations:   revocations,
	}
}

// IssueAccessToken creates a signed access token for the subject.
func (i *Issuer) IssueAccessToken(sub, email string, roles []string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString(i.accessSecret)
}

// IssueRefreshToken creates a signed refresh token for the subject.
func (i *Issuer) IssueRefreshToken(sub, email string, roles []string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		Kind:  refreshKind,
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString(i.refreshSecret)
}

// IssuePair mints an access+refresh token pair. ExpiresInMillis is derived
// from the access token's own exp-iat claims so it cannot drift from the
// signed truth.
func (i *Issuer) IssuePair(sub, email string, roles []string) (*TokenPair, error) {
	access, err := i.IssueAccessToken(sub, email, roles)
	if err != nil {
		return nil, err
	}
	refresh, err := i.IssueRefreshToken(sub, email, roles)
	if err != nil {
		return nil, err
	}
	claims, err := i.VerifyAccess(access)
	if err != nil {
		return nil, err
	}
	expiresIn := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	return &TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		ExpiresInMillis: expiresIn.Milliseconds(),
	}, nil
}

// VerifyAccess validates signature and expiry of an access token and returns
// its claims. Revocation is not checked here; callers needing it consult the
// revocation registry separately.
func (i *Issuer) VerifyAccess(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := i.parse(token, &claims, i.accessSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

// VerifyRefresh validates a refresh token, including its kind tag.
func (i *Issuer) VerifyRefresh(token string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := i.parse(token, &claims, i.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Kind != refreshKind {
		return nil, fmt.Errorf("%w: invalid or expired token", ErrAuthentication)
	}
	return &claims, nil
}

// Refresh verifies the refresh token, rejects it when revoked, and mints a
// new access token carrying the claim set embedded in the refresh token.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := i.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	if i.revocations != nil && i.revocations.IsRevoked(ctx, refreshToken) {
		return nil, fmt.Errorf("%w: token has been revoked", ErrAuthentication)
	}
	access, err := i.IssueAccessToken(claims.Subject, claims.Email, claims.Roles)
	if err != nil {
		return nil, err
	}
	ac, err := i.VerifyAccess(access)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:     access,
		ExpiresInMillis: ac.ExpiresAt.Sub(ac.IssuedAt.Time).Milliseconds(),
	}, nil
}

func (i *Issuer) parse(token string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		// collapse every parse/signature/expiry failure into one kind
		return fmt.Errorf("%w: invalid or expired token", ErrAuthentication)
	}
	return nil
}
