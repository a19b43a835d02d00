package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "clubportal/pkg/domain"
	dErrors "clubportal/pkg/domain-errors"
)

var (
	// ErrMalformedToken is returned when a token cannot be parsed back into claims.
	ErrMalformedToken = dErrors.New(dErrors.CodeUnauthorized, "malformed token")
	// ErrExpiredToken is returned when a token decodes but its exp is not in the future.
	ErrExpiredToken = dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	// ErrMissingExpiry is returned by Encode when claims carry no exp.
	ErrMissingExpiry = dErrors.New(dErrors.CodeBadRequest, "token claims require exp")
)

// Claims is the session token payload. Role is a cached hint; the role authority
// decides access.
type Claims struct {
	Role  string         `json:"role,omitempty"`
	Name  string         `json:"name,omitempty"`
	Extra map[string]any `json:"ext,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalID parses the subject claim.
func (c *Claims) PrincipalID() (id.PrincipalID, error) {
	return id.ParsePrincipalID(c.Subject)
}

// Codec encodes and decodes session tokens as HS256 JWS strings.
type Codec struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock injects the clock used for expiry checks and issued-at stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIssuer sets the iss claim stamped by Issue.
func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func NewCodec(signingKey string, opts ...Option) *Codec {
	c := &Codec{
		signingKey: []byte(signingKey),
		issuer:     "clubportal",
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Issue builds and encodes claims for a principal with the given lifetime.
func (c *Codec) Issue(principalID id.PrincipalID, name, role string, expiresIn time.Duration) (string, error) {
	now := c.now()
	return c.Encode(Claims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			ID:        uuid.NewString(),
		},
	})
}

// Encode signs claims into a transportable string. exp is mandatory.
func (c *Codec) Encode(claims Claims) (string, error) {
	if claims.ExpiresAt == nil {
		return "", ErrMissingExpiry
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}
	return signed, nil
}

// Decode parses a token back into claims without judging expiry. Any parse or
// signature failure, or a missing exp, yields ErrMalformedToken.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformedToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// Validate decodes the token and requires exp to be strictly after now.
func (c *Codec) Validate(tokenString string) (*Claims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.ExpiresAt.After(c.now()) {
		return nil, ErrExpiredToken
	}
	return claims, nil
}

// IsValid folds Validate into a boolean.
func (c *Codec) IsValid(tokenString string) bool {
	_, err := c.Validate(tokenString)
	return err == nil
}
