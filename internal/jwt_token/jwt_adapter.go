package jwttoken

import (
	authmw "clubportal/pkg/platform/middleware/auth"
)

// ToMiddlewareClaims converts decoded claims into the shape the auth middleware expects.
func ToMiddlewareClaims(claims *Claims) (*authmw.TokenClaims, error) {
	principalID, err := claims.PrincipalID()
	if err != nil {
		return nil, ErrMalformedToken
	}
	return &authmw.TokenClaims{
		PrincipalID: principalID,
		DisplayName: claims.Name,
		RoleHint:    claims.Role,
	}, nil
}

type CodecAdapter struct {
	codec *Codec
}

func NewCodecAdapter(codec *Codec) *CodecAdapter {
	return &CodecAdapter{codec: codec}
}

func (a *CodecAdapter) ValidateToken(tokenString string) (*authmw.TokenClaims, error) {
	claims, err := a.codec.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}
