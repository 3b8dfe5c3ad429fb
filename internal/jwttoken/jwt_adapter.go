package jwttoken

import (
	authmw "sentinelle/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *Claims) *authmw.ReviewerClaims {
	return &authmw.ReviewerClaims{
		ReviewerID: claims.ReviewerID,
	}
}

type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.ReviewerClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
