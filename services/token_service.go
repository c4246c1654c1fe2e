package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
)

// TokenIssuer signs identity claims into an access token.
type TokenIssuer interface {
	Issue(claims map[string]interface{}) (string, error)
}

// TokenVerifier validates an access token and returns its claims.
type TokenVerifier interface {
	Verify(tokenStr string) (jwt.MapClaims, error)
}

// TokenService is responsible for creating and validating JWTs.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenService creates a TokenService signing with secret. Tokens expire
// ttl after issuance.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secretKey: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a copy of claims with iat and exp set by the server. The claims
// shape is not validated.
func (s *TokenService) Issue(claims map[string]interface{}) (string, error) {
	now := s.now()
	mc := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		mc[k] = v
	}
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(s.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates tokenStr. Every failure is reported as
// unauthorized.
func (s *TokenService) Verify(tokenStr string) (jwt.MapClaims, error) {
	if tokenStr == "" {
		return nil, apperrors.ErrUnauthorized
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, apperrors.Unauthorized(apperrors.ErrUnauthorized.Message, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.Unauthorized(apperrors.ErrUnauthorized.Message, errors.New("invalid token claims"))
	}
	return claims, nil
}
