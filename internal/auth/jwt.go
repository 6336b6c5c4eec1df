package auth

import (
	"errors"
	"time"

	"arena-ledger/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// JWTService signs and verifies identity tokens. The caller identity the
// ledger sees is the token's subject.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

type IdentityClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTService(secret, issuer string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// GenerateToken creates a token asserting identity. name is informational.
func (s *JWTService) GenerateToken(identity models.Identity, name string) (string, error) {
	if identity == "" {
		return "", errors.New("identity is required")
	}
	now := time.Now()
	claims := IdentityClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(identity),
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies the signature, expiry and issuer and returns the
// identity in the subject claim.
func (s *JWTService) ValidateToken(tokenString string) (models.Identity, *IdentityClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", nil, ErrExpiredToken
		}
		return "", nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", nil, ErrInvalidToken
	}

	return models.Identity(claims.Subject), claims, nil
}

// TTL returns the lifetime of newly generated tokens
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}
