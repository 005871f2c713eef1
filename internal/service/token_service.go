package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService emite y valida tokens de sesión firmados. No guarda
// estado: la lista de tokens activos vive en el registro del usuario.
type TokenService struct {
	secret      []byte
	ttl         time.Duration
	rememberTTL time.Duration
}

type tokenClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

func NewTokenService(secret string, ttl, rememberTTL time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if rememberTTL <= 0 {
		rememberTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret:      []byte(secret),
		ttl:         ttl,
		rememberTTL: rememberTTL,
	}
}

// Issue firma un token para el usuario dado. Devuelve el token y el
// instante de expiración en segundos unix.
func (s *TokenService) Issue(userID string, remember bool) (string, int64, error) {
	if len(s.secret) == 0 {
		return "", 0, ErrTokenInvalid
	}
	ttl := s.ttl
	if remember {
		ttl = s.rememberTTL
	}
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, expiresAt.Unix(), nil
}

// Verify valida firma y expiración y devuelve el id del usuario.
func (s *TokenService) Verify(tokenString string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return "", ErrTokenInvalid
	}
	var claims tokenClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if strings.TrimSpace(claims.UserID) == "" || claims.UserID != claims.Subject {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}
