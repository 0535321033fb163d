package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/origamishop/orders/internal/domain"
)

const bearerPrefix = "Bearer"

// Claims — полезная нагрузка токена внешнего identity provider:
// subject содержит email клиента, is_admin — признак администратора.
type Claims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

type contextKey string

const principalContextKey contextKey = "principal"

// Authenticator проверяет HS256-токены и извлекает принципала.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator создаёт аутентификатор с общим секретом identity provider.
func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// Authenticate разбирает и проверяет токен, возвращая принципала.
func (a *Authenticator) Authenticate(tokenString string) (domain.Principal, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return domain.Principal{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	if claims.Subject == "" {
		return domain.Principal{}, errors.New("missing subject claim")
	}

	return domain.Principal{
		Email:   claims.Subject,
		IsAdmin: claims.IsAdmin,
	}, nil
}

// IssueToken выпускает токен для принципала. Используется в тестах и
// локальной разработке; в бою токены выпускает identity provider.
func (a *Authenticator) IssueToken(principal domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		IsAdmin: principal.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExtractBearerToken достаёт токен из заголовка Authorization.
func ExtractBearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// WithPrincipal кладёт принципала в контекст запроса.
func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext возвращает принципала из контекста, если он есть.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(domain.Principal)
	return principal, ok
}
