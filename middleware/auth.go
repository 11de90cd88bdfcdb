package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user"

const jwtClaimUserID = "user_id"

var (
	ErrNoToken       = errors.New("authorization token required")
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrClaimsMissing = errors.New("user claims not found in context")
)

// Authenticator проверяет Bearer-токены и кладёт claims в контекст запроса.
// Отозванные при выходе токены отклоняются до истечения их срока жизни.
type Authenticator struct {
	secret    []byte
	blocklist *TokenBlocklist
}

func NewAuthenticator(secret string, blocklist *TokenBlocklist) *Authenticator {
	return &Authenticator{secret: []byte(secret), blocklist: blocklist}
}

func (a *Authenticator) ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if a.blocklist != nil && a.blocklist.IsRevoked(tokenString) {
			http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}
		claims, err := a.ParseToken(tokenString)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrNoToken
	}
	return parts[1], nil
}

// GetUserIDFromContext извлекает ID пользователя из claims аутентифицированного
// запроса.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrClaimsMissing
	}
	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return uuid.Nil, fmt.Errorf("missing %q claim in token", jwtClaimUserID)
	}
	userIDStr, ok := userIDClaim.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid type for %q claim: %T", jwtClaimUserID, userIDClaim)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID in %q claim: %w", jwtClaimUserID, err)
	}
	return userID, nil
}

// ContextWithClaims используется в тестах хендлеров для подстановки
// аутентифицированного пользователя.
func ContextWithClaims(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userContextKey, jwt.MapClaims{jwtClaimUserID: userID.String()})
}
