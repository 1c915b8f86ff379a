// Package middlewarectx содержит HTTP middleware для проверки JWT токенов,
// ролей и права доступа по состоянию подписки.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке
// Authorization и в случае успеха добавляет в контекст идентификаторы
// пользователя и компании для дальнейшего использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/jwt"
	"github.com/ainexo/declair/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User — ключ для имени пользователя в контексте
	User Key = "username"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
	// UserUID — ключ для идентификатора пользователя в контексте
	UserUID Key = "user_uid"
	// CompanyUID — ключ для идентификатора компании в контексте
	CompanyUID Key = "company_uid"
)

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет данные пользователя в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			authHeader := r.Header.Get("Authorization")

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), User, claims.Username)
			ctx = context.WithValue(ctx, Role, claims.Role)
			ctx = context.WithValue(ctx, UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, CompanyUID, claims.CompanyUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole возвращает middleware, пропускающий запрос только
// при наличии одной из перечисленных ролей.
func RequireRole(log *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(Role).(string)
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}
			if _, ok := allowed[role]; !ok {
				log.Warn("access denied by role", slog.String("role", role))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
