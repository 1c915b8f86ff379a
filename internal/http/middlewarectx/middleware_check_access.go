package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/services/trial"
)

// AccessEvaluator определяет интерфейс оценки права доступа пользователя.
type AccessEvaluator interface {
	EvaluateUser(ctx context.Context, userUID string) (*trial.Evaluation, error)
}

// SubscriptionAccessMiddleware создает middleware, запрещающий доступ
// после окончания пробного периода или подписки с учетом грейс-периода.
func SubscriptionAccessMiddleware(log *slog.Logger, evaluator AccessEvaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			ev, err := evaluator.EvaluateUser(r.Context(), userUID)
			if err != nil {
				log.Error("failed to evaluate access", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			if !ev.HasAccess {
				log.Warn("access denied", slog.String("user_uid", userUID),
					slog.String("reason", ev.Message))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error(ev.Message))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
