// Package accessstatus реализует HTTP-обработчик текущего статуса доступа
// пользователя. Фронтенд использует ответ для баннера пробного периода.
package accessstatus

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
)

type Handler struct {
	log       *slog.Logger
	evaluator middlewarectx.AccessEvaluator
}

func New(log *slog.Logger, evaluator middlewarectx.AccessEvaluator) *Handler {
	return &Handler{
		log:       log,
		evaluator: evaluator,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.accessstatus"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	ev, err := h.evaluator.EvaluateUser(r.Context(), userUID)
	if err != nil {
		log.Error("failed to evaluate access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(ev))
}
