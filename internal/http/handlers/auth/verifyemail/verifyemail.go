// Package verifyemail реализует HTTP-обработчик подтверждения почты
// по одноразовому токену из письма.
package verifyemail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики подтверждения почты.
type Service interface {
	VerifyEmail(ctx context.Context, token string) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifyemail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.URL.Query().Get("token")
	if token == "" {
		log.Error("token is missing")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("token is required"))
		return
	}

	err := h.service.VerifyEmail(r.Context(), token)
	switch {
	case errors.Is(err, auth.ErrTokenInvalid):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("token is invalid"))
		return
	case errors.Is(err, auth.ErrTokenExpired):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("token has expired"))
		return
	case err != nil:
		log.Error("email verification failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("email verified")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "email verified",
	}))
}
