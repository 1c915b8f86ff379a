// Package resetpassword реализует HTTP-обработчик установки нового пароля
// по одноразовому токену сброса.
package resetpassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/services/auth"
)

// Request — входные данные для установки нового пароля
type Request struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Service описывает интерфейс бизнес-логики смены пароля.
type Service interface {
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resetpassword"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Token, req.Password)
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
		log.Error("failed to reset password", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("password updated")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "password updated",
	}))
}
