// Package login реализует HTTP-обработчик входа по email и паролю.
package login

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
	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/services/auth"
)

// Request — входные данные для входа
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	Login(ctx context.Context, email, rawPassword string) (string, *models.User, error)
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
	const op = "handlers.auth.login"

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

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		log.Warn("invalid credentials")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid credentials"))
		return
	case errors.Is(err, auth.ErrTooManyAttempts):
		log.Warn("login temporarily blocked")
		w.WriteHeader(http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("too many failed attempts, try again later"))
		return
	case errors.Is(err, auth.ErrEmailNotVerified):
		log.Warn("email not verified")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("email is not verified"))
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("user logged in", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": token,
		"user":  user,
	}))
}
