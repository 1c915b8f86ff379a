// Package forgotpassword реализует HTTP-обработчик запроса сброса пароля.
// Ответ не раскрывает, зарегистрирован ли email в системе.
package forgotpassword

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
)

// Request — входные данные запроса сброса пароля
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает интерфейс бизнес-логики сброса пароля.
type Service interface {
	ForgotPassword(ctx context.Context, email string) error
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
	const op = "handlers.auth.forgotpassword"

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

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		log.Error("failed to process reset request", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "if the email is registered, a reset letter has been sent",
	}))
}
