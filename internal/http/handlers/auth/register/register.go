// Package register реализует HTTP-обработчик регистрации компании
// и её первого пользователя-администратора.
package register

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

// Request — входные данные для регистрации
type Request struct {
	CompanyName  string `json:"company_name" validate:"required,min=2,max=200"`
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	CaptchaToken string `json:"captcha_token" validate:"required"`
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, req auth.RegisterRequest) (string, error)
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
	const op = "handlers.auth.register"

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

	userUID, err := h.service.Register(r.Context(), auth.RegisterRequest{
		CompanyName:  req.CompanyName,
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
	})
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		log.Warn("email already registered")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("email is already registered"))
		return
	case errors.Is(err, auth.ErrBotSuspected):
		log.Warn("captcha verification failed")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("captcha verification failed"))
		return
	case err != nil:
		log.Error("registration failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register user"))
		return
	}

	log.Info("user registered", slog.String("user_uid", userUID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid": userUID,
		"message":  "confirmation letter sent",
	}))
}
