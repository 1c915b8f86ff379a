// Package invite реализует HTTP-обработчик создания приглашения
// в компанию. Доступен только администраторам.
package invite

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/services/auth"
)

// Request — входные данные приглашения
type Request struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=member admin"`
}

// Service описывает интерфейс бизнес-логики приглашений.
type Service interface {
	Invite(ctx context.Context, companyUID, invitedBy, email, role string) error
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
	const op = "handlers.auth.invite"

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

	companyUID, ok := r.Context().Value(middlewarectx.CompanyUID).(string)
	if !ok || companyUID == "" {
		log.Error("company identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	invitedBy, _ := r.Context().Value(middlewarectx.User).(string)

	err := h.service.Invite(r.Context(), companyUID, invitedBy, req.Email, req.Role)
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("email is already registered"))
		return
	case err != nil:
		log.Error("failed to create invitation", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("invitation created", slog.String("role", req.Role))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "invitation sent",
	}))
}
