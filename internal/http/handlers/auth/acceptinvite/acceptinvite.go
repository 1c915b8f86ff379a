// Package acceptinvite реализует HTTP-обработчик принятия приглашения
// в компанию по токену из письма.
package acceptinvite

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

// Request — входные данные для принятия приглашения
type Request struct {
	Token    string `json:"token" validate:"required"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Service описывает интерфейс бизнес-логики принятия приглашения.
type Service interface {
	AcceptInvite(ctx context.Context, token, name, rawPassword string) (string, error)
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
	const op = "handlers.auth.acceptinvite"

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

	userUID, err := h.service.AcceptInvite(r.Context(), req.Token, req.Name, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvitationInvalid):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invitation is invalid"))
		return
	case errors.Is(err, auth.ErrInvitationUsed):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invitation has already been used"))
		return
	case errors.Is(err, auth.ErrInvitationExpired):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invitation has expired"))
		return
	case err != nil:
		log.Error("failed to accept invitation", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("invitation accepted", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid": userUID,
		"message":  "account created",
	}))
}
