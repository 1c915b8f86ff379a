// Package settingsupdate реализует HTTP-обработчик обновления настроек чат-бота.
package settingsupdate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/models"
)

// Service описывает интерфейс бизнес-логики обновления настроек.
type Service interface {
	Update(ctx context.Context, companyUID string, req models.DummyChatbotSettings) (int, error)
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
	const op = "handlers.chatbot.settingsupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyChatbotSettings
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

	count, err := h.service.Update(r.Context(), companyUID, req)
	if err != nil {
		log.Error("failed to update settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update settings"))
		return
	}
	if count == 0 {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("settings not found"))
		return
	}

	log.Info("chatbot settings updated")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated_count": count,
	}))
}
