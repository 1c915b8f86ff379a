// Package settingsread реализует HTTP-обработчик чтения настроек чат-бота.
package settingsread

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики чтения настроек.
type Service interface {
	Read(ctx context.Context, companyUID string) (*models.ChatbotSettings, error)
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
	const op = "handlers.chatbot.settingsread"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	companyUID, ok := r.Context().Value(middlewarectx.CompanyUID).(string)
	if !ok || companyUID == "" {
		log.Error("company identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	settings, err := h.service.Read(r.Context(), companyUID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("settings not found"))
		return
	case err != nil:
		log.Error("failed to read settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(settings))
}
