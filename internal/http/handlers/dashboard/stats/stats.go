// Package stats реализует HTTP-обработчик сводной статистики дашборда.
package stats

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/services/dashboard"
)

// Service описывает интерфейс бизнес-логики статистики.
type Service interface {
	Stats(ctx context.Context, companyUID string, days int) (*dashboard.Stats, error)
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
	const op = "handlers.dashboard.stats"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		days = 0 // сервис подставит окно по умолчанию
	}

	companyUID, ok := r.Context().Value(middlewarectx.CompanyUID).(string)
	if !ok || companyUID == "" {
		log.Error("company identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	stats, err := h.service.Stats(r.Context(), companyUID, days)
	if err != nil {
		log.Error("failed to count stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(stats))
}
