// Package faqremove реализует HTTP-обработчик удаления пары вопрос-ответ.
package faqremove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики удаления FAQ.
type Service interface {
	RemoveFAQ(ctx context.Context, companyUID string, id int) (int, error)
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
	const op = "handlers.knowledge.faqremove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid id format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	companyUID, ok := r.Context().Value(middlewarectx.CompanyUID).(string)
	if !ok || companyUID == "" {
		log.Error("company identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	count, err := h.service.RemoveFAQ(r.Context(), companyUID, id)
	if err != nil {
		log.Error("failed to delete faq", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not delete faq"))
		return
	}
	if count == 0 {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("faq not found"))
		return
	}

	log.Info("faq deleted", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_count": count,
	}))
}
