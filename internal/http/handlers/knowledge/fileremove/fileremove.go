// Package fileremove реализует HTTP-обработчик удаления файла
// из базы знаний вместе с содержимым и поисковым индексом.
package fileremove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики удаления файла.
type Service interface {
	RemoveFile(ctx context.Context, companyUID string, id int) error
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
	const op = "handlers.knowledge.fileremove"

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

	err = h.service.RemoveFile(r.Context(), companyUID, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("file not found"))
		return
	case err != nil:
		log.Error("failed to delete file", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not delete file"))
		return
	}

	log.Info("file deleted", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "file deleted",
	}))
}
