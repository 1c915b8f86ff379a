// Package fileupload реализует HTTP-обработчик загрузки файла
// в базу знаний компании. Файл принимается как multipart/form-data
// в поле "file".
package fileupload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/http/response"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/services/knowledge"
)

// maxUploadBytes предел размера тела запроса загрузки.
const maxUploadBytes = 12 << 20

// Service описывает интерфейс бизнес-логики загрузки файла.
type Service interface {
	UploadFile(ctx context.Context, companyUID, fileName string, data []byte) (int, error)
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
	const op = "handlers.knowledge.fileupload"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Error("file field is missing", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("file field is required"))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("failed to read file content", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read file"))
		return
	}

	companyUID, ok := r.Context().Value(middlewarectx.CompanyUID).(string)
	if !ok || companyUID == "" {
		log.Error("company identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := h.service.UploadFile(r.Context(), companyUID, header.Filename, data)
	switch {
	case errors.Is(err, knowledge.ErrUnsupportedFileType):
		log.Warn("unsupported file type", slog.String("file_name", header.Filename))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unsupported file type"))
		return
	case err != nil:
		log.Error("failed to upload file", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not upload file"))
		return
	}

	log.Info("file uploaded", slog.Int("id", id),
		slog.String("file_name", header.Filename))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}
