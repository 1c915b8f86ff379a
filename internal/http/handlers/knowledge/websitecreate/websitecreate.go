// Package websitecreate реализует HTTP-обработчик добавления страницы
// сайта в базу знаний компании.
package websitecreate

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

// Service описывает интерфейс бизнес-логики добавления страницы.
type Service interface {
	CreateWebsite(ctx context.Context, companyUID string, req models.DummyWebsite) (int, error)
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

// ServeHTTP godoc
// @Summary Добавить страницу сайта
// @Description Сохраняет страницу в базу знаний и индексирует её содержимое для поиска.
// @Tags Knowledge
// @Accept json
// @Produce json
// @Param request body models.DummyWebsite true "Данные страницы"
// @Success 200 {object} response.Response "ID созданной записи"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /knowledge/websites [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.knowledge.websitecreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyWebsite
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

	id, err := h.service.CreateWebsite(r.Context(), companyUID, req)
	if err != nil {
		log.Error("failed to create website", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create website"))
		return
	}

	log.Info("website created", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}
