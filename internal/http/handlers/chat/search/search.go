// Package search реализует HTTP-обработчик семантического поиска
// по базе знаний компании.
package search

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
	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/services/chat"
)

// Request — входные данные поискового запроса
type Request struct {
	Question  string `json:"question" validate:"required,min=2,max=2000"`
	ChatbotID string `json:"chatbot_id" validate:"required,uuid"`
	Limit     int    `json:"limit" validate:"omitempty,min=1,max=20"`
}

// Service описывает интерфейс бизнес-логики поиска.
type Service interface {
	Search(ctx context.Context, companyUID, chatbotID, query string, limit int) ([]*models.SearchResult, error)
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
// @Summary Поиск по базе знаний
// @Description Ищет фрагменты базы знаний, релевантные вопросу пользователя.
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body Request true "Вопрос"
// @Success 200 {object} response.Response "Найденные фрагменты"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /chat/search [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.search"

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

	results, err := h.service.Search(r.Context(), companyUID, req.ChatbotID, req.Question, req.Limit)
	switch {
	case errors.Is(err, chat.ErrUnknownChatbot):
		log.Warn("unknown chatbot id", slog.String("chatbot_id", req.ChatbotID))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown chatbot"))
		return
	case err != nil:
		log.Error("search failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("search completed", slog.Int("results", len(results)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"results_count": len(results),
		"results":       results,
	}))
}
