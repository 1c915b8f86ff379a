// Package sync реализует HTTP-обработчик сверки состояния подписки
// с платёжным провайдером.
package sync

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
	"github.com/ainexo/declair/internal/services/billing"
)

// Service описывает интерфейс бизнес-логики сверки подписки.
type Service interface {
	Sync(ctx context.Context, userUID string) (*models.SubscriptionState, error)
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

// ServeHTTP godoc
// @Summary Сверить подписку с платёжным провайдером
// @Description Запрашивает актуальное состояние подписки у Stripe и сохраняет его.
// @Tags Billing
// @Produce json
// @Success 200 {object} response.Response "Актуальное состояние подписки"
// @Failure 400 {object} response.ErrorResponse "Цена не сопоставлена с тарифом"
// @Failure 404 {object} response.ErrorResponse "Клиент или подписка не найдены"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /billing/sync [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.sync"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	state, err := h.service.Sync(r.Context(), userUID)
	switch {
	case errors.Is(err, billing.ErrNoCustomer):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("no billing customer on file"))
		return
	case errors.Is(err, billing.ErrNoSubscription):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("no subscription found"))
		return
	case errors.Is(err, billing.ErrUnknownPrice):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("subscription price is not mapped to any plan"))
		return
	case errors.Is(err, billing.ErrBadDates):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("subscription dates are not parseable"))
		return
	case err != nil:
		log.Error("failed to sync subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("subscription synced", slog.String("status", state.Status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status":     state.Status,
		"plan":       state.Plan,
		"start_date": state.StartDate,
		"end_date":   state.EndDate,
		"canceled":   state.Canceled,
	}))
}
