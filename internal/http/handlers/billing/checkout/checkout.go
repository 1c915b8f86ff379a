// Package checkout реализует HTTP-обработчик создания сессии оплаты
// для перехода на тарифный план.
package checkout

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
	"github.com/ainexo/declair/internal/services/billing"
)

// Request — входные данные для создания сессии оплаты
type Request struct {
	Plan       string `json:"plan" validate:"required,oneof=starter professional enterprise"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`
}

// Service описывает интерфейс бизнес-логики оплаты.
type Service interface {
	CreateCheckout(ctx context.Context, userUID, plan, successURL, cancelURL string) (string, error)
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
	const op = "handlers.billing.checkout"

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

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	url, err := h.service.CreateCheckout(r.Context(), userUID, req.Plan, req.SuccessURL, req.CancelURL)
	switch {
	case errors.Is(err, billing.ErrNoCustomer):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("no billing customer on file"))
		return
	case errors.Is(err, billing.ErrUnknownPrice):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("plan is not available"))
		return
	case err != nil:
		log.Error("failed to create checkout session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("checkout session created", slog.String("plan", req.Plan))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"checkout_url": url,
	}))
}
