package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type PaymentMethodsHandler struct {
	sessions  SessionProvider
	validator *validator.Validate
}

func NewPaymentMethodsHandler(sessions SessionProvider) *PaymentMethodsHandler {
	return &PaymentMethodsHandler{sessions: sessions, validator: validator.New()}
}

func cardViews(cards []models.SavedCard) []models.SavedCardView {
	views := make([]models.SavedCardView, len(cards))
	for i, c := range cards {
		views[i] = c.View()
	}
	return views
}

func (h *PaymentMethodsHandler) ListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		response.Success(w, http.StatusOK, cardViews(sess.PaymentMethods.List()))
	}
}

func (h *PaymentMethodsHandler) AddCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.AddCardRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		card, err := sess.PaymentMethods.Add(req)
		if err != nil {
			response.Error(w, err)
			return
		}

		middleware.LoggerFromContext(r.Context()).Info("Card saved", slog.String("cardId", card.ID))
		response.Success(w, http.StatusCreated, card.View())
	}
}

func (h *PaymentMethodsHandler) RemoveCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		cardID := r.PathValue("id")

		sess.PaymentMethods.Remove(cardID)

		middleware.LoggerFromContext(r.Context()).Info("Card removed", slog.String("cardId", cardID))
		response.Success(w, http.StatusOK, cardViews(sess.PaymentMethods.List()))
	}
}
