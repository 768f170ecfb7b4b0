package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	service "github.com/aaravmahajanofficial/textile-storefront/internal/services"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type AccountHandler struct {
	sessions  SessionProvider
	accounts  *service.AccountService
	validator *validator.Validate
}

func NewAccountHandler(sessions SessionProvider, accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{sessions: sessions, accounts: accounts, validator: validator.New()}
}

func accountView(sess *service.Session) models.AccountResponse {
	return models.AccountResponse{
		State:   string(sess.Account.State()),
		Loading: sess.Account.Loading(),
		User:    sess.Account.Profile(),
	}
}

func (h *AccountHandler) GetAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		response.Success(w, http.StatusOK, accountView(sess))
	}
}

func (h *AccountHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		resp, err := h.accounts.Login(r.Context(), sess, &req)

		if err != nil {
			logger.Error("Login failed", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if !resp.Success {
			status := http.StatusUnauthorized
			if resp.RetryAfter > 0 {
				status = http.StatusTooManyRequests
				w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
			}

			logger.Warn("Login rejected", slog.String("reason", resp.Message))
			response.WriteJson(w, status, resp)
			return
		}

		logger.Info("User logged in", slog.String("userId", resp.User.ID))
		response.WriteJson(w, http.StatusOK, resp)
	}
}

func (h *AccountHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.ProfileDraft

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		resp, err := h.accounts.Register(r.Context(), sess, &req)

		if err != nil {
			logger.Error("User registration failed", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if !resp.Success {
			logger.Warn("User registration rejected", slog.String("reason", resp.Message))
			response.WriteJson(w, http.StatusServiceUnavailable, resp)
			return
		}

		logger.Info("User registered", slog.String("userId", resp.User.ID))
		response.WriteJson(w, http.StatusCreated, resp)
	}
}

func (h *AccountHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		if err := sess.Account.Logout(r.Context()); err != nil {
			logger.Error("Logout failed", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("User logged out")
		response.Success(w, http.StatusOK, accountView(sess))
	}
}

// UpdateProfile merges the supplied fields into the signed-in profile.
func (h *AccountHandler) UpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.ProfileUpdate

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		if _, err := sess.Account.UpdateProfile(r.Context(), &req); err != nil {
			logger.Error("Profile update failed", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, accountView(sess))
	}
}
