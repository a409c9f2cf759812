package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uninest/backend/internal/services"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps account administration methods.
type AdminService interface {
	// Method SetActive deactivates or reactivates an account.
	//
	// Returns services.ErrAccountNotFound if no account has this ID.
	SetActive(ctx context.Context, accountID string, active bool) error
}

// AdminHandler handles account administration requests
type AdminHandler struct {
	BaseHandler
	adminService AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, logger *zap.Logger, development bool) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger, Development: development},
		adminService: adminService,
	}
}

// RegisterRoutes registers all admin handler routes.
// The caller is responsible for guarding them with the API key middleware.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/accounts/{id}", func(r chi.Router) {
		r.Post("/deactivate", h.Deactivate)
		r.Post("/activate", h.Activate)
	})
}

// Deactivate handles POST /admin/accounts/{id}/deactivate
// @Summary Deactivate account
// @Description Block login and token verification for the account. Issued tokens stop verifying immediately.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]string "Account deactivated"
// @Failure 401 {object} map[string]string "Invalid or missing API key"
// @Failure 404 {object} map[string]string "User not found"
// @Router /admin/accounts/{id}/deactivate [post]
func (h *AdminHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// Activate handles POST /admin/accounts/{id}/activate
// @Summary Activate account
// @Description Re-enable a previously deactivated account.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]string "Account activated"
// @Failure 401 {object} map[string]string "Invalid or missing API key"
// @Failure 404 {object} map[string]string "User not found"
// @Router /admin/accounts/{id}/activate [post]
func (h *AdminHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *AdminHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	accountID := chi.URLParam(r, "id")

	if err := h.adminService.SetActive(r.Context(), accountID, active); err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			h.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.RespondServerError(w, "Failed to update account status", err, nil)
		return
	}

	message := "Account deactivated"
	if active {
		message = "Account activated"
	}
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": message})
}
