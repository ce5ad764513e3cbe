package adaptor

import (
	"net/http"

	"payment-portal/internal/usecase"
	"payment-portal/pkg/utils"

	"go.uber.org/zap"
)

type DashboardHandler struct {
	service usecase.DashboardService
	log     *zap.Logger
}

func NewDashboardHandler(service usecase.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		log:     log,
	}
}

// Dashboard handles GET /api/dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	recent, err := h.service.Recent(r.Context(), userID)
	if err != nil {
		h.log.Error("Failed to load dashboard", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseSuccess(w, "Dashboard retrieved successfully", map[string]any{
		"recent_payments": recent,
	})
}
