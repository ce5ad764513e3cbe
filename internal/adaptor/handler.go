package adaptor

import (
	"payment-portal/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth      *AuthHandler
	User      *UserHandler
	Payment   *PaymentHandler
	Dashboard *DashboardHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(service.Auth, log),
		User:      NewUserHandler(service.User, log),
		Payment:   NewPaymentHandler(service.Payment, log),
		Dashboard: NewDashboardHandler(service.Dashboard, log),
	}
}
