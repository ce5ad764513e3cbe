package wire

import (
	"payment-portal/internal/adaptor"
	"payment-portal/internal/data/repository"
	"payment-portal/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	dashboardHandler *adaptor.DashboardHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/payments", func(r chi.Router) {
		// Webhook is called by the payment processor, not by users; it
		// carries its own signature instead of a session token
		r.Post("/webhook", paymentHandler.Webhook)

		// User-facing payment routes require authentication
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthSession(repo.Session, log))
			r.Post("/", paymentHandler.Initiate)
			r.Get("/", paymentHandler.ListPayments)
			r.Get("/{id}", paymentHandler.GetPayment)
		})
	})

	r.With(middleware.AuthSession(repo.Session, log)).Get("/api/dashboard", dashboardHandler.Dashboard)
}
