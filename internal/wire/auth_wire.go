package wire

import (
	"payment-portal/internal/adaptor"
	"payment-portal/internal/data/repository"
	"payment-portal/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Public routes (no auth middleware)
	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)

	// Logout needs a valid session
	r.With(middleware.AuthSession(repo.Session, log)).Post("/api/logout", authHandler.Logout)
}
