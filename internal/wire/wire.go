// internal/wire/wire.go
package wire

import (
	"net/http"

	"payment-portal/internal/adaptor"
	"payment-portal/internal/data/repository"
	"payment-portal/internal/usecase"
	"payment-portal/pkg/middleware"
	"payment-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired dependencies
type App struct {
	Router *chi.Mux
}

// Wiring initializes services, handlers and the router
func Wiring(
	repo *repository.Repository,
	gateway usecase.PaymentGateway,
	dedup usecase.EventDeduper,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, gateway, dedup, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router: router,
	}
}

// setupRouter configures the Chi router
func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wireAuth(r, handler.Auth, repo, logger)
	wireUser(r, handler.User, repo, logger)
	wirePayment(r, handler.Payment, handler.Dashboard, repo, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
