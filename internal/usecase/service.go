package usecase

import (
	"payment-portal/internal/data/repository"
	"payment-portal/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth      AuthService
	User      UserService
	Payment   PaymentService
	Dashboard DashboardService
}

func NewService(
	repo *repository.Repository,
	gateway PaymentGateway,
	dedup EventDeduper,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:      NewAuthService(repo, config, log),
		User:      NewUserService(repo.User, log),
		Payment:   NewPaymentService(repo, gateway, dedup, log),
		Dashboard: NewDashboardService(repo.Payment, log),
	}
}
