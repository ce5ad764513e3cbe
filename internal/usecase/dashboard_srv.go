package usecase

import (
	"context"
	"fmt"

	"payment-portal/internal/data/repository"
	"payment-portal/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recentPaymentsLimit caps the dashboard listing
const recentPaymentsLimit = 5

type DashboardService interface {
	Recent(ctx context.Context, userID uuid.UUID) ([]response.PaymentResponse, error)
}

type dashboardService struct {
	paymentRepo repository.PaymentRepository
	log         *zap.Logger
}

func NewDashboardService(paymentRepo repository.PaymentRepository, log *zap.Logger) DashboardService {
	return &dashboardService{
		paymentRepo: paymentRepo,
		log:         log,
	}
}

func (s *dashboardService) Recent(ctx context.Context, userID uuid.UUID) ([]response.PaymentResponse, error) {
	payments, err := s.paymentRepo.FindByUserID(ctx, userID, recentPaymentsLimit, 0)
	if err != nil {
		s.log.Error("Failed to load recent payments", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load dashboard")
	}

	items := make([]response.PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		items = append(items, response.PaymentToResponse(payment))
	}

	return items, nil
}
