package repository

import (
	"payment-portal/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User        UserRepository
	Session     SessionRepository
	Payment     PaymentRepository
	Transaction TransactionRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:        NewUserRepository(db, log),
		Session:     NewSessionRepository(db, log),
		Payment:     NewPaymentRepository(db, log),
		Transaction: NewTransactionRepository(db, log),
	}
}
