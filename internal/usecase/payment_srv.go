package usecase

import (
	"context"
	"fmt"
	"time"

	"payment-portal/internal/data/entity"
	"payment-portal/internal/data/repository"
	"payment-portal/internal/dto/request"
	"payment-portal/internal/dto/response"
	"payment-portal/internal/gateway"
	"payment-portal/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultCurrency = "USD"

var (
	minAmount  = decimal.RequireFromString("0.01")
	minorUnits = decimal.NewFromInt(100)
)

// PaymentGateway is the slice of the Stripe client the service needs
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*gateway.Intent, error)
	ConstructEvent(payload []byte, sigHeader string) (*gateway.Event, error)
}

// EventDeduper short-circuits webhook deliveries that were already handled.
// Best effort: when it errors the delivery is processed anyway, and the
// conditional repository updates keep the outcome correct.
type EventDeduper interface {
	Once(ctx context.Context, eventID string) (bool, error)
}

type PaymentService interface {
	Initiate(ctx context.Context, userID uuid.UUID, req *request.InitiatePaymentRequest) (*response.InitiatePaymentResponse, error)
	HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error
	GetPayment(ctx context.Context, userID uuid.UUID, paymentID string) (*response.PaymentDetailResponse, error)
	ListPayments(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PaymentResponse], error)
}

type paymentService struct {
	repo    *repository.Repository
	gateway PaymentGateway
	dedup   EventDeduper
	log     *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	gw PaymentGateway,
	dedup EventDeduper,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:    repo,
		gateway: gw,
		dedup:   dedup,
		log:     log,
	}
}

func (s *paymentService) Initiate(ctx context.Context, userID uuid.UUID, req *request.InitiatePaymentRequest) (*response.InitiatePaymentResponse, error) {
	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Initiate payment validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	amount, err := s.parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	// 2. Load user for intent metadata
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to load user for payment", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load user")
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	// 3. Request intent from the gateway in minor units. No payment row
	// exists yet, so a gateway failure leaves nothing behind.
	amountMinor := amount.Mul(minorUnits).IntPart()
	intent, err := s.gateway.CreateIntent(ctx, amountMinor, "usd", map[string]string{
		"user_id": user.ID.String(),
		"email":   user.Email,
	})
	if err != nil {
		s.log.Error("Failed to create payment intent",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("amount", amount.StringFixed(2)),
		)
		return nil, fmt.Errorf("payment gateway: %w", err)
	}

	// 4. Persist the pending payment referencing the intent
	now := time.Now()
	payment := &entity.Payment{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:                user.ID,
		Amount:                amount,
		Currency:              defaultCurrency,
		Status:                entity.PaymentStatusPending,
		StripePaymentIntentID: &intent.ID,
	}

	if err := s.repo.Payment.Create(ctx, payment); err != nil {
		s.log.Error("Failed to create payment", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to create payment")
	}

	s.log.Info("Payment initiated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("intent_id", intent.ID),
	)

	return &response.InitiatePaymentResponse{
		ClientSecret: intent.ClientSecret,
		PaymentID:    payment.ID.String(),
	}, nil
}

// parseAmount validates the amount format: positive decimal, at most 2
// fractional digits, minimum 0.01
func (s *paymentService) parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("validation failed: Amount: must be a decimal number")
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, fmt.Errorf("validation failed: Amount: at most 2 decimal places allowed")
	}
	if amount.LessThan(minAmount) {
		return decimal.Zero, fmt.Errorf("validation failed: Amount: must be at least 0.01")
	}
	return amount, nil
}

// HandleWebhookEvent verifies and dispatches a webhook delivery. Signature
// and payload failures come back wrapping the gateway sentinel errors so the
// handler can reject with a client error; everything else is acknowledged,
// including events that reference no known payment.
func (s *paymentService) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		s.log.Warn("Webhook rejected", zap.Error(err))
		return err
	}

	if s.dedup != nil && event.ID != "" {
		first, err := s.dedup.Once(ctx, event.ID)
		if err != nil {
			// cache down; fall through, the store guards are authoritative
			s.log.Warn("Event dedup unavailable", zap.Error(err), zap.String("event_id", event.ID))
		} else if !first {
			s.log.Debug("Duplicate webhook delivery skipped", zap.String("event_id", event.ID))
			return nil
		}
	}

	switch event.Type {
	case gateway.EventPaymentIntentSucceeded:
		return s.handleIntentSucceeded(ctx, event)
	case gateway.EventPaymentIntentFailed:
		return s.handleIntentFailed(ctx, event)
	case gateway.EventChargeSucceeded:
		return s.handleChargeSucceeded(ctx, event)
	default:
		s.log.Debug("Ignoring webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

// handleIntentSucceeded moves the payment to completed and appends exactly
// one payment transaction
func (s *paymentService) handleIntentSucceeded(ctx context.Context, event *gateway.Event) error {
	intent, err := event.PaymentIntent()
	if err != nil {
		return err
	}

	payment, err := s.repo.Payment.MarkCompleted(ctx, intent.ID)
	if err != nil {
		return fmt.Errorf("complete payment for intent %s: %w", intent.ID, err)
	}

	if payment == nil {
		// nothing transitioned: unknown intent or duplicate delivery
		return s.reconcileCompleted(ctx, intent)
	}

	if err := s.appendPaymentTransaction(ctx, payment, chargeRef(intent)); err != nil {
		return err
	}

	s.log.Info("Payment completed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("intent_id", intent.ID),
	)
	return nil
}

// reconcileCompleted handles an intent success that did not transition any
// row. An unknown intent is a reconciliation gap to log and acknowledge. An
// already-completed payment is a duplicate delivery; the transaction is
// appended only if a previous delivery crashed between the transition and
// the append.
func (s *paymentService) reconcileCompleted(ctx context.Context, intent *gateway.PaymentIntent) error {
	payment, err := s.repo.Payment.FindByIntentID(ctx, intent.ID)
	if err != nil {
		return fmt.Errorf("reconcile intent %s: %w", intent.ID, err)
	}

	if payment == nil {
		s.log.Warn("No payment found for intent", zap.String("intent_id", intent.ID))
		return nil
	}

	if payment.Status != entity.PaymentStatusCompleted {
		s.log.Warn("Ignoring intent success for terminal payment",
			zap.String("payment_id", payment.ID.String()),
			zap.String("status", string(payment.Status)),
		)
		return nil
	}

	exists, err := s.repo.Transaction.ExistsByPaymentAndType(ctx, payment.ID, entity.TransactionTypePayment)
	if err != nil {
		return fmt.Errorf("reconcile intent %s: %w", intent.ID, err)
	}
	if exists {
		s.log.Debug("Duplicate intent success ignored", zap.String("payment_id", payment.ID.String()))
		return nil
	}

	return s.appendPaymentTransaction(ctx, payment, chargeRef(intent))
}

func (s *paymentService) appendPaymentTransaction(ctx context.Context, payment *entity.Payment, chargeID string) error {
	txn := &entity.Transaction{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		PaymentID:           payment.ID,
		TransactionType:     entity.TransactionTypePayment,
		Amount:              payment.Amount,
		StripeTransactionID: chargeID,
	}

	if err := s.repo.Transaction.Create(ctx, txn); err != nil {
		return fmt.Errorf("record transaction for payment %s: %w", payment.ID.String(), err)
	}
	return nil
}

func (s *paymentService) handleIntentFailed(ctx context.Context, event *gateway.Event) error {
	intent, err := event.PaymentIntent()
	if err != nil {
		return err
	}

	applied, err := s.repo.Payment.MarkFailed(ctx, intent.ID)
	if err != nil {
		return fmt.Errorf("fail payment for intent %s: %w", intent.ID, err)
	}

	if !applied {
		// unknown intent or payment already terminal; acknowledge either way
		s.log.Warn("No pending payment to fail for intent", zap.String("intent_id", intent.ID))
		return nil
	}

	s.log.Info("Payment failed", zap.String("intent_id", intent.ID))
	return nil
}

// handleChargeSucceeded records the charge reference. It only touches the
// field it owns, so arriving before the intent outcome is harmless.
func (s *paymentService) handleChargeSucceeded(ctx context.Context, event *gateway.Event) error {
	charge, err := event.Charge()
	if err != nil {
		return err
	}

	if charge.PaymentIntent == "" {
		s.log.Warn("Charge without intent reference", zap.String("charge_id", charge.ID))
		return nil
	}

	found, err := s.repo.Payment.SetChargeID(ctx, charge.PaymentIntent, charge.ID)
	if err != nil {
		return fmt.Errorf("set charge for intent %s: %w", charge.PaymentIntent, err)
	}

	if !found {
		s.log.Warn("No payment found for charge",
			zap.String("charge_id", charge.ID),
			zap.String("intent_id", charge.PaymentIntent),
		)
		return nil
	}

	s.log.Info("Charge recorded",
		zap.String("charge_id", charge.ID),
		zap.String("intent_id", charge.PaymentIntent),
	)
	return nil
}

// chargeRef picks the external reference for the payment transaction: the
// first charge when the intent carries one, the intent itself otherwise
func chargeRef(intent *gateway.PaymentIntent) string {
	if len(intent.Charges.Data) > 0 {
		return intent.Charges.Data[0].ID
	}
	return intent.ID
}

func (s *paymentService) GetPayment(ctx context.Context, userID uuid.UUID, paymentID string) (*response.PaymentDetailResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		s.log.Warn("Invalid payment ID", zap.String("payment_id", paymentID), zap.Error(err))
		return nil, fmt.Errorf("invalid payment ID")
	}

	payment, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to find payment", zap.Error(err), zap.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to get payment")
	}
	// ownership check folded into not-found so payment IDs don't leak
	if payment == nil || payment.UserID != userID {
		return nil, fmt.Errorf("payment not found")
	}

	transactions, err := s.repo.Transaction.FindByPaymentID(ctx, payment.ID)
	if err != nil {
		s.log.Error("Failed to load transactions", zap.Error(err), zap.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to get payment")
	}

	detail := &response.PaymentDetailResponse{
		PaymentResponse: response.PaymentToResponse(payment),
		Transactions:    make([]response.TransactionResponse, 0, len(transactions)),
	}
	for _, txn := range transactions {
		detail.Transactions = append(detail.Transactions, response.TransactionToResponse(txn))
	}

	return detail, nil
}

func (s *paymentService) ListPayments(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PaymentResponse], error) {
	// Set defaults
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = 10
	}
	if req.PerPage > 100 {
		req.PerPage = 100
	}

	payments, err := s.repo.Payment.FindByUserID(ctx, userID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list payments", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list payments")
	}

	total, err := s.repo.Payment.CountByUserID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to count payments", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list payments")
	}

	items := make([]response.PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		items = append(items, response.PaymentToResponse(payment))
	}

	return response.NewPaginatedResponse(items, req.Page, req.PerPage, total), nil
}
