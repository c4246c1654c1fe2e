package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/common/logger"
	"github.com/imam0321/bistro-boss-server/models"
	awspkg "github.com/imam0321/bistro-boss-server/pkg/aws"
	"github.com/imam0321/bistro-boss-server/repository"
)

// EventTypePaymentRecorded is the type of the event published after a
// payment has been stored.
const EventTypePaymentRecorded = "payment_recorded"

const (
	// cleanupTimeout bounds the cart purge that follows a stored payment.
	cleanupTimeout = 10 * time.Second
	// sideEffectTimeout bounds each metric or event sent after a request.
	sideEffectTimeout = 5 * time.Second
)

// MetricsRecorder is the subset of the CloudWatch metrics client used by
// the services.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
}

type PaymentService interface {
	CreateIntent(ctx context.Context, price float64) (string, error)
	RecordPayment(ctx context.Context, payment *models.Payment) (*models.PaymentReceipt, error)
	ReconcileCartCleanup(ctx context.Context) (int, error)
	ListPayments(ctx context.Context, email string) ([]models.Payment, error)
}

type PaymentConfig struct {
	Currency string
	TopicARN string // SNS topic for payment events; empty disables publishing
}

type paymentService struct {
	payments  repository.PaymentRepository
	carts     repository.CartRepository
	processor PaymentProcessor
	events    awspkg.SNSPublisher
	metrics   MetricsRecorder
	cfg       PaymentConfig
	log       *zap.Logger

	// inflight tracks metrics and events still being sent.
	inflight sync.WaitGroup
}

// NewPaymentService wires the payment flow. events and metrics may be nil.
func NewPaymentService(
	payments repository.PaymentRepository,
	carts repository.CartRepository,
	processor PaymentProcessor,
	events awspkg.SNSPublisher,
	metrics MetricsRecorder,
	cfg PaymentConfig,
	log *zap.Logger,
) PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &paymentService{
		payments:  payments,
		carts:     carts,
		processor: processor,
		events:    events,
		metrics:   metrics,
		cfg:       cfg,
		log:       log,
	}
}

// ToMinorUnits converts a decimal price to cents, truncating fractions of a
// cent. The small epsilon keeps values like 19.99 from landing on 1998.
func ToMinorUnits(price float64) int64 {
	return int64(math.Floor(price*100 + 1e-6))
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *paymentService) CreateIntent(ctx context.Context, price float64) (string, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return "", apperrors.BadRequest("price must be a positive number", nil)
	}
	amount := ToMinorUnits(price)
	if amount < 1 {
		return "", apperrors.BadRequest("price must be at least one minor unit", nil)
	}

	clientSecret, err := s.processor.CreateCardIntent(ctx, amount, s.cfg.Currency)
	if err != nil {
		return "", apperrors.Upstream("payment processor unavailable", err)
	}

	s.count(ctx, awspkg.MetricPaymentIntents, nil)
	logger.Info(ctx, "payment intent created", zap.Int64("amount", amount), zap.String("currency", s.cfg.Currency))
	return clientSecret, nil
}

// RecordPayment stores the payment as pending cleanup, purges the owner's
// cart entries it consumed and then marks it done. A failed purge leaves
// the record pending for ReconcileCartCleanup and is not reported as an
// error, because the charge has already happened.
func (s *paymentService) RecordPayment(ctx context.Context, payment *models.Payment) (*models.PaymentReceipt, error) {
	if payment.Email == "" {
		return nil, apperrors.BadRequest("email is required", nil)
	}
	if math.IsNaN(payment.Price) || math.IsInf(payment.Price, 0) || payment.Price < 0 {
		return nil, apperrors.BadRequest("price must be a non-negative number", nil)
	}

	payment.Price = Round2(payment.Price)
	if payment.Date.IsZero() {
		payment.Date = time.Now().UTC()
	}
	if payment.CartItems == nil {
		payment.CartItems = []primitive.ObjectID{}
	}
	if payment.MenuItems == nil {
		payment.MenuItems = []primitive.ObjectID{}
	}
	payment.CartCleanup = models.CartCleanupPending

	insertResult, err := s.payments.Create(ctx, payment)
	if err != nil {
		return nil, err
	}

	receipt := &models.PaymentReceipt{
		InsertResult: insertResult,
		CartCleanup:  models.CartCleanupPending,
	}

	// The purge outlives a client that disconnects after the insert.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	deleteResult, err := s.purgeCart(cleanupCtx, payment)
	if deleteResult != nil {
		receipt.DeleteResult = deleteResult
	}
	if err != nil {
		logger.Error(ctx, "cart cleanup left pending", err,
			zap.String("payment_id", payment.ID.Hex()),
			zap.String("email", payment.Email),
		)
		s.count(ctx, awspkg.MetricCartPurgeFailed, nil)
	} else {
		receipt.CartCleanup = models.CartCleanupDone
		payment.CartCleanup = models.CartCleanupDone
	}

	s.count(ctx, awspkg.MetricPaymentRecorded, nil)
	s.value(ctx, awspkg.MetricPaymentRevenue, payment.Price, nil)
	s.publish(ctx, payment)

	return receipt, nil
}

// purgeCart deletes the payment's cart entries and flips the record to done.
// The delete result is returned even when only the final update failed.
func (s *paymentService) purgeCart(ctx context.Context, payment *models.Payment) (*models.DeleteResult, error) {
	deleteResult, err := s.carts.DeleteOwned(ctx, payment.Email, payment.CartItems)
	if err != nil {
		return nil, err
	}
	if err := s.payments.SetCartCleanup(ctx, payment.ID, models.CartCleanupDone); err != nil {
		return deleteResult, err
	}
	return deleteResult, nil
}

// ReconcileCartCleanup retries the cart purge of every payment still
// pending. It makes a single pass and returns how many records it settled.
func (s *paymentService) ReconcileCartCleanup(ctx context.Context) (int, error) {
	pending, err := s.payments.FindPendingCleanup(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	settled := 0
	for i := range pending {
		p := &pending[i]
		if _, err := s.purgeCart(ctx, p); err != nil {
			errs = append(errs, err)
			continue
		}
		settled++
	}

	if settled > 0 {
		s.log.Info("reconciled pending cart cleanups", zap.Int("settled", settled), zap.Int("pending", len(pending)))
		s.value(ctx, awspkg.MetricCartsReconciled, float64(settled), nil)
	}
	return settled, errors.Join(errs...)
}

func (s *paymentService) ListPayments(ctx context.Context, email string) ([]models.Payment, error) {
	return s.payments.FindByEmail(ctx, email)
}

// detach runs fn off the request path with the request's values but not its
// cancellation, bounded by sideEffectTimeout.
func (s *paymentService) detach(ctx context.Context, fn func(ctx context.Context)) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
		defer cancel()
		fn(bg)
	}()
}

func (s *paymentService) count(ctx context.Context, metric string, dims map[string]string) {
	if s.metrics == nil {
		return
	}
	s.detach(ctx, func(ctx context.Context) {
		s.metricFailed(ctx, metric, s.metrics.RecordCount(ctx, metric, dims))
	})
}

func (s *paymentService) value(ctx context.Context, metric string, v float64, dims map[string]string) {
	if s.metrics == nil {
		return
	}
	s.detach(ctx, func(ctx context.Context) {
		s.metricFailed(ctx, metric, s.metrics.RecordValue(ctx, metric, v, dims))
	})
}

func (s *paymentService) metricFailed(ctx context.Context, metric string, err error) {
	if err != nil {
		logger.Warn(ctx, "failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}

// publish sends a payment_recorded event in the background. Failures are
// logged only.
func (s *paymentService) publish(ctx context.Context, payment *models.Payment) {
	if s.events == nil || s.cfg.TopicARN == "" {
		return
	}

	event := models.PaymentEvent{
		ID:            uuid.NewString(),
		Type:          EventTypePaymentRecorded,
		PaymentID:     payment.ID.Hex(),
		Email:         payment.Email,
		TransactionID: payment.TransactionID,
		Price:         payment.Price,
		Items:         len(payment.CartItems),
		Timestamp:     time.Now().UTC(),
	}
	msg, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx, "failed to marshal payment event", err)
		return
	}
	s.detach(ctx, func(ctx context.Context) {
		if err := s.events.Publish(ctx, s.cfg.TopicARN, msg); err != nil {
			logger.Error(ctx, "failed to publish payment event", err, zap.String("payment_id", event.PaymentID))
		}
	})
}
