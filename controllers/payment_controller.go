package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/common/logger"
	"github.com/imam0321/bistro-boss-server/middleware"
	"github.com/imam0321/bistro-boss-server/models"
	"github.com/imam0321/bistro-boss-server/services"
)

type PaymentController struct {
	payments services.PaymentService
}

func NewPaymentController(payments services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

func (p *PaymentController) CreatePaymentIntent(c *gin.Context) {
	var req models.PaymentIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	clientSecret, err := p.payments.CreateIntent(c.Request.Context(), req.Price)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PaymentIntentResponse{ClientSecret: clientSecret})
}

// RecordPayment stores a completed payment for the caller and clears the
// cart entries it paid for.
func (p *PaymentController) RecordPayment(c *gin.Context) {
	var payment models.Payment
	if !bindJSON(c, &payment) {
		return
	}

	email := middleware.GetEmail(c)
	switch {
	case payment.Email == "":
		payment.Email = email
	case payment.Email != email:
		apperrors.Abort(c, apperrors.ErrForbidden)
		return
	}
	payment.ID = primitive.NilObjectID

	receipt, err := p.payments.RecordPayment(c.Request.Context(), &payment)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	logger.Info(c, "payment recorded",
		zap.String("payment_id", receipt.InsertResult.InsertedID),
		zap.String("transaction_id", payment.TransactionID),
		zap.String("cart_cleanup", receipt.CartCleanup),
	)
	c.JSON(http.StatusOK, receipt)
}

func (p *PaymentController) ListPayments(c *gin.Context) {
	payments, err := p.payments.ListPayments(c.Request.Context(), c.Param("email"))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
