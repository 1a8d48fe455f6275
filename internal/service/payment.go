package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/payment"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// PaymentService connects shop orders to the payment gateway.
type PaymentService struct {
	orders   repository.OrderRepository
	gateway  payment.Gateway
	currency string
	logger   *slog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(orders repository.OrderRepository, gateway payment.Gateway, currency string, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		orders:   orders,
		gateway:  gateway,
		currency: currency,
		logger:   logger,
	}
}

// GatewayOrder is what the browser checkout widget needs to collect a payment.
type GatewayOrder struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"keyId"`
	OrderID        string `json:"orderId"`
}

// VerifyPaymentInput is the checkout widget's success callback.
type VerifyPaymentInput struct {
	OrderID        string
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// CreateGatewayOrder opens a gateway order for one of the user's unpaid
// RAZORPAY orders.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, userID, orderID string) (*GatewayOrder, error) {
	order, err := s.payableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, &payment.CreateOrderInput{
		Amount:   order.TotalAmount,
		Currency: s.currency,
		Receipt:  payment.Receipt(order.ID),
		Notes:    map[string]string{"order_id": order.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	if err := s.orders.SetGatewayOrderID(ctx, order.ID, gwOrder.ID); err != nil {
		return nil, fmt.Errorf("store gateway order id: %w", err)
	}

	s.logger.InfoContext(ctx, "gateway order created",
		slog.String("order_id", order.ID),
		slog.String("gateway", s.gateway.Name()),
		slog.String("gateway_order_id", gwOrder.ID),
	)

	return &GatewayOrder{
		GatewayOrderID: gwOrder.ID,
		Amount:         order.TotalAmount,
		Currency:       s.currency,
		KeyID:          s.gateway.KeyID(),
		OrderID:        order.ID,
	}, nil
}

// VerifyPayment checks the gateway signature. A valid one marks the order
// paid and moves it to PROCESSING; an invalid one marks the payment failed.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID string, input VerifyPaymentInput) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", input.OrderID)
	}
	if order.GatewayOrderID == nil || *order.GatewayOrderID != input.GatewayOrderID {
		return nil, apperrors.InvalidInput("gatewayOrderId does not belong to this order")
	}
	if order.IsPaid() {
		return order, nil
	}

	if !s.gateway.VerifySignature(input.GatewayOrderID, input.PaymentID, input.Signature) {
		if err := s.orders.MarkPaymentFailed(ctx, order.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark payment failed",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.WarnContext(ctx, "payment signature rejected", slog.String("order_id", order.ID))
		return nil, apperrors.PaymentFailed("payment signature verification failed")
	}

	if err := s.orders.MarkPaid(ctx, order.ID, input.PaymentID); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	paid, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("get paid order: %w", err)
	}

	s.logger.InfoContext(ctx, "payment captured",
		slog.String("order_id", order.ID),
		slog.String("payment_id", input.PaymentID),
	)
	return paid, nil
}

func (s *PaymentService) payableOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", orderID)
	}
	if order.PaymentMethod != domain.PaymentMethodRazorpay {
		return nil, apperrors.InvalidInput("order is not paid online")
	}
	if order.IsPaid() {
		return nil, apperrors.Conflict("ALREADY_PAID", "order has already been paid")
	}
	if order.Status == domain.OrderStatusCancelled {
		return nil, apperrors.Conflict("ORDER_CANCELLED", "order has been cancelled")
	}
	return order, nil
}
