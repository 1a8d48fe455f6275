package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// DefaultIdempotencyTTL is how long an Idempotency-Key stays bound to its
// order unless configured otherwise.
const DefaultIdempotencyTTL = 24 * time.Hour

// OrderEventPublisher announces order lifecycle changes.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *domain.Order) error
	PublishOrderStatusChanged(ctx context.Context, o *domain.Order, from string) error
}

// OrderService implements checkout and order management.
type OrderService struct {
	orders      repository.OrderRepository
	addresses   repository.AddressRepository
	products    repository.ProductRepository
	carts       repository.CartRepository
	idempotency repository.IdempotencyRepository
	idemTTL     time.Duration
	producer    OrderEventPublisher
	logger      *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	addresses repository.AddressRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	idempotency repository.IdempotencyRepository,
	idempotencyTTL time.Duration,
	producer OrderEventPublisher,
	logger *slog.Logger,
) *OrderService {
	if idempotencyTTL <= 0 {
		idempotencyTTL = DefaultIdempotencyTTL
	}
	return &OrderService{
		orders:      orders,
		addresses:   addresses,
		products:    products,
		carts:       carts,
		idempotency: idempotency,
		idemTTL:     idempotencyTTL,
		producer:    producer,
		logger:      logger,
	}
}

// PlaceOrderItemInput is one submitted order line. Price is the unit price
// the shopper saw.
type PlaceOrderItemInput struct {
	ProductID int64
	Quantity  int
	Price     int64
}

// PlaceOrderInput holds the parameters for placing an order.
type PlaceOrderInput struct {
	UserID            string
	Items             []PlaceOrderItemInput
	TotalAmount       int64
	ShippingAddressID string
	PaymentMethod     string
	IdempotencyKey    string
}

// PlaceOrder validates the submission against live data and creates the
// order, its items and the stock decrements in one transaction. The returned
// bool is false when an Idempotency-Key replay returned an existing order.
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, bool, error) {
	if input.UserID == "" {
		return nil, false, apperrors.Unauthorized("authentication required")
	}
	if len(input.Items) == 0 {
		return nil, false, apperrors.InvalidInput("order must contain at least one item")
	}
	if !domain.IsValidPaymentMethod(input.PaymentMethod) {
		return nil, false, apperrors.InvalidInput(fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if input.ShippingAddressID == "" {
		return nil, false, apperrors.InvalidInput("shippingAddressId is required")
	}

	ids := make([]int64, 0, len(input.Items))
	seen := make(map[int64]bool, len(input.Items))
	for _, it := range input.Items {
		if it.Quantity < 1 {
			return nil, false, apperrors.InvalidInput(fmt.Sprintf("quantity for product %d must be at least 1", it.ProductID))
		}
		if seen[it.ProductID] {
			return nil, false, apperrors.InvalidInput(fmt.Sprintf("product %d appears on more than one line", it.ProductID))
		}
		seen[it.ProductID] = true
		ids = append(ids, it.ProductID)
	}

	var idemKey, fingerprint string
	if input.IdempotencyKey != "" {
		idemKey = input.UserID + ":" + input.IdempotencyKey
		fingerprint = orderFingerprint(input)
		reserved, existing, err := s.idempotency.Reserve(ctx, idemKey, fingerprint, s.idemTTL)
		if err != nil {
			return nil, false, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			if existing.Fingerprint != fingerprint {
				return nil, false, apperrors.Conflict("IDEMPOTENCY_KEY_REUSED",
					"this Idempotency-Key was already used for a different order")
			}
			if existing.OrderID == "" {
				return nil, false, apperrors.Conflict("REQUEST_IN_PROGRESS",
					"an order with this Idempotency-Key is already being processed")
			}
			replayed, err := s.orders.GetByID(ctx, existing.OrderID)
			if err != nil {
				return nil, false, fmt.Errorf("get replayed order: %w", err)
			}
			return replayed, false, nil
		}
	}

	order, err := s.createOrder(ctx, input, ids)
	if err != nil {
		if idemKey != "" {
			if relErr := s.idempotency.Release(ctx, idemKey); relErr != nil {
				s.logger.ErrorContext(ctx, "failed to release idempotency key",
					slog.String("error", relErr.Error()),
				)
			}
		}
		return nil, false, err
	}

	if idemKey != "" {
		if err := s.idempotency.Complete(ctx, idemKey, fingerprint, order.ID, s.idemTTL); err != nil {
			s.logger.ErrorContext(ctx, "failed to bind idempotency key",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.carts.Delete(ctx, input.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after order",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total_amount", order.TotalAmount),
		slog.Int("items", len(order.Items)),
	)
	return order, true, nil
}

// orderFingerprint hashes the parts of a submission that decide which order
// gets created. Line order does not matter.
func orderFingerprint(input PlaceOrderInput) string {
	lines := make([]string, len(input.Items))
	for i, it := range input.Items {
		lines[i] = strconv.FormatInt(it.ProductID, 10) + "x" + strconv.Itoa(it.Quantity) + "@" + strconv.FormatInt(it.Price, 10)
	}
	slices.Sort(lines)

	h := sha256.New()
	h.Write([]byte(strings.Join(lines, ",")))
	fmt.Fprintf(h, "|%d|%s|%s", input.TotalAmount, input.ShippingAddressID, input.PaymentMethod)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *OrderService) createOrder(ctx context.Context, input PlaceOrderInput, ids []int64) (*domain.Order, error) {
	address, err := s.addresses.GetByID(ctx, input.UserID, input.ShippingAddressID)
	if err != nil {
		return nil, fmt.Errorf("get shipping address: %w", err)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get order products: %w", err)
	}
	live := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		live[p.ID] = p
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()
	items := make([]domain.OrderItem, len(input.Items))
	for i, it := range input.Items {
		p, ok := live[it.ProductID]
		if !ok {
			return nil, apperrors.NotFound("product", it.ProductID)
		}
		if p.Price != it.Price {
			return nil, apperrors.Conflict("PRICE_CHANGED",
				fmt.Sprintf("price of %s changed from %d to %d", p.Name, it.Price, p.Price))
		}
		items[i] = domain.OrderItem{
			ID:           uuid.New().String(),
			OrderID:      orderID,
			ProductID:    p.ID,
			Quantity:     it.Quantity,
			Price:        p.Price,
			ProductName:  p.Name,
			ProductImage: p.FirstImage(),
		}
	}

	total := domain.SumItems(items)
	if total != input.TotalAmount {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("totalAmount %d does not match the sum of the items %d", input.TotalAmount, total))
	}

	order := &domain.Order{
		ID:                orderID,
		UserID:            input.UserID,
		TotalAmount:       total,
		Status:            domain.OrderStatusPending,
		PaymentMethod:     input.PaymentMethod,
		PaymentStatus:     domain.PaymentStatusPending,
		ShippingAddressID: address.ID,
		ShippingAddress:   address,
		Items:             items,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// ListUserOrders returns a page of the user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	page, perPage = clampPage(page, perPage)
	orders, total, err := s.orders.List(ctx, repository.OrderFilter{
		UserID:  &userID,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list user orders: %w", err)
	}
	return orders, total, nil
}

// GetUserOrder returns one of the user's orders. Another user's order is
// reported as not found.
func (s *OrderService) GetUserOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", orderID)
	}
	return order, nil
}

// Invoice renders the invoice of one of the user's orders.
func (s *OrderService) Invoice(ctx context.Context, userID, orderID string) (*domain.Invoice, error) {
	order, err := s.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return domain.NewInvoice(order), nil
}

// ListOrders returns a page of all orders for the back-office, optionally
// filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, status string, page, perPage int) ([]domain.Order, int, error) {
	filter := repository.OrderFilter{}
	filter.Page, filter.PerPage = clampPage(page, perPage)
	if status != "" {
		if !domain.IsValidStatus(status) {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", status))
		}
		filter.Status = &status
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// GetOrder retrieves any order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// UpdateStatus moves an order along the status machine. Setting the current
// status again is a no-op.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	noop, err := order.CheckTransition(status)
	if err != nil {
		return nil, err
	}
	if noop {
		return order, nil
	}

	from := order.Status
	if err := s.orders.UpdateStatus(ctx, id, from, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()

	if err := s.producer.PublishOrderStatusChanged(ctx, order, from); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order status changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("from", from),
		slog.String("to", status),
	)
	return order, nil
}

func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > pagination.MaxPerPage {
		perPage = pagination.DefaultParams().PerPage
	}
	return page, perPage
}
