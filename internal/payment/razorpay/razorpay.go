package razorpay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/payment"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// maxReceiptLength is the gateway's limit on receipt labels.
const maxReceiptLength = 40

// Config holds the gateway credentials.
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
}

// Gateway talks to the Razorpay orders API through the resilient client.
type Gateway struct {
	client *httpclient.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a Razorpay gateway.
func New(cfg Config, logger *slog.Logger) *Gateway {
	return NewWithClient(httpclient.New(httpclient.DefaultConfig("razorpay", cfg.BaseURL), logger), cfg, logger)
}

// NewWithClient creates a Razorpay gateway over an existing client.
func NewWithClient(client *httpclient.Client, cfg Config, logger *slog.Logger) *Gateway {
	return &Gateway{client: client, cfg: cfg, logger: logger}
}

// Name returns the gateway name.
func (g *Gateway) Name() string {
	return "razorpay"
}

// KeyID returns the public key id.
func (g *Gateway) KeyID() string {
	return g.cfg.KeyID
}

type createOrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder opens an auto-captured order. The receipt doubles as the
// Idempotency-Key so retried requests are safe.
func (g *Gateway) CreateOrder(ctx context.Context, input *payment.CreateOrderInput) (*payment.Order, error) {
	receipt := input.Receipt
	if len(receipt) > maxReceiptLength {
		receipt = receipt[:maxReceiptLength]
	}

	req := createOrderRequest{
		Amount:         input.Amount,
		Currency:       input.Currency,
		Receipt:        receipt,
		PaymentCapture: 1,
		Notes:          input.Notes,
	}

	var resp orderResponse
	err := g.client.DoJSON(ctx, http.MethodPost, "/v1/orders", req, &resp,
		httpclient.WithBasicAuth(g.cfg.KeyID, g.cfg.KeySecret),
		httpclient.WithHeader("Idempotency-Key", input.Receipt),
	)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	g.logger.InfoContext(ctx, "razorpay order created",
		slog.String("gateway_order_id", resp.ID),
		slog.Int64("amount", resp.Amount),
	)

	return &payment.Order{
		ID:       resp.ID,
		Amount:   resp.Amount,
		Currency: resp.Currency,
		Receipt:  resp.Receipt,
		Status:   resp.Status,
	}, nil
}

// VerifySignature checks a checkout signature with the key secret.
func (g *Gateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return payment.VerifySignature(gatewayOrderID, paymentID, signature, g.cfg.KeySecret)
}
