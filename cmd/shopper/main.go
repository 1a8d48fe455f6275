// Command shopper walks the checkout wizard against a running storefront:
// it logs in, optionally puts a product in the cart, picks an address and a
// payment method and places the order.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/domain"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
)

type config struct {
	BaseURL       string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Email         string        `env:"EMAIL,required"`
	Password      string        `env:"PASSWORD,required"`
	ProductID     int64         `env:"PRODUCT_ID"`
	Quantity      int           `env:"QUANTITY" envDefault:"1"`
	AddressID     string        `env:"ADDRESS_ID"`
	PaymentMethod string        `env:"PAYMENT_METHOD" envDefault:"COD"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"30s"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := pkgconfig.LoadWithPrefix(&cfg, "SHOPPER_"); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.NewWithWriter("shopper", cfg.LogLevel, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	order, err := run(ctx, cfg, log)
	if err != nil {
		log.Error("checkout failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(order); err != nil {
		log.Error("failed to print order", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, log *slog.Logger) (*domain.Order, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	httpCfg := httpclient.DefaultConfig("storefront", cfg.BaseURL)
	httpCfg.Timeout = cfg.Timeout
	httpCfg.Jar = jar
	client := checkout.NewClient(httpclient.New(httpCfg, log))

	if err := client.Login(ctx, cfg.Email, cfg.Password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	log.Info("logged in", slog.String("email", cfg.Email))

	if cfg.ProductID > 0 {
		if err := client.SetItem(ctx, cfg.ProductID, cfg.Quantity); err != nil {
			return nil, fmt.Errorf("add to cart: %w", err)
		}
		log.Info("cart updated",
			slog.Int64("product_id", cfg.ProductID),
			slog.Int("quantity", cfg.Quantity),
		)
	}

	addressID, err := pickAddress(ctx, client, cfg.AddressID)
	if err != nil {
		return nil, err
	}

	w := checkout.New(client, client)
	if err := w.SelectAddress(addressID); err != nil {
		return nil, err
	}
	if err := w.Continue(); err != nil {
		return nil, err
	}
	if err := w.SelectPaymentMethod(cfg.PaymentMethod); err != nil {
		return nil, err
	}
	if err := w.Continue(); err != nil {
		return nil, err
	}

	review, err := w.Review(ctx)
	if err != nil {
		return nil, fmt.Errorf("review: %w", err)
	}
	log.Info("placing order",
		slog.Int("lines", len(review.Items)),
		slog.Int64("total_amount", review.TotalAmount),
		slog.String("payment_method", review.PaymentMethod),
	)

	order, err := w.PlaceOrder(ctx)
	if err != nil && order == nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	if err != nil {
		// The order exists; only the cart cleanup failed.
		log.Warn("order placed but cart not cleared", slog.String("error", err.Error()))
	}
	return order, nil
}

// pickAddress returns preferred when set, otherwise the default address.
func pickAddress(ctx context.Context, client *checkout.Client, preferred string) (string, error) {
	if preferred != "" {
		return preferred, nil
	}
	addresses, err := client.Addresses(ctx)
	if err != nil {
		return "", fmt.Errorf("list addresses: %w", err)
	}
	for _, a := range addresses {
		if a.IsDefault {
			return a.ID, nil
		}
	}
	if len(addresses) > 0 {
		return addresses[0].ID, nil
	}
	return "", errors.New("no shipping address on file")
}
