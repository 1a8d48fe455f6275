package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// ProductFilter narrows product listings. Search is a case-insensitive
// substring match over name, description and slug.
type ProductFilter struct {
	Search     string
	CategoryID *int64
	Page       int
	PerPage    int
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID  *string
	Status  *string
	Page    int
	PerPage int
}

// ProductRepository defines persistence for catalog products.
type ProductRepository interface {
	// List returns products newest (highest id) first with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Search matches name and description, ordered by id ascending.
	Search(ctx context.Context, query string, page, perPage int) ([]domain.Product, int, error)

	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// GetByIDs returns the products that exist among ids, in id order.
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)

	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error

	// SlugExists reports whether another product (not excludeID) uses slug.
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
}

// CategoryRepository defines persistence for the category tree.
type CategoryRepository interface {
	// List returns categories flat, ordered by sort order then name.
	List(ctx context.Context, publishedOnly bool) ([]domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id int64) error
}

// CategoryGridRepository defines persistence for category grid tiles.
type CategoryGridRepository interface {
	List(ctx context.Context, visibleOnly bool) ([]domain.CategoryGrid, error)
	GetByID(ctx context.Context, id int64) (*domain.CategoryGrid, error)
	Create(ctx context.Context, g *domain.CategoryGrid) error
	Update(ctx context.Context, g *domain.CategoryGrid) error
	Delete(ctx context.Context, id int64) error

	// Reorder sets each grid's order to its position in ids.
	Reorder(ctx context.Context, ids []int64) error
}

// HomepageSectionRepository defines persistence for homepage sections.
type HomepageSectionRepository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.HomepageSection, error)
	GetByID(ctx context.Context, id int64) (*domain.HomepageSection, error)
	Create(ctx context.Context, s *domain.HomepageSection) error
	Update(ctx context.Context, s *domain.HomepageSection) error
	Delete(ctx context.Context, id int64) error
}

// CustomerRepository defines persistence for shop users.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)

	// List returns customers newest first with the total count.
	List(ctx context.Context, page, perPage int) ([]domain.Customer, int, error)
	Delete(ctx context.Context, id string) error

	// DeleteMany removes the given customers and returns how many existed.
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// StaffRepository defines persistence for admin users.
type StaffRepository interface {
	Create(ctx context.Context, s *domain.Staff) error
	GetByID(ctx context.Context, id string) (*domain.Staff, error)
	GetByUsername(ctx context.Context, username string) (*domain.Staff, error)
	List(ctx context.Context) ([]domain.Staff, error)
	Update(ctx context.Context, s *domain.Staff) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	Count(ctx context.Context) (int, error)
}

// AddressRepository defines persistence for customer addresses. Every lookup
// is scoped to the owning user; another user's address reads as not found.
type AddressRepository interface {
	// Create inserts a; when a.IsDefault is set, or the user has no address
	// yet, it becomes the only default in the same transaction.
	Create(ctx context.Context, a *domain.Address) error

	GetByID(ctx context.Context, userID, id string) (*domain.Address, error)

	// ListByUserID returns the default address first, then newest first.
	ListByUserID(ctx context.Context, userID string) ([]domain.Address, error)

	// Update saves a; IsDefault=true unsets other defaults in the same transaction.
	Update(ctx context.Context, a *domain.Address) error

	Delete(ctx context.Context, userID, id string) error

	// SetDefault makes addressID the user's only default.
	SetDefault(ctx context.Context, userID, addressID string) error
}

// OrderRepository defines persistence for orders and their items.
type OrderRepository interface {
	// Create inserts the order, its items and decrements stock for every
	// line in one transaction.
	Create(ctx context.Context, o *domain.Order) error

	// GetByID loads an order with items, product names and shipping address.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders newest first with items and the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus moves the order from one status to another. Cancelling
	// restocks the order's lines in the same transaction.
	UpdateStatus(ctx context.Context, id, from, to string) error

	SetGatewayOrderID(ctx context.Context, id, gatewayOrderID string) error

	// MarkPaid records a captured payment and moves a pending order to
	// PROCESSING.
	MarkPaid(ctx context.Context, id, gatewayPaymentID string) error

	MarkPaymentFailed(ctx context.Context, id string) error
}

// DashboardRepository answers the aggregate queries behind the admin dashboard.
type DashboardRepository interface {
	StatusCounts(ctx context.Context) (map[string]int, error)
	BestSellers(ctx context.Context, limit int) ([]domain.BestSeller, error)
}

// CartRepository loads and saves carts. Get returns an empty cart when none
// is stored.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// OTPRepository stores one pending one-time password per email.
type OTPRepository interface {
	// Save replaces any pending code for email and resets its attempts.
	Save(ctx context.Context, email, codeHash string, ttl time.Duration) error

	// Get returns the stored code hash and attempts so far; ErrNotFound when
	// there is none or it expired.
	Get(ctx context.Context, email string) (codeHash string, attempts int, err error)

	// IncrementAttempts records a failed attempt and returns the new count.
	IncrementAttempts(ctx context.Context, email string) (int, error)

	Delete(ctx context.Context, email string) error
}

// IdempotencyRecord is what a taken Idempotency-Key is bound to.
type IdempotencyRecord struct {
	// Fingerprint identifies the request body that claimed the key.
	Fingerprint string
	// OrderID is empty while that request is still in flight.
	OrderID string
}

// IdempotencyRepository tracks Idempotency-Key headers on order creation.
type IdempotencyRepository interface {
	// Reserve claims key for the request identified by fingerprint. When the
	// key is already taken it returns the stored record.
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (reserved bool, existing IdempotencyRecord, err error)

	// Complete binds key to the created order.
	Complete(ctx context.Context, key, fingerprint, orderID string, ttl time.Duration) error

	// Release frees a reservation whose request failed.
	Release(ctx context.Context, key string) error
}

// DashboardCache caches computed dashboard statistics.
type DashboardCache interface {
	Get(ctx context.Context) (*domain.DashboardStats, bool, error)
	Set(ctx context.Context, stats *domain.DashboardStats, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}
