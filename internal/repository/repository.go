package repository

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"canokart/internal/checkout"
	"canokart/internal/domain"
)

var (
	// ErrNotFound возвращается, когда сущность не найдена
	ErrNotFound = errors.New("not found")
	// ErrDuplicate возвращается при нарушении уникальности
	ErrDuplicate = errors.New("already exists")
	// ErrUnknownField возвращается Distinct для неподдерживаемого поля
	ErrUnknownField = errors.New("unknown field")
)

// SortMode порядок выдачи товаров
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortNewest    SortMode = "newest"
	// SortRating orders by mean review score, then by name
	SortRating SortMode = "rating"
)

// Valid reports whether m is a known sort mode
func (m SortMode) Valid() bool {
	switch m {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest, SortRating:
		return true
	}
	return false
}

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	// Search matches name, description, category or brand
	Search      string
	Category    string
	Subcategory string
	Brand       string
	SellerID    string
	IDs         []string
	ExcludeIDs  []string
	MinPrice    *float64
	MaxPrice    *float64
	InStock     bool
	Sort        SortMode
	Skip        int
	Limit       int
	// Exact makes Category and Brand match verbatim instead of by
	// case-insensitive substring
	Exact bool
}

// ProductRepository интерфейс репозитория товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	// Count ignores Skip and Limit
	Count(ctx context.Context, f ProductFilter) (int64, error)
	// Distinct returns the non-empty values of category, subcategory or brand
	Distinct(ctx context.Context, field string, f ProductFilter) ([]string, error)
	// SetRating stores the review aggregate; Update never touches it
	SetRating(ctx context.Context, id string, rating float64, count int64) error
}

// OrderFilter параметры выборки заказов
type OrderFilter struct {
	UserID    string
	ProductID string
	Limit     int
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	// List returns newest first
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
}

// CouponRepository интерфейс репозитория промокодов
type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
}

// CartRepository хранит корзины по пользователю
type CartRepository interface {
	// Get returns an empty cart when the user has none
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, c *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// WishlistRepository хранит избранное по пользователю
type WishlistRepository interface {
	Get(ctx context.Context, userID string) (*domain.Wishlist, error)
	Save(ctx context.Context, w *domain.Wishlist) error
}

// AddressBookRepository хранит адресные книги по пользователю
type AddressBookRepository interface {
	// Get returns an empty book when the user has none
	Get(ctx context.Context, userID string) (*domain.AddressBook, error)
	Save(ctx context.Context, b *domain.AddressBook) error
}

// ReviewFilter параметры выборки отзывов
type ReviewFilter struct {
	ProductID string
	UserID    string
}

// ReviewRepository интерфейс репозитория отзывов
type ReviewRepository interface {
	Create(ctx context.Context, r *domain.Review) error
	// List returns newest first
	List(ctx context.Context, f ReviewFilter) ([]domain.Review, error)
}

// StockNotificationRepository подписки на поступление товара
type StockNotificationRepository interface {
	// Create returns ErrDuplicate when the user already waits for the product
	Create(ctx context.Context, n *domain.StockNotification) error
	ListPending(ctx context.Context, productID string) ([]domain.StockNotification, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
}

// RecentlyViewedRepository история просмотров по пользователю
type RecentlyViewedRepository interface {
	Get(ctx context.Context, userID string) (*domain.RecentlyViewed, error)
	Save(ctx context.Context, r *domain.RecentlyViewed) error
}

// ReturnFilter параметры выборки заявок на возврат
type ReturnFilter struct {
	UserID  string
	OrderID string
}

// ReturnRepository интерфейс репозитория возвратов
type ReturnRepository interface {
	Create(ctx context.Context, r *domain.ReturnRequest) error
	GetByID(ctx context.Context, id string) (*domain.ReturnRequest, error)
	Update(ctx context.Context, r *domain.ReturnRequest) error
	List(ctx context.Context, f ReturnFilter) ([]domain.ReturnRequest, error)
}

// SearchLogRepository пишет журнал поиска
type SearchLogRepository interface {
	Create(ctx context.Context, l *domain.SearchLog) error
}

// CheckoutSessionRepository хранит состояние мастера оформления заказа
type CheckoutSessionRepository interface {
	Create(ctx context.Context, s *checkout.State) error
	Get(ctx context.Context, id string) (*checkout.State, error)
	Save(ctx context.Context, s *checkout.State) error
}

// TxManager абстракция транзакции. Для in-memory: глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewID returns a fresh document id; both stores use ObjectID hex strings
func NewID() string { return primitive.NewObjectID().Hex() }

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
