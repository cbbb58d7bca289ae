package domain

import (
	"strings"
	"time"
)

// PlaceholderImage is served when a product has no images
const PlaceholderImage = "/images/placeholder.png"

// Product представляет товар каталога. Rating средняя оценка отзывов, ноль до первого отзыва.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Category    string    `json:"category" bson:"category"`
	Subcategory string    `json:"subcategory,omitempty" bson:"subcategory,omitempty"`
	Brand       string    `json:"brand,omitempty" bson:"brand,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	Stock       int64     `json:"stock" bson:"stock"`
	InStock     bool      `json:"inStock" bson:"inStock"`
	Images      []string  `json:"images" bson:"images"`
	SellerID    string    `json:"sellerId,omitempty" bson:"sellerId,omitempty"`
	Rating      float64   `json:"rating" bson:"rating"`
	ReviewCount int64     `json:"reviewCount" bson:"reviewCount"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PrimaryImage returns the first image or the placeholder
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 || p.Images[0] == "" {
		return PlaceholderImage
	}
	return p.Images[0]
}

// SyncStockFlag re-derives InStock from the stock count. The count wins.
func (p *Product) SyncStockFlag() {
	p.InStock = p.Stock > 0
}

// Available reports whether the product can be bought
func (p Product) Available() bool { return p.InStock && p.Stock > 0 }

// UnratedScore ranks products without reviews on featured lists
const UnratedScore = 4.0

// Score returns the rating used for ranking
func (p Product) Score() float64 {
	if p.ReviewCount == 0 {
		return UnratedScore
	}
	return p.Rating
}

// Address адрес доставки
type Address struct {
	FullName string `json:"fullName" bson:"fullName"`
	Mobile   string `json:"mobile,omitempty" bson:"mobile,omitempty"`
	House    string `json:"house,omitempty" bson:"house,omitempty"`
	Area     string `json:"area,omitempty" bson:"area,omitempty"`
	City     string `json:"city" bson:"city"`
	State    string `json:"state" bson:"state"`
	Pincode  string `json:"pincode" bson:"pincode"`
	Country  string `json:"country,omitempty" bson:"country,omitempty"`
}

// Complete reports whether the address can be shipped to
func (a Address) Complete() bool {
	return strings.TrimSpace(a.FullName) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.State) != "" &&
		strings.TrimSpace(a.Pincode) != ""
}

// AddressLabel тип сохранённого адреса
type AddressLabel string

const (
	AddressHome  AddressLabel = "home"
	AddressWork  AddressLabel = "work"
	AddressOther AddressLabel = "other"
)

func (l AddressLabel) Valid() bool {
	switch l {
	case AddressHome, AddressWork, AddressOther:
		return true
	}
	return false
}

// SavedAddress адрес из адресной книги
type SavedAddress struct {
	ID        string       `json:"id" bson:"id"`
	Label     AddressLabel `json:"label" bson:"label"`
	Address   `bson:",inline"`
	IsDefault bool         `json:"isDefault" bson:"isDefault"`
}

// AddressBook адресная книга пользователя; не более одного адреса по умолчанию
type AddressBook struct {
	UserID    string         `json:"userId" bson:"_id"`
	Addresses []SavedAddress `json:"addresses" bson:"addresses"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// Find returns the index of the address with id, or -1
func (b AddressBook) Find(id string) int {
	for i, a := range b.Addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// Default returns the default address or nil
func (b AddressBook) Default() *SavedAddress {
	for i := range b.Addresses {
		if b.Addresses[i].IsDefault {
			a := b.Addresses[i]
			return &a
		}
	}
	return nil
}

// GuestInfo контактные данные покупателя без аккаунта
type GuestInfo struct {
	Name    string  `json:"name" bson:"name"`
	Email   string  `json:"email" bson:"email"`
	Address Address `json:"address" bson:"address"`
}

// Valid reports whether the guest can be contacted and shipped to
func (g GuestInfo) Valid() bool {
	return strings.TrimSpace(g.Name) != "" && strings.Contains(g.Email, "@") && g.Address.Complete()
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
}

// Known reports whether s is one of the declared statuses
func (s OrderStatus) Known() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo checks the forward-only status graph
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// PaymentMethod тег способа оплаты
type PaymentMethod string

const (
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetBanking PaymentMethod = "netbanking"
	PaymentWallet     PaymentMethod = "wallet"
	PaymentEMI        PaymentMethod = "emi"
	PaymentCOD        PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentUPI, PaymentNetBanking, PaymentWallet, PaymentEMI, PaymentCOD:
		return true
	}
	return false
}

// OrderItem позиция в заказе; цена фиксируется в момент покупки
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Quantity  int64   `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

// Totals денежные итоги заказа
type Totals struct {
	Subtotal float64 `json:"subtotal" bson:"subtotal"`
	Discount float64 `json:"discount" bson:"discount"`
	Shipping float64 `json:"shipping" bson:"shipping"`
	Tax      float64 `json:"tax" bson:"tax"`
	Total    float64 `json:"total" bson:"total"`
}

// Order сущность заказа
type Order struct {
	ID            string        `json:"id" bson:"_id"`
	UserID        string        `json:"userId,omitempty" bson:"userId,omitempty"`
	GuestInfo     *GuestInfo    `json:"guestInfo,omitempty" bson:"guestInfo,omitempty"`
	Items         []OrderItem   `json:"items" bson:"items"`
	Totals        `bson:",inline"`
	CouponCode    string        `json:"couponCode,omitempty" bson:"couponCode,omitempty"`
	Address       Address       `json:"address" bson:"address"`
	PaymentMethod PaymentMethod `json:"paymentMethod" bson:"paymentMethod"`
	TransactionID string        `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	Status        OrderStatus   `json:"status" bson:"status"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// ContactEmail returns the address status notifications go to, if known
func (o Order) ContactEmail() string {
	if o.GuestInfo != nil {
		return o.GuestInfo.Email
	}
	return ""
}

// CouponType способ расчёта скидки
type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

// Coupon промокод
type Coupon struct {
	ID         string     `json:"id" bson:"_id"`
	Code       string     `json:"code" bson:"code"`
	Type       CouponType `json:"type" bson:"type"`
	Value      float64    `json:"value" bson:"value"`
	MinOrder   float64    `json:"minOrder" bson:"minOrder"`
	MaxUses    *int64     `json:"maxUses,omitempty" bson:"maxUses,omitempty"`
	UsedCount  int64      `json:"usedCount" bson:"usedCount"`
	Active     bool       `json:"active" bson:"active"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty" bson:"expiryDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
}

// NormalizeCouponCode upper-cases and trims a code
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Live reports whether the coupon is active and not expired at now
func (c Coupon) Live(now time.Time) bool {
	return c.Active && (c.ExpiryDate == nil || c.ExpiryDate.After(now))
}

// Exhausted reports whether the usage cap has been reached
func (c Coupon) Exhausted() bool {
	return c.MaxUses != nil && c.UsedCount >= *c.MaxUses
}

// CartItem строка корзины
type CartItem struct {
	ProductID string `json:"productId" bson:"productId"`
	Quantity  int64  `json:"quantity" bson:"quantity"`
}

// Cart корзина пользователя; не более одной строки на товар
type Cart struct {
	UserID    string     `json:"userId" bson:"_id"`
	Items     []CartItem `json:"items" bson:"items"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Wishlist избранное пользователя
type Wishlist struct {
	UserID     string    `json:"userId" bson:"_id"`
	ProductIDs []string  `json:"productIds" bson:"productIds"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ReturnStatus статус заявки на возврат
type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "pending"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnProcessed ReturnStatus = "processed"
)

func (s ReturnStatus) Valid() bool {
	switch s {
	case ReturnPending, ReturnApproved, ReturnRejected, ReturnProcessed:
		return true
	}
	return false
}

// ReturnRequest заявка на возврат заказа
type ReturnRequest struct {
	ID           string       `json:"id" bson:"_id"`
	OrderID      string       `json:"orderId" bson:"orderId"`
	UserID       string       `json:"userId" bson:"userId"`
	Reason       string       `json:"reason" bson:"reason"`
	Status       ReturnStatus `json:"status" bson:"status"`
	RefundAmount *float64     `json:"refundAmount,omitempty" bson:"refundAmount,omitempty"`
	AdminNotes   string       `json:"adminNotes,omitempty" bson:"adminNotes,omitempty"`
	CreatedAt    time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// Review отзыв покупателя о товаре
type Review struct {
	ID        string    `json:"id" bson:"_id"`
	ProductID string    `json:"productId" bson:"productId"`
	UserID    string    `json:"userId" bson:"userId"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// StockNotification подписка на поступление товара
type StockNotification struct {
	ID         string     `json:"id" bson:"_id"`
	UserID     string     `json:"userId" bson:"userId"`
	ProductID  string     `json:"productId" bson:"productId"`
	Email      string     `json:"email,omitempty" bson:"email,omitempty"`
	NotifiedAt *time.Time `json:"notifiedAt,omitempty" bson:"notifiedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
}

// Pending reports whether the subscriber is still waiting
func (n StockNotification) Pending() bool { return n.NotifiedAt == nil }

// RecentlyViewedLimit длина истории просмотров
const RecentlyViewedLimit = 10

// RecentlyViewed история просмотров, последние первыми
type RecentlyViewed struct {
	UserID     string    `json:"userId" bson:"_id"`
	ProductIDs []string  `json:"productIds" bson:"productIds"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SearchLog запись поискового запроса
type SearchLog struct {
	ID           string    `json:"id" bson:"_id"`
	Query        string    `json:"query" bson:"query"`
	UserID       string    `json:"userId,omitempty" bson:"userId,omitempty"`
	SessionID    string    `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	ResultsCount int       `json:"resultsCount" bson:"resultsCount"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Role роль вызывающего
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Identity вызывающий, установленный внешним слоем аутентификации
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) Authenticated() bool { return i.UserID != "" }
func (i Identity) IsAdmin() bool       { return i.Role == RoleAdmin }
func (i Identity) IsSeller() bool      { return i.Role == RoleSeller }
