package service

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

// RecentOrdersLimit число последних заказов на панели администратора
const RecentOrdersLimit = 5

// Dashboard сводка для администратора
type Dashboard struct {
	TotalCustomers int64                        `json:"totalCustomers"`
	GuestOrders    int64                        `json:"guestOrders"`
	TotalProducts  int64                        `json:"totalProducts"`
	TotalOrders    int64                        `json:"totalOrders"`
	TotalRevenue   float64                      `json:"totalRevenue"`
	OrdersByStatus map[domain.OrderStatus]int64 `json:"ordersByStatus"`
	RecentOrders   []domain.Order               `json:"recentOrders"`
}

// UserStats счётчики личного кабинета. Поля продавца заполняются только для продавцов.
type UserStats struct {
	Orders   int64    `json:"orders"`
	Wishlist int64    `json:"wishlist"`
	CartQty  int64    `json:"cartItems"`
	Products *int64   `json:"products,omitempty"`
	Sales    *int64   `json:"sales,omitempty"`
	Revenue  *float64 `json:"revenue,omitempty"`
}

// AnalyticsService считает сводные показатели по заказам и каталогу
type AnalyticsService struct {
	products  repository.ProductRepository
	orders    repository.OrderRepository
	carts     repository.CartRepository
	wishlists repository.WishlistRepository
}

func NewAnalyticsService(products repository.ProductRepository, orders repository.OrderRepository, carts repository.CartRepository, wishlists repository.WishlistRepository) *AnalyticsService {
	return &AnalyticsService{products: products, orders: orders, carts: carts, wishlists: wishlists}
}

// Dashboard aggregates every order. Revenue leaves out cancelled orders.
func (s *AnalyticsService) Dashboard(ctx context.Context, who domain.Identity) (*Dashboard, error) {
	if !who.IsAdmin() {
		return nil, ErrForbidden
	}
	var (
		products int64
		orders   []domain.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.products.Count(gctx, repository.ProductFilter{})
		products = n
		return err
	})
	g.Go(func() error {
		list, err := s.orders.List(gctx, repository.OrderFilter{})
		orders = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalProducts:  products,
		TotalOrders:    int64(len(orders)),
		OrdersByStatus: make(map[domain.OrderStatus]int64),
	}
	customers := make(map[string]struct{})
	revenue := decimal.Zero
	for _, o := range orders {
		d.OrdersByStatus[o.Status]++
		if o.UserID == "" {
			d.GuestOrders++
		} else {
			customers[o.UserID] = struct{}{}
		}
		if o.Status != domain.OrderStatusCancelled {
			revenue = revenue.Add(decimal.NewFromFloat(o.Total))
		}
	}
	d.TotalCustomers = int64(len(customers))
	d.TotalRevenue, _ = revenue.Round(2).Float64()
	// List is newest first
	if len(orders) > RecentOrdersLimit {
		orders = orders[:RecentOrdersLimit]
	}
	d.RecentOrders = orders
	return d, nil
}

// UserStats counts the caller's orders, wishlist and cart. Sellers also get
// their listings, units sold and revenue from non-cancelled orders.
func (s *AnalyticsService) UserStats(ctx context.Context, who domain.Identity) (*UserStats, error) {
	if !who.Authenticated() {
		return nil, ErrUnauthorized
	}
	orders, err := s.orders.List(ctx, repository.OrderFilter{UserID: who.UserID})
	if err != nil {
		return nil, err
	}
	w, err := s.wishlists.Get(ctx, who.UserID)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Get(ctx, who.UserID)
	if err != nil {
		return nil, err
	}
	st := &UserStats{Orders: int64(len(orders)), Wishlist: int64(len(w.ProductIDs))}
	for _, it := range c.Items {
		st.CartQty += it.Quantity
	}
	if !who.IsSeller() {
		return st, nil
	}

	listed, err := s.products.List(ctx, repository.ProductFilter{SellerID: who.UserID})
	if err != nil {
		return nil, err
	}
	own := make(map[string]struct{}, len(listed))
	for _, p := range listed {
		own[p.ID] = struct{}{}
	}
	all, err := s.orders.List(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, err
	}
	var sold int64
	revenue := decimal.Zero
	for _, o := range all {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		for _, it := range o.Items {
			if _, ok := own[it.ProductID]; !ok {
				continue
			}
			sold += it.Quantity
			revenue = revenue.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(it.Quantity)))
		}
	}
	n := int64(len(listed))
	rev, _ := revenue.Round(2).Float64()
	st.Products, st.Sales, st.Revenue = &n, &sold, &rev
	return st, nil
}
