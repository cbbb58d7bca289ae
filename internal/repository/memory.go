package repository

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"canokart/internal/checkout"
	"canokart/internal/domain"
)

// MemoryStore объединённое in-memory хранилище всех коллекций
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	productsByID map[string]domain.Product
	productOrder []string
	ordersByID   map[string]domain.Order
	orderOrder   []string
	couponsByKey map[string]domain.Coupon
	carts        map[string]domain.Cart
	wishlists    map[string]domain.Wishlist
	returnsByID  map[string]domain.ReturnRequest
	returnOrder  []string
	searchLogs   []domain.SearchLog
	sessions     map[string]checkout.State
	addressBooks map[string]domain.AddressBook
	reviewsByID  map[string]domain.Review
	reviewOrder  []string
	alertsByID   map[string]domain.StockNotification
	alertOrder   []string
	recent       map[string]domain.RecentlyViewed
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          func() time.Time { return time.Now().UTC() },
		productsByID: make(map[string]domain.Product),
		ordersByID:   make(map[string]domain.Order),
		couponsByKey: make(map[string]domain.Coupon),
		carts:        make(map[string]domain.Cart),
		wishlists:    make(map[string]domain.Wishlist),
		returnsByID:  make(map[string]domain.ReturnRequest),
		sessions:     make(map[string]checkout.State),
		addressBooks: make(map[string]domain.AddressBook),
		reviewsByID:  make(map[string]domain.Review),
		alertsByID:   make(map[string]domain.StockNotification),
		recent:       make(map[string]domain.RecentlyViewed),
	}
}

// snapshot copies every collection. Stored values are never mutated in
// place, so copying the maps and index slices is enough.
func (m *MemoryStore) snapshot() *MemoryStore {
	return &MemoryStore{
		productsByID: maps.Clone(m.productsByID),
		productOrder: slices.Clone(m.productOrder),
		ordersByID:   maps.Clone(m.ordersByID),
		orderOrder:   slices.Clone(m.orderOrder),
		couponsByKey: maps.Clone(m.couponsByKey),
		carts:        maps.Clone(m.carts),
		wishlists:    maps.Clone(m.wishlists),
		returnsByID:  maps.Clone(m.returnsByID),
		returnOrder:  slices.Clone(m.returnOrder),
		searchLogs:   slices.Clone(m.searchLogs),
		sessions:     maps.Clone(m.sessions),
		addressBooks: maps.Clone(m.addressBooks),
		reviewsByID:  maps.Clone(m.reviewsByID),
		reviewOrder:  slices.Clone(m.reviewOrder),
		alertsByID:   maps.Clone(m.alertsByID),
		alertOrder:   slices.Clone(m.alertOrder),
		recent:       maps.Clone(m.recent),
	}
}

// restore puts back the collections taken by snapshot
func (m *MemoryStore) restore(s *MemoryStore) {
	m.productsByID, m.productOrder = s.productsByID, s.productOrder
	m.ordersByID, m.orderOrder = s.ordersByID, s.orderOrder
	m.couponsByKey = s.couponsByKey
	m.carts = s.carts
	m.wishlists = s.wishlists
	m.returnsByID, m.returnOrder = s.returnsByID, s.returnOrder
	m.searchLogs = s.searchLogs
	m.sessions = s.sessions
	m.addressBooks = s.addressBooks
	m.reviewsByID, m.reviewOrder = s.reviewsByID, s.reviewOrder
	m.alertsByID, m.alertOrder = s.alertsByID, s.alertOrder
	m.recent = s.recent
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Ensure interfaces
var _ ProductRepository = (*MemoryStore)(nil)

// ProductRepository implementation
func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if p.ID == "" {
		p.ID = NewID()
	}
	if _, ok := m.productsByID[p.ID]; ok {
		return ErrDuplicate
	}
	now := m.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.SyncStockFlag()
	m.productsByID[p.ID] = cloneProduct(*p)
	m.productOrder = append(m.productOrder, p.ID)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := cloneProduct(p)
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	old, ok := m.productsByID[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.Rating, p.ReviewCount = old.Rating, old.ReviewCount
	p.UpdatedAt = m.now()
	p.SyncStockFlag()
	m.productsByID[p.ID] = cloneProduct(*p)
	return nil
}

func (m *MemoryStore) SetRating(ctx context.Context, id string, rating float64, count int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return ErrNotFound
	}
	p.Rating, p.ReviewCount = rating, count
	m.productsByID[id] = p
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.productsByID[id]; !ok {
		return ErrNotFound
	}
	delete(m.productsByID, id)
	for i, pid := range m.productOrder {
		if pid == id {
			m.productOrder = append(m.productOrder[:i], m.productOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := m.filterProducts(f)
	sortProducts(out, f.Sort)
	return paginate(out, f.Skip, f.Limit), nil
}

func (m *MemoryStore) Count(ctx context.Context, f ProductFilter) (int64, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	return int64(len(m.filterProducts(f))), nil
}

func (m *MemoryStore) Distinct(ctx context.Context, field string, f ProductFilter) ([]string, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range m.filterProducts(f) {
		var v string
		switch field {
		case "category":
			v = p.Category
		case "subcategory":
			v = p.Subcategory
		case "brand":
			v = p.Brand
		default:
			return nil, ErrUnknownField
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// filterProducts keeps insertion order, which is the relevance order
func (m *MemoryStore) filterProducts(f ProductFilter) []domain.Product {
	out := make([]domain.Product, 0)
	for _, id := range m.productOrder {
		p := m.productsByID[id]
		if matchProduct(p, f) {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}

func matchProduct(p domain.Product, f ProductFilter) bool {
	if f.Search != "" &&
		!containsIgnoreCase(p.Name, f.Search) &&
		!containsIgnoreCase(p.Description, f.Search) &&
		!containsIgnoreCase(p.Category, f.Search) &&
		!containsIgnoreCase(p.Brand, f.Search) {
		return false
	}
	if f.Exact {
		if f.Category != "" && p.Category != f.Category {
			return false
		}
		if f.Brand != "" && p.Brand != f.Brand {
			return false
		}
	} else {
		if f.Category != "" && !containsIgnoreCase(p.Category, f.Category) {
			return false
		}
		if f.Brand != "" && !containsIgnoreCase(p.Brand, f.Brand) {
			return false
		}
	}
	if f.Subcategory != "" && p.Subcategory != f.Subcategory {
		return false
	}
	if f.SellerID != "" && p.SellerID != f.SellerID {
		return false
	}
	if len(f.IDs) > 0 && !containsString(f.IDs, p.ID) {
		return false
	}
	if containsString(f.ExcludeIDs, p.ID) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.InStock && !p.Available() {
		return false
	}
	return true
}

func sortProducts(list []domain.Product, mode SortMode) {
	switch mode {
	case SortPriceAsc:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price < list[j].Price })
	case SortPriceDesc:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price > list[j].Price })
	case SortNewest:
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	case SortRating:
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Rating != list[j].Rating {
				return list[i].Rating > list[j].Rating
			}
			return list[i].Name < list[j].Name
		})
	}
}

func paginate[T any](list []T, skip, limit int) []T {
	if skip > 0 {
		if skip >= len(list) {
			return list[:0]
		}
		list = list[skip:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func cloneProduct(p domain.Product) domain.Product {
	p.Images = append([]string(nil), p.Images...)
	return p
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.GuestInfo != nil {
		g := *o.GuestInfo
		o.GuestInfo = &g
	}
	return o
}

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if o.ID == "" {
		o.ID = NewID()
	}
	o.CreatedAt = mo.store.now()
	o.UpdatedAt = o.CreatedAt
	mo.store.ordersByID[o.ID] = cloneOrder(*o)
	mo.store.orderOrder = append(mo.store.orderOrder, o.ID)
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.ordersByID[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = mo.store.now()
	mo.store.ordersByID[o.ID] = cloneOrder(*o)
	return nil
}

func (mo *MemoryOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	// newest insertion first, then a stable sort on the timestamp
	for i := len(mo.store.orderOrder) - 1; i >= 0; i-- {
		o := mo.store.ordersByID[mo.store.orderOrder[i]]
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.ProductID != "" && !orderHasProduct(o, f.ProductID) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, 0, f.Limit), nil
}

func orderHasProduct(o domain.Order, productID string) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// MemoryCoupons промокоды по нормализованному коду
type MemoryCoupons struct{ store *MemoryStore }

func NewMemoryCoupons(store *MemoryStore) *MemoryCoupons { return &MemoryCoupons{store: store} }

var _ CouponRepository = (*MemoryCoupons)(nil)

func (mc *MemoryCoupons) Create(ctx context.Context, c *domain.Coupon) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	c.Code = domain.NormalizeCouponCode(c.Code)
	if _, ok := mc.store.couponsByKey[c.Code]; ok {
		return ErrDuplicate
	}
	if c.ID == "" {
		c.ID = NewID()
	}
	c.CreatedAt = mc.store.now()
	mc.store.couponsByKey[c.Code] = *c
	return nil
}

func (mc *MemoryCoupons) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.couponsByKey[domain.NormalizeCouponCode(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (mc *MemoryCoupons) List(ctx context.Context) ([]domain.Coupon, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := make([]domain.Coupon, 0, len(mc.store.couponsByKey))
	for _, c := range mc.store.couponsByKey {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (mc *MemoryCoupons) IncrementUsage(ctx context.Context, code string) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	key := domain.NormalizeCouponCode(code)
	c, ok := mc.store.couponsByKey[key]
	if !ok {
		return ErrNotFound
	}
	c.UsedCount++
	mc.store.couponsByKey[key] = c
	return nil
}

// MemoryCarts корзины
type MemoryCarts struct{ store *MemoryStore }

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

var _ CartRepository = (*MemoryCarts)(nil)

func (mc *MemoryCarts) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.carts[userID]
	if !ok {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	c.Items = append([]domain.CartItem{}, c.Items...)
	return &c, nil
}

func (mc *MemoryCarts) Save(ctx context.Context, c *domain.Cart) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	c.UpdatedAt = mc.store.now()
	cp := *c
	cp.Items = append([]domain.CartItem{}, c.Items...)
	mc.store.carts[c.UserID] = cp
	return nil
}

func (mc *MemoryCarts) Delete(ctx context.Context, userID string) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	delete(mc.store.carts, userID)
	return nil
}

// MemoryWishlists избранное
type MemoryWishlists struct{ store *MemoryStore }

func NewMemoryWishlists(store *MemoryStore) *MemoryWishlists { return &MemoryWishlists{store: store} }

var _ WishlistRepository = (*MemoryWishlists)(nil)

func (mw *MemoryWishlists) Get(ctx context.Context, userID string) (*domain.Wishlist, error) {
	mw.store.rlock(ctx)
	defer mw.store.runlock(ctx)
	w, ok := mw.store.wishlists[userID]
	if !ok {
		return &domain.Wishlist{UserID: userID, ProductIDs: []string{}}, nil
	}
	w.ProductIDs = append([]string{}, w.ProductIDs...)
	return &w, nil
}

func (mw *MemoryWishlists) Save(ctx context.Context, w *domain.Wishlist) error {
	mw.store.wlock(ctx)
	defer mw.store.wunlock(ctx)
	w.UpdatedAt = mw.store.now()
	cp := *w
	cp.ProductIDs = append([]string{}, w.ProductIDs...)
	mw.store.wishlists[w.UserID] = cp
	return nil
}

// MemoryReturns заявки на возврат
type MemoryReturns struct{ store *MemoryStore }

func NewMemoryReturns(store *MemoryStore) *MemoryReturns { return &MemoryReturns{store: store} }

var _ ReturnRepository = (*MemoryReturns)(nil)

func (mr *MemoryReturns) Create(ctx context.Context, r *domain.ReturnRequest) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	if r.ID == "" {
		r.ID = NewID()
	}
	r.CreatedAt = mr.store.now()
	r.UpdatedAt = r.CreatedAt
	mr.store.returnsByID[r.ID] = *r
	mr.store.returnOrder = append(mr.store.returnOrder, r.ID)
	return nil
}

func (mr *MemoryReturns) GetByID(ctx context.Context, id string) (*domain.ReturnRequest, error) {
	mr.store.rlock(ctx)
	defer mr.store.runlock(ctx)
	r, ok := mr.store.returnsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (mr *MemoryReturns) Update(ctx context.Context, r *domain.ReturnRequest) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	if _, ok := mr.store.returnsByID[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = mr.store.now()
	mr.store.returnsByID[r.ID] = *r
	return nil
}

func (mr *MemoryReturns) List(ctx context.Context, f ReturnFilter) ([]domain.ReturnRequest, error) {
	mr.store.rlock(ctx)
	defer mr.store.runlock(ctx)
	out := make([]domain.ReturnRequest, 0)
	for _, id := range mr.store.returnOrder {
		r := mr.store.returnsByID[id]
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.OrderID != "" && r.OrderID != f.OrderID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// MemorySearchLogs журнал поиска
type MemorySearchLogs struct{ store *MemoryStore }

func NewMemorySearchLogs(store *MemoryStore) *MemorySearchLogs {
	return &MemorySearchLogs{store: store}
}

var _ SearchLogRepository = (*MemorySearchLogs)(nil)

func (ml *MemorySearchLogs) Create(ctx context.Context, l *domain.SearchLog) error {
	ml.store.wlock(ctx)
	defer ml.store.wunlock(ctx)
	if l.ID == "" {
		l.ID = NewID()
	}
	l.CreatedAt = ml.store.now()
	ml.store.searchLogs = append(ml.store.searchLogs, *l)
	return nil
}

// Entries returns a copy of the log, oldest first
func (ml *MemorySearchLogs) Entries() []domain.SearchLog {
	ml.store.mu.RLock()
	defer ml.store.mu.RUnlock()
	return append([]domain.SearchLog(nil), ml.store.searchLogs...)
}

// MemoryCheckoutSessions сессии оформления заказа
type MemoryCheckoutSessions struct{ store *MemoryStore }

func NewMemoryCheckoutSessions(store *MemoryStore) *MemoryCheckoutSessions {
	return &MemoryCheckoutSessions{store: store}
}

var _ CheckoutSessionRepository = (*MemoryCheckoutSessions)(nil)

func (ms *MemoryCheckoutSessions) Create(ctx context.Context, s *checkout.State) error {
	ms.store.wlock(ctx)
	defer ms.store.wunlock(ctx)
	if s.ID == "" {
		s.ID = NewID()
	}
	if _, ok := ms.store.sessions[s.ID]; ok {
		return ErrDuplicate
	}
	ms.store.sessions[s.ID] = *s
	return nil
}

func (ms *MemoryCheckoutSessions) Get(ctx context.Context, id string) (*checkout.State, error) {
	ms.store.rlock(ctx)
	defer ms.store.runlock(ctx)
	s, ok := ms.store.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (ms *MemoryCheckoutSessions) Save(ctx context.Context, s *checkout.State) error {
	ms.store.wlock(ctx)
	defer ms.store.wunlock(ctx)
	if _, ok := ms.store.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	s.UpdatedAt = ms.store.now()
	ms.store.sessions[s.ID] = *s
	return nil
}

// MemoryAddressBooks адресные книги
type MemoryAddressBooks struct{ store *MemoryStore }

func NewMemoryAddressBooks(store *MemoryStore) *MemoryAddressBooks {
	return &MemoryAddressBooks{store: store}
}

var _ AddressBookRepository = (*MemoryAddressBooks)(nil)

func (ma *MemoryAddressBooks) Get(ctx context.Context, userID string) (*domain.AddressBook, error) {
	ma.store.rlock(ctx)
	defer ma.store.runlock(ctx)
	b, ok := ma.store.addressBooks[userID]
	if !ok {
		return &domain.AddressBook{UserID: userID, Addresses: []domain.SavedAddress{}}, nil
	}
	b.Addresses = append([]domain.SavedAddress{}, b.Addresses...)
	return &b, nil
}

func (ma *MemoryAddressBooks) Save(ctx context.Context, b *domain.AddressBook) error {
	ma.store.wlock(ctx)
	defer ma.store.wunlock(ctx)
	b.UpdatedAt = ma.store.now()
	cp := *b
	cp.Addresses = append([]domain.SavedAddress{}, b.Addresses...)
	ma.store.addressBooks[b.UserID] = cp
	return nil
}

// MemoryReviews отзывы
type MemoryReviews struct{ store *MemoryStore }

func NewMemoryReviews(store *MemoryStore) *MemoryReviews { return &MemoryReviews{store: store} }

var _ ReviewRepository = (*MemoryReviews)(nil)

func (mr *MemoryReviews) Create(ctx context.Context, r *domain.Review) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	if r.ID == "" {
		r.ID = NewID()
	}
	r.CreatedAt = mr.store.now()
	mr.store.reviewsByID[r.ID] = *r
	mr.store.reviewOrder = append(mr.store.reviewOrder, r.ID)
	return nil
}

func (mr *MemoryReviews) List(ctx context.Context, f ReviewFilter) ([]domain.Review, error) {
	mr.store.rlock(ctx)
	defer mr.store.runlock(ctx)
	out := make([]domain.Review, 0)
	for i := len(mr.store.reviewOrder) - 1; i >= 0; i-- {
		r := mr.store.reviewsByID[mr.store.reviewOrder[i]]
		if f.ProductID != "" && r.ProductID != f.ProductID {
			continue
		}
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MemoryStockNotifications подписки на поступление товара
type MemoryStockNotifications struct{ store *MemoryStore }

func NewMemoryStockNotifications(store *MemoryStore) *MemoryStockNotifications {
	return &MemoryStockNotifications{store: store}
}

var _ StockNotificationRepository = (*MemoryStockNotifications)(nil)

func (mn *MemoryStockNotifications) Create(ctx context.Context, n *domain.StockNotification) error {
	mn.store.wlock(ctx)
	defer mn.store.wunlock(ctx)
	for _, id := range mn.store.alertOrder {
		ex := mn.store.alertsByID[id]
		if ex.Pending() && ex.UserID == n.UserID && ex.ProductID == n.ProductID {
			return ErrDuplicate
		}
	}
	if n.ID == "" {
		n.ID = NewID()
	}
	n.CreatedAt = mn.store.now()
	mn.store.alertsByID[n.ID] = *n
	mn.store.alertOrder = append(mn.store.alertOrder, n.ID)
	return nil
}

func (mn *MemoryStockNotifications) ListPending(ctx context.Context, productID string) ([]domain.StockNotification, error) {
	mn.store.rlock(ctx)
	defer mn.store.runlock(ctx)
	out := make([]domain.StockNotification, 0)
	for _, id := range mn.store.alertOrder {
		n := mn.store.alertsByID[id]
		if n.Pending() && n.ProductID == productID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (mn *MemoryStockNotifications) MarkNotified(ctx context.Context, id string, at time.Time) error {
	mn.store.wlock(ctx)
	defer mn.store.wunlock(ctx)
	n, ok := mn.store.alertsByID[id]
	if !ok {
		return ErrNotFound
	}
	n.NotifiedAt = &at
	mn.store.alertsByID[id] = n
	return nil
}

// MemoryRecentlyViewed история просмотров
type MemoryRecentlyViewed struct{ store *MemoryStore }

func NewMemoryRecentlyViewed(store *MemoryStore) *MemoryRecentlyViewed {
	return &MemoryRecentlyViewed{store: store}
}

var _ RecentlyViewedRepository = (*MemoryRecentlyViewed)(nil)

func (mv *MemoryRecentlyViewed) Get(ctx context.Context, userID string) (*domain.RecentlyViewed, error) {
	mv.store.rlock(ctx)
	defer mv.store.runlock(ctx)
	r, ok := mv.store.recent[userID]
	if !ok {
		return &domain.RecentlyViewed{UserID: userID, ProductIDs: []string{}}, nil
	}
	r.ProductIDs = append([]string{}, r.ProductIDs...)
	return &r, nil
}

func (mv *MemoryRecentlyViewed) Save(ctx context.Context, r *domain.RecentlyViewed) error {
	mv.store.wlock(ctx)
	defer mv.store.wunlock(ctx)
	r.UpdatedAt = mv.store.now()
	cp := *r
	cp.ProductIDs = append([]string{}, r.ProductIDs...)
	mv.store.recent[r.UserID] = cp
	return nil
}

// MemoryTx holds the write lock for the whole callback and rolls every
// collection back when it fails
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// nested calls reuse the outer lock
	if isTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	saved := tx.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		tx.store.restore(saved)
		return err
	}
	return nil
}
