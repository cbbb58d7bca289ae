package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"canokart/internal/domain"
	"canokart/internal/payment"
	"canokart/internal/pricing"
	"canokart/internal/repository"
	"canokart/internal/service"
)

var (
	asAdmin  = domain.Identity{UserID: "admin-1", Role: domain.RoleAdmin}
	asSeller = domain.Identity{UserID: "seller-1", Role: domain.RoleSeller}
	asBuyer  = domain.Identity{UserID: "u1", Role: domain.RoleCustomer}
	anon     = domain.Identity{}
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := repository.NewMemoryStore()
	ordersRepo := repository.NewMemoryOrders(store)
	cartsRepo := repository.NewMemoryCarts(store)
	couponsRepo := repository.NewMemoryCoupons(store)
	tx := repository.NewMemoryTx(store)
	engine := pricing.NewEngine(pricing.DefaultRules())
	gateway := payment.NewMockGateway()
	log := zap.NewNop()

	if err := service.Seed(context.Background(), store, couponsRepo); err != nil {
		t.Fatalf("seed: %v", err)
	}

	alerts := service.NewStockAlertService(repository.NewMemoryStockNotifications(store), store, log)
	products := alerts.Watch(store)
	coupons := service.NewCouponService(couponsRepo)
	addresses := service.NewAddressService(repository.NewMemoryAddressBooks(store))
	wishlists := repository.NewMemoryWishlists(store)
	orders := service.NewOrderService(service.OrderDeps{
		Products: products,
		Orders:   ordersRepo,
		Carts:    cartsRepo,
		Coupons:  coupons,
		Pricing:  engine,
		Payments: gateway,
		Tx:       tx,
		Log:      log,
	})
	return NewServer(Services{
		Products: service.NewProductService(products, ordersRepo),
		Search:   service.NewSearchService(store, repository.NewMemorySearchLogs(store), log, 20, 100),
		Coupons:  coupons,
		Carts:    service.NewCartService(cartsRepo, store, engine),
		Wishlist: service.NewWishlistService(wishlists, store),
		Orders:   orders,
		Checkout: service.NewCheckoutService(repository.NewMemoryCheckoutSessions(store), cartsRepo, addresses, orders, log),
		Returns:  service.NewReturnService(repository.NewMemoryReturns(store), ordersRepo, products, tx),
		Pricing:  engine,
		Payments: gateway,

		Addresses: addresses,
		Reviews:   service.NewReviewService(repository.NewMemoryReviews(store), store, tx),
		Analytics: service.NewAnalyticsService(store, ordersRepo, cartsRepo, wishlists),
		Alerts:    alerts,
		Recent:    service.NewRecentlyViewedService(repository.NewMemoryRecentlyViewed(store), store),
	}, log)
}

func doAs(t *testing.T, s *Server, who domain.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if who.UserID != "" {
		req.Header.Set(headerUserID, who.UserID)
		req.Header.Set(headerUserRole, string(who.Role))
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doAs(t, s, anon, method, path, body)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func newProduct(t *testing.T, s *Server, name string, price float64, stock int64) domain.Product {
	t.Helper()
	w := doAs(t, s, asSeller, http.MethodPost, "/api/seller/products", map[string]any{
		"name": name, "category": "Test", "price": price, "stock": stock,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create product %v: %s", w.Code, w.Body.String())
	}
	return decode[domain.Product](t, w)
}

func TestProductFlow(t *testing.T) {
	s := setupServer(t)
	// create
	p := newProduct(t, s, "Aspirin", 10, 5)
	if p.SellerID != asSeller.UserID || !p.InStock {
		t.Fatalf("unexpected product %+v", p)
	}
	// get
	w := doJSON(t, s, http.MethodGet, "/api/products/"+p.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get code %v", w.Code)
	}
	// update
	w = doAs(t, s, asSeller, http.MethodPut, "/api/seller/products/"+p.ID, map[string]any{
		"name": "A+", "category": "Test", "price": 12, "stock": 7,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %v", w.Code)
	}
	// list
	w = doJSON(t, s, http.MethodGet, "/api/products?category=Test", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %v", w.Code)
	}
	if list := decode[[]domain.Product](t, w); len(list) != 1 || list[0].Price != 12 {
		t.Fatalf("list: %+v", list)
	}
	w = doAs(t, s, asSeller, http.MethodGet, "/api/seller/products", nil)
	if list := decode[[]domain.Product](t, w); len(list) != 1 {
		t.Fatalf("seller list: %+v", list)
	}
	// delete
	w = doAs(t, s, asSeller, http.MethodDelete, "/api/seller/products/"+p.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete code %v", w.Code)
	}
}

func TestCatalogFacets(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/categories", nil)
	if cats := decode[[]string](t, w); w.Code != http.StatusOK || len(cats) == 0 {
		t.Fatalf("categories %v %v", w.Code, cats)
	}
	w = doJSON(t, s, http.MethodGet, "/api/subcategories/Women", nil)
	if subs := decode[[]string](t, w); len(subs) != 2 {
		t.Fatalf("subcategories %v", subs)
	}
	w = doJSON(t, s, http.MethodGet, "/api/brands", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("brands %v", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/search?q=", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on empty query, got %v", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/search?q=shirt&inStock=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search %v", w.Code)
	}
	res := decode[service.SearchResult](t, w)
	if res.TotalCount != 1 || res.Products[0].Name != "Men's Casual T-shirt" || res.TotalPages != 1 {
		t.Fatalf("search result %+v", res)
	}
	w = doJSON(t, s, http.MethodGet, "/api/search/suggestions?q=sa", nil)
	got := decode[map[string][]string](t, w)
	if len(got["suggestions"]) == 0 {
		t.Fatalf("no suggestions: %s", w.Body.String())
	}
}

func TestPricingEndpoints(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/validate-coupon", map[string]any{"code": "save10", "orderTotal": 200})
	if w.Code != http.StatusOK {
		t.Fatalf("coupon %v: %s", w.Code, w.Body.String())
	}
	if res := decode[service.CouponResult](t, w); res.Discount != 20 {
		t.Fatalf("discount %v", res.Discount)
	}
	w = doJSON(t, s, http.MethodPost, "/api/validate-coupon", map[string]any{"code": "SAVE10", "orderTotal": 20})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("min order: expected 400, got %v", w.Code)
	}

	w = doJSON(t, s, http.MethodPost, "/api/calculate-shipping", map[string]any{"weight": 10, "distance": 100})
	if got := decode[map[string]float64](t, w); got["shipping"] != 15 {
		t.Fatalf("shipping %v", got)
	}
	w = doJSON(t, s, http.MethodPost, "/api/calculate-shipping", map[string]any{"weight": 1, "method": "drone"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown method: expected 400, got %v", w.Code)
	}

	w = doJSON(t, s, http.MethodPost, "/api/calculate-tax", map[string]any{"subtotal": 100, "state": "ca"})
	if got := decode[map[string]float64](t, w); got["tax"] != 8.75 {
		t.Fatalf("tax %v", got)
	}

	w = doJSON(t, s, http.MethodPost, "/api/process-payment", map[string]any{"amount": 10, "paymentMethod": "upi"})
	if r := decode[payment.Receipt](t, w); !r.Success || r.TransactionID == "" {
		t.Fatalf("payment %+v", r)
	}
}

func TestOrderFlow(t *testing.T) {
	s := setupServer(t)
	p := newProduct(t, s, "Aspirin", 100, 5)

	w := doJSON(t, s, http.MethodPost, "/api/cart", map[string]any{"productId": p.ID, "quantity": 2})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous cart: expected 401, got %v", w.Code)
	}
	w = doAs(t, s, asBuyer, http.MethodPost, "/api/cart", map[string]any{"productId": p.ID, "quantity": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("add to cart %v", w.Code)
	}
	w = doAs(t, s, asBuyer, http.MethodGet, "/api/cart", nil)
	if view := decode[service.CartView](t, w); view.Subtotal != 200 {
		t.Fatalf("cart view %+v", view)
	}

	// create order
	w = doAs(t, s, asBuyer, http.MethodPost, "/api/checkout", map[string]any{
		"address":       map[string]any{"fullName": "John", "city": "LA", "state": "CA", "pincode": "90001"},
		"couponCode":    "SAVE10",
		"paymentMethod": "card",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout %v: %s", w.Code, w.Body.String())
	}
	resp := decode[orderCreatedResp](t, w)
	if resp.OrderID == "" || resp.Total != 245.75 {
		t.Fatalf("checkout response %+v", resp)
	}

	// get order
	w = doAs(t, s, asBuyer, http.MethodGet, "/api/orders/"+resp.OrderID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get order %v", w.Code)
	}
	w = doAs(t, s, domain.Identity{UserID: "u2", Role: domain.RoleCustomer}, http.MethodGet, "/api/orders/"+resp.OrderID, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign order: expected 403, got %v", w.Code)
	}
	w = doAs(t, s, asBuyer, http.MethodGet, "/api/orders", nil)
	if list := decode[[]domain.Order](t, w); len(list) != 1 {
		t.Fatalf("my orders %d", len(list))
	}

	// skipping statuses is rejected
	w = doAs(t, s, asAdmin, http.MethodPut, "/api/admin/orders/"+resp.OrderID, map[string]any{"status": "shipped"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}
	w = doAs(t, s, asBuyer, http.MethodPut, "/api/admin/orders/"+resp.OrderID, map[string]any{"status": "processing"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("customer on admin route: expected 403, got %v", w.Code)
	}

	// cancel
	w = doAs(t, s, asBuyer, http.MethodPost, "/api/orders/"+resp.OrderID+"/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel %v", w.Code)
	}
	w = doAs(t, s, asBuyer, http.MethodPost, "/api/orders/"+resp.OrderID+"/cancel", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", w.Code)
	}
}

func TestGuestCheckoutEndpoint(t *testing.T) {
	s := setupServer(t)
	p := newProduct(t, s, "Lamp", 40, 1)
	body := map[string]any{
		"items": []map[string]any{{"productId": p.ID, "quantity": 1, "price": 1}},
		"guestInfo": map[string]any{
			"name": "Guest", "email": "g@example.com",
			"address": map[string]any{"fullName": "Guest", "city": "Austin", "state": "TX", "pincode": "73301"},
		},
		"paymentMethod": "cod",
		"total":         1,
	}
	w := doJSON(t, s, http.MethodPost, "/api/guest-checkout", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("guest checkout %v: %s", w.Code, w.Body.String())
	}
	if resp := decode[orderCreatedResp](t, w); resp.Order.Subtotal != 40 {
		t.Fatalf("guest price trusted: %+v", resp.Order.Totals)
	}
	w = doJSON(t, s, http.MethodPost, "/api/guest-checkout", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("sold out: expected 400, got %v", w.Code)
	}
}

func TestCheckoutSessionEndpoints(t *testing.T) {
	s := setupServer(t)
	p := newProduct(t, s, "Chair", 100, 3)

	w := doJSON(t, s, http.MethodPost, "/api/checkout/sessions", map[string]any{
		"items": []map[string]any{{"productId": p.ID, "quantity": 1}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("start %v: %s", w.Code, w.Body.String())
	}
	st := decode[map[string]any](t, w)
	id, _ := st["id"].(string)
	base := "/api/checkout/sessions/" + id

	w = doJSON(t, s, http.MethodPost, base+"/next", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("next %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPost, base+"/next", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing address: expected 400, got %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPatch, base, map[string]any{
		"guestInfo": map[string]any{
			"name": "G", "email": "g@example.com",
			"address": map[string]any{"fullName": "G", "city": "Miami", "state": "FL", "pincode": "33101"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch %v", w.Code)
	}
	for i := 0; i < 2; i++ {
		if w = doJSON(t, s, http.MethodPost, base+"/next", nil); w.Code != http.StatusOK {
			t.Fatalf("next %d: %v %s", i, w.Code, w.Body.String())
		}
	}
	w = doJSON(t, s, http.MethodPost, base+"/next", map[string]any{"paymentMethod": "wallet"})
	if w.Code != http.StatusOK {
		t.Fatalf("place %v: %s", w.Code, w.Body.String())
	}
	st = decode[map[string]any](t, w)
	if st["orderId"] == nil || st["step"] != float64(5) {
		t.Fatalf("confirmation %+v", st)
	}
	w = doJSON(t, s, http.MethodPatch, base, map[string]any{"couponCode": "SAVE10"})
	if w.Code != http.StatusConflict {
		t.Fatalf("patch after placement: expected 409, got %v", w.Code)
	}
}

func TestReturnsEndpoints(t *testing.T) {
	s := setupServer(t)
	p := newProduct(t, s, "Mug", 10, 5)
	doAs(t, s, asBuyer, http.MethodPost, "/api/cart", map[string]any{"productId": p.ID, "quantity": 1})
	w := doAs(t, s, asBuyer, http.MethodPost, "/api/checkout", map[string]any{
		"address":       map[string]any{"fullName": "John", "city": "NYC", "state": "NY", "pincode": "10001"},
		"paymentMethod": "cod",
	})
	orderID := decode[orderCreatedResp](t, w).OrderID

	w = doAs(t, s, asBuyer, http.MethodPost, "/api/return-request", map[string]any{"orderId": orderID, "reason": "broken"})
	if w.Code != http.StatusCreated {
		t.Fatalf("return request %v: %s", w.Code, w.Body.String())
	}
	r := decode[domain.ReturnRequest](t, w)
	w = doAs(t, s, asAdmin, http.MethodPut, "/api/admin/return-requests/"+r.ID, map[string]any{"status": "processed", "refundAmount": 10})
	if w.Code != http.StatusOK {
		t.Fatalf("review %v: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, s, http.MethodGet, "/api/products/"+p.ID, nil)
	if got := decode[domain.Product](t, w); got.Stock != 5 {
		t.Fatalf("stock after processed return %d", got.Stock)
	}
	w = doAs(t, s, asBuyer, http.MethodGet, "/api/return-requests", nil)
	if list := decode[[]domain.ReturnRequest](t, w); len(list) != 1 || list[0].Status != domain.ReturnProcessed {
		t.Fatalf("my returns %+v", list)
	}
}

func TestHTTP_BadRequests(t *testing.T) {
	s := setupServer(t)
	// invalid product body
	w := doAs(t, s, asSeller, http.MethodPost, "/api/seller/products", map[string]any{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}
	// malformed json
	req := httptest.NewRequest(http.MethodPost, "/api/validate-coupon", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", rec.Code)
	}
	// customers cannot sell
	w = doAs(t, s, asBuyer, http.MethodPost, "/api/seller/products", map[string]any{"name": "x", "category": "y"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", w.Code)
	}
	// malformed numbers are rejected rather than ignored
	for _, path := range []string{
		"/api/products?minPrice=abc",
		"/api/products?maxPrice=1e",
		"/api/search?q=shirt&page=two",
		"/api/search?q=shirt&limit=1.5",
		"/api/search?q=shirt&minPrice=cheap",
	} {
		w = doJSON(t, s, http.MethodGet, path, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %v", path, w.Code)
		}
		if body := decode[map[string]string](t, w); body["error"] == "" {
			t.Fatalf("%s: no error message", path)
		}
	}
}

func TestHTTP_NotFoundAndRequestID(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/products/999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}
	if w.Header().Get(headerRequestID) == "" {
		t.Fatalf("request id not echoed")
	}
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(headerRequestID, "abc")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get(headerRequestID) != "abc" {
		t.Fatalf("health %v %q", rec.Code, rec.Header().Get(headerRequestID))
	}
}

func TestAddressBookEndpoints(t *testing.T) {
	s := setupServer(t)
	if w := doJSON(t, s, http.MethodGet, "/api/user/addresses", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous address book: %v", w.Code)
	}
	home := map[string]any{"fullName": "Jane Doe", "house": "1", "city": "Austin", "state": "TX", "pincode": "73301"}
	w := doAs(t, s, asBuyer, http.MethodPost, "/api/user/addresses", home)
	if w.Code != http.StatusCreated {
		t.Fatalf("add: %v %s", w.Code, w.Body.String())
	}
	list := decode[[]domain.SavedAddress](t, w)
	if len(list) != 1 || !list[0].IsDefault || list[0].City != "Austin" {
		t.Fatalf("first address: %+v", list)
	}

	work := map[string]any{"label": "work", "fullName": "Jane Doe", "city": "Sacramento", "state": "CA", "pincode": "94203", "isDefault": true}
	list = decode[[]domain.SavedAddress](t, doAs(t, s, asBuyer, http.MethodPost, "/api/user/addresses", work))
	if len(list) != 2 || list[0].IsDefault || !list[1].IsDefault {
		t.Fatalf("default not moved: %+v", list)
	}
	workID := list[1].ID

	// checkout preselects the default and accepts a saved address id
	p := newProduct(t, s, "Mug", 10, 5)
	w = doAs(t, s, asBuyer, http.MethodPost, "/api/checkout/sessions", map[string]any{"items": []map[string]any{{"productId": p.ID, "quantity": 1}}})
	if w.Code != http.StatusCreated {
		t.Fatalf("start: %v %s", w.Code, w.Body.String())
	}
	st := decode[map[string]any](t, w)
	sel, _ := st["selectedAddress"].(map[string]any)
	if sel["state"] != "CA" {
		t.Fatalf("default address not preselected: %v", st["selectedAddress"])
	}

	w = doAs(t, s, asBuyer, http.MethodPut, "/api/user/addresses/"+workID, map[string]any{"label": "work", "fullName": "Jane Doe", "city": "Albany", "state": "NY", "pincode": "12201"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %v %s", w.Code, w.Body.String())
	}
	w = doAs(t, s, asBuyer, http.MethodDelete, "/api/user/addresses/"+workID, nil)
	list = decode[[]domain.SavedAddress](t, w)
	if w.Code != http.StatusOK || len(list) != 1 || !list[0].IsDefault {
		t.Fatalf("delete: %v %+v", w.Code, list)
	}
	if w := doAs(t, s, asBuyer, http.MethodDelete, "/api/user/addresses/"+workID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %v", w.Code)
	}
	if w := doAs(t, s, asBuyer, http.MethodPost, "/api/user/addresses", map[string]any{"fullName": "X"}); w.Code != http.StatusBadRequest {
		t.Fatalf("partial address: %v", w.Code)
	}
}

func TestReviewEndpoints(t *testing.T) {
	s := setupServer(t)
	p := newProduct(t, s, "Lamp", 10, 5)

	if w := doJSON(t, s, http.MethodPost, "/api/reviews", map[string]any{"productId": p.ID, "rating": 5}); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous review: %v", w.Code)
	}
	if w := doAs(t, s, asBuyer, http.MethodPost, "/api/reviews", map[string]any{"productId": p.ID, "rating": 9}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad rating: %v", w.Code)
	}
	for _, r := range []int{5, 5} {
		if w := doAs(t, s, asBuyer, http.MethodPost, "/api/reviews", map[string]any{"productId": p.ID, "rating": r, "comment": "bright"}); w.Code != http.StatusCreated {
			t.Fatalf("review: %v %s", w.Code, w.Body.String())
		}
	}
	reviews := decode[[]domain.Review](t, doJSON(t, s, http.MethodGet, "/api/reviews/"+p.ID, nil))
	if len(reviews) != 2 || reviews[0].UserID != asBuyer.UserID {
		t.Fatalf("reviews: %+v", reviews)
	}

	got := decode[domain.Product](t, doJSON(t, s, http.MethodGet, "/api/products/"+p.ID, nil))
	if got.Rating != 5 || got.ReviewCount != 2 {
		t.Fatalf("rating not aggregated: %+v", got)
	}
	featured := decode[[]domain.Product](t, doJSON(t, s, http.MethodGet, "/api/featured-products", nil))
	if len(featured) == 0 || featured[0].ID != p.ID || len(featured) > service.FeaturedLimit {
		t.Fatalf("featured: %+v", featured)
	}
	coll := decode[[]domain.Product](t, doJSON(t, s, http.MethodGet, "/api/our-collection", nil))
	if len(coll) == 0 || coll[0].ID != p.ID {
		t.Fatalf("collection: %+v", coll)
	}
	rated := decode[[]domain.Product](t, doJSON(t, s, http.MethodGet, "/api/products?sort=rating", nil))
	if rated[0].ID != p.ID {
		t.Fatalf("rating sort starts with %s", rated[0].Name)
	}
}

func TestAccountEndpoints(t *testing.T) {
	s := setupServer(t)
	p := newProduct(t, s, "Kettle", 40, 0)

	// viewing while signed in is remembered
	doAs(t, s, asBuyer, http.MethodGet, "/api/products/"+p.ID, nil)
	recent := decode[[]domain.Product](t, doAs(t, s, asBuyer, http.MethodGet, "/api/recently-viewed", nil))
	if len(recent) != 1 || recent[0].ID != p.ID {
		t.Fatalf("recently viewed: %+v", recent)
	}
	if w := doJSON(t, s, http.MethodGet, "/api/recently-viewed", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous history: %v", w.Code)
	}

	w := doAs(t, s, asBuyer, http.MethodPost, "/api/stock-notifications", map[string]any{"productId": p.ID, "email": "jane@example.com"})
	if w.Code != http.StatusCreated {
		t.Fatalf("subscribe: %v %s", w.Code, w.Body.String())
	}
	in := newProduct(t, s, "Toaster", 40, 3)
	if w := doAs(t, s, asBuyer, http.MethodPost, "/api/stock-notifications", map[string]any{"productId": in.ID}); w.Code != http.StatusConflict {
		t.Fatalf("in-stock subscribe: %v", w.Code)
	}

	doAs(t, s, asBuyer, http.MethodPost, "/api/cart", map[string]any{"productId": in.ID, "quantity": 2})
	doAs(t, s, asBuyer, http.MethodPost, "/api/wishlist", map[string]any{"productId": p.ID})
	stats := decode[service.UserStats](t, doAs(t, s, asBuyer, http.MethodGet, "/api/user/stats", nil))
	if stats.Orders != 0 || stats.Wishlist != 1 || stats.CartQty != 2 || stats.Products != nil {
		t.Fatalf("buyer stats: %+v", stats)
	}
	sellerStats := decode[service.UserStats](t, doAs(t, s, asSeller, http.MethodGet, "/api/user/stats", nil))
	if sellerStats.Products == nil || *sellerStats.Products != 2 {
		t.Fatalf("seller stats: %+v", sellerStats)
	}
}

func TestAdminAnalyticsEndpoint(t *testing.T) {
	s := setupServer(t)
	p := newProduct(t, s, "Desk", 100, 5)
	doAs(t, s, asBuyer, http.MethodPost, "/api/cart", map[string]any{"productId": p.ID, "quantity": 1})
	w := doAs(t, s, asBuyer, http.MethodPost, "/api/checkout", map[string]any{
		"address":       map[string]any{"fullName": "Jane Doe", "city": "Austin", "state": "TX", "pincode": "73301"},
		"paymentMethod": "cod",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout: %v %s", w.Code, w.Body.String())
	}
	o := decode[orderCreatedResp](t, w)

	if w := doAs(t, s, asBuyer, http.MethodGet, "/api/admin/analytics", nil); w.Code != http.StatusForbidden {
		t.Fatalf("customer analytics: %v", w.Code)
	}
	d := decode[service.Dashboard](t, doAs(t, s, asAdmin, http.MethodGet, "/api/admin/analytics", nil))
	if d.TotalOrders != 1 || d.TotalCustomers != 1 || d.TotalRevenue != o.Total || d.TotalProducts == 0 {
		t.Fatalf("dashboard: %+v", d)
	}
	if d.OrdersByStatus[domain.OrderStatusConfirmed] != 1 || len(d.RecentOrders) != 1 {
		t.Fatalf("dashboard orders: %+v", d)
	}
}

func TestSwaggerListsEveryRoute(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/swagger/doc.json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("doc: %v", w.Code)
	}
	var doc struct {
		BasePath string                               `json:"basePath"`
		Paths    map[string]map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc json: %v", err)
	}
	if doc.BasePath != "/api" {
		t.Fatalf("basePath %q", doc.BasePath)
	}
	n := 0
	for _, r := range s.Engine().Routes() {
		if !strings.HasPrefix(r.Path, "/api/") {
			continue
		}
		n++
		path, _ := swaggerPath(strings.TrimPrefix(r.Path, "/api"))
		if _, ok := doc.Paths[path][strings.ToLower(r.Method)]; !ok {
			t.Fatalf("%s %s missing from the api description", r.Method, path)
		}
	}
	if n < 50 {
		t.Fatalf("only %d api routes registered", n)
	}
	op := doc.Paths["/products/{id}"]["get"]
	if op["operationId"] != "getProduct" {
		t.Fatalf("operation: %v", op)
	}
}
