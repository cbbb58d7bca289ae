package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"canokart/internal/domain"
	"canokart/internal/payment"
	"canokart/internal/pricing"
	"canokart/internal/service"
)

// Services набор сервисов, которые обслуживает HTTP-слой
type Services struct {
	Products *service.ProductService
	Search   *service.SearchService
	Coupons  *service.CouponService
	Carts    *service.CartService
	Wishlist *service.WishlistService
	Orders   *service.OrderService
	Checkout *service.CheckoutService
	Returns  *service.ReturnService
	Pricing  *pricing.Engine
	Payments payment.Gateway

	Addresses *service.AddressService
	Reviews   *service.ReviewService
	Analytics *service.AnalyticsService
	Alerts    *service.StockAlertService
	Recent    *service.RecentlyViewedService
}

type Server struct {
	engine *gin.Engine
	log    *zap.Logger

	products *service.ProductService
	search   *service.SearchService
	coupons  *service.CouponService
	carts    *service.CartService
	wishlist *service.WishlistService
	orders   *service.OrderService
	checkout *service.CheckoutService
	returns  *service.ReturnService
	pricing  *pricing.Engine
	payments payment.Gateway

	addresses *service.AddressService
	reviews   *service.ReviewService
	analytics *service.AnalyticsService
	alerts    *service.StockAlertService
	recent    *service.RecentlyViewedService
}

func NewServer(svc Services, log *zap.Logger) *Server {
	r := gin.New()
	r.Use(requestID(), accessLog(log), gin.Recovery(), identify())
	s := &Server{
		engine:   r,
		log:      log,
		products: svc.Products,
		search:   svc.Search,
		coupons:  svc.Coupons,
		carts:    svc.Carts,
		wishlist: svc.Wishlist,
		orders:   svc.Orders,
		checkout: svc.Checkout,
		returns:  svc.Returns,
		pricing:  svc.Pricing,
		payments: svc.Payments,

		addresses: svc.Addresses,
		reviews:   svc.Reviews,
		analytics: svc.Analytics,
		alerts:    svc.Alerts,
		recent:    svc.Recent,
	}
	s.registerRoutes()
	doc, err := buildDoc(r.Routes())
	if err != nil {
		log.Warn("api description not built", zap.Error(err))
	} else {
		openAPI.set(doc)
	}
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)

		api.GET("/products", s.listProducts)
		api.GET("/products/:id", s.getProduct)
		api.GET("/products/:id/recommendations", s.recommendations)
		api.GET("/categories", s.categories)
		api.GET("/subcategories/:category", s.subcategories)
		api.GET("/brands", s.brands)
		api.GET("/featured-products", s.featuredProducts)
		api.GET("/our-collection", s.ourCollection)

		api.GET("/search", s.searchProducts)
		api.GET("/search/suggestions", s.suggestions)

		api.POST("/validate-coupon", s.validateCoupon)
		api.POST("/calculate-shipping", s.calculateShipping)
		api.POST("/calculate-tax", s.calculateTax)
		api.POST("/process-payment", s.processPayment)

		api.POST("/checkout", requireAuth(), s.checkoutCart)
		api.POST("/guest-checkout", s.guestCheckout)

		sessions := api.Group("/checkout/sessions")
		sessions.POST("", s.startCheckout)
		sessions.GET("/:id", s.getCheckout)
		sessions.PATCH("/:id", s.updateCheckout)
		sessions.POST("/:id/next", s.nextCheckout)
		sessions.POST("/:id/prev", s.prevCheckout)

		orders := api.Group("/orders")
		orders.GET("", requireAuth(), s.listMyOrders)
		orders.GET("/:id", s.getOrder)
		orders.POST("/:id/cancel", requireAuth(), s.cancelOrder)

		cart := api.Group("/cart", requireAuth())
		cart.GET("", s.getCart)
		cart.POST("", s.addToCart)
		cart.PUT("/:productId", s.setCartQuantity)
		cart.DELETE("/:productId", s.removeFromCart)
		cart.POST("/merge", s.mergeCart)

		wishlist := api.Group("/wishlist", requireAuth())
		wishlist.GET("", s.getWishlist)
		wishlist.POST("", s.addToWishlist)
		wishlist.DELETE("/:productId", s.removeFromWishlist)

		user := api.Group("/user", requireAuth())
		user.GET("/addresses", s.listAddresses)
		user.POST("/addresses", s.addAddress)
		user.PUT("/addresses/:addressId", s.updateAddress)
		user.DELETE("/addresses/:addressId", s.deleteAddress)
		user.GET("/stats", s.userStats)

		api.GET("/reviews/:productId", s.listReviews)
		api.POST("/reviews", requireAuth(), s.createReview)
		api.POST("/stock-notifications", requireAuth(), s.subscribeStock)
		api.GET("/recently-viewed", requireAuth(), s.recentlyViewed)

		api.POST("/return-request", requireAuth(), s.requestReturn)
		api.GET("/return-requests", requireAuth(), s.listMyReturns)

		seller := api.Group("/seller", requireRole(domain.RoleSeller, domain.RoleAdmin))
		seller.POST("/products", s.createProduct)
		seller.GET("/products", s.listSellerProducts)
		seller.PUT("/products/:id", s.updateProduct)
		seller.DELETE("/products/:id", s.deleteProduct)

		admin := api.Group("/admin", requireRole(domain.RoleAdmin))
		admin.GET("/products", s.listProducts)
		admin.POST("/products", s.createProduct)
		admin.PUT("/products/:id", s.updateProduct)
		admin.DELETE("/products/:id", s.deleteProduct)
		admin.GET("/orders", s.listAllOrders)
		admin.PUT("/orders/:id", s.updateOrderStatus)
		admin.GET("/coupons", s.listCoupons)
		admin.POST("/coupons", s.createCoupon)
		admin.GET("/return-requests", s.listAllReturns)
		admin.PUT("/return-requests/:id", s.reviewReturn)
		admin.GET("/analytics", s.analyticsDashboard)
	}
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
