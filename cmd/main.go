package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"canokart/internal/config"
	httpapi "canokart/internal/http"
	"canokart/internal/logging"
	"canokart/internal/payment"
	"canokart/internal/pricing"
	"canokart/internal/repository"
	"canokart/internal/service"
)

// stores набор репозиториев выбранного драйвера
type stores struct {
	products  repository.ProductRepository
	orders    repository.OrderRepository
	coupons   repository.CouponRepository
	carts     repository.CartRepository
	wishlists repository.WishlistRepository
	returns   repository.ReturnRepository
	logs      repository.SearchLogRepository
	sessions  repository.CheckoutSessionRepository
	addresses repository.AddressBookRepository
	reviews   repository.ReviewRepository
	alerts    repository.StockNotificationRepository
	recent    repository.RecentlyViewedRepository
	tx        repository.TxManager
	close     func(context.Context) error
}

func memoryStores() stores {
	store := repository.NewMemoryStore()
	return stores{
		products:  store,
		orders:    repository.NewMemoryOrders(store),
		coupons:   repository.NewMemoryCoupons(store),
		carts:     repository.NewMemoryCarts(store),
		wishlists: repository.NewMemoryWishlists(store),
		returns:   repository.NewMemoryReturns(store),
		logs:      repository.NewMemorySearchLogs(store),
		sessions:  repository.NewMemoryCheckoutSessions(store),
		addresses: repository.NewMemoryAddressBooks(store),
		reviews:   repository.NewMemoryReviews(store),
		alerts:    repository.NewMemoryStockNotifications(store),
		recent:    repository.NewMemoryRecentlyViewed(store),
		tx:        repository.NewMemoryTx(store),
		close:     func(context.Context) error { return nil },
	}
}

func mongoStores(ctx context.Context, cfg config.Store) (stores, error) {
	m, err := repository.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return stores{}, err
	}
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return stores{}, err
	}
	return stores{
		products:  m.Products(),
		orders:    m.Orders(),
		coupons:   m.Coupons(),
		carts:     m.Carts(),
		wishlists: m.Wishlists(),
		returns:   m.Returns(),
		logs:      m.SearchLogs(),
		sessions:  m.CheckoutSessions(),
		addresses: m.AddressBooks(),
		reviews:   m.Reviews(),
		alerts:    m.StockNotifications(),
		recent:    m.RecentlyViewed(),
		tx:        m.Tx(),
		close:     m.Close,
	}, nil
}

// @title canokart API
// @version 1.0
// @description Catalog, cart, checkout and order management.
// @BasePath /api
func main() {
	path := flag.String("config", os.Getenv("CANOKART_CONFIG"), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := memoryStores()
	if cfg.Store.Driver == config.DriverMongo {
		var err error
		if st, err = mongoStores(ctx, cfg.Store); err != nil {
			return errors.Wrap(err, "mongo")
		}
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			log.Warn("store close", zap.Error(err))
		}
	}()

	if cfg.Seed {
		if err := service.Seed(ctx, st.products, st.coupons); err != nil {
			return errors.Wrap(err, "seed")
		}
	}

	engine := pricing.NewEngine(cfg.Pricing)
	gateway := payment.NewMockGateway()
	alerts := service.NewStockAlertService(st.alerts, st.products, log.Named("alerts"))
	// every stock change below goes through the watcher
	products := alerts.Watch(st.products)
	coupons := service.NewCouponService(st.coupons)
	addresses := service.NewAddressService(st.addresses)
	orders := service.NewOrderService(service.OrderDeps{
		Products: products,
		Orders:   st.orders,
		Carts:    st.carts,
		Coupons:  coupons,
		Pricing:  engine,
		Payments: gateway,
		Tx:       st.tx,
		Log:      log.Named("orders"),
	})
	srv := httpapi.NewServer(httpapi.Services{
		Products: service.NewProductService(products, st.orders),
		Search:   service.NewSearchService(st.products, st.logs, log.Named("search"), cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
		Coupons:  coupons,
		Carts:    service.NewCartService(st.carts, st.products, engine),
		Wishlist: service.NewWishlistService(st.wishlists, st.products),
		Orders:   orders,
		Checkout: service.NewCheckoutService(st.sessions, st.carts, addresses, orders, log.Named("checkout")),
		Returns:  service.NewReturnService(st.returns, st.orders, products, st.tx),
		Pricing:  engine,
		Payments: gateway,

		Addresses: addresses,
		Reviews:   service.NewReviewService(st.reviews, st.products, st.tx),
		Analytics: service.NewAnalyticsService(st.products, st.orders, st.carts, st.wishlists),
		Alerts:    alerts,
		Recent:    service.NewRecentlyViewedService(st.recent, st.products),
	}, log.Named("http"))

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: srv.Engine(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", httpServer.Addr), zap.String("store", cfg.Store.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return httpServer.Shutdown(sctx)
	})
	return g.Wait()
}
