package repository

import (
	"context"
	"regexp"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"canokart/internal/checkout"
	"canokart/internal/domain"
)

const (
	collProducts         = "products"
	collOrders           = "orders"
	collCoupons          = "coupons"
	collCarts            = "carts"
	collWishlists        = "wishlists"
	collReturns          = "returnrequests"
	collSearchLogs       = "searchlogs"
	collCheckoutSessions = "checkoutsessions"
	collAddressBooks     = "addressbooks"
	collReviews          = "reviews"
	collStockAlerts      = "stocknotifications"
	collRecentlyViewed   = "recentlyvieweds"
)

// MongoStore документное хранилище; одна коллекция на сущность
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects and pings the primary
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ping mongo")
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collCoupons: {{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)}},
		collOrders: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "items.productId", Value: 1}}},
		},
		collProducts: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "sellerId", Value: 1}}},
		},
		collReturns: {{Keys: bson.D{{Key: "userId", Value: 1}}}},
		collReviews: {{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		collStockAlerts: {
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "userId", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "create indexes on %s", coll)
		}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Products() *MongoProducts {
	return &MongoProducts{coll: s.db.Collection(collProducts)}
}
func (s *MongoStore) Orders() *MongoOrders { return &MongoOrders{coll: s.db.Collection(collOrders)} }
func (s *MongoStore) Coupons() *MongoCoupons {
	return &MongoCoupons{coll: s.db.Collection(collCoupons)}
}
func (s *MongoStore) Carts() *MongoCarts { return &MongoCarts{coll: s.db.Collection(collCarts)} }
func (s *MongoStore) Wishlists() *MongoWishlists {
	return &MongoWishlists{coll: s.db.Collection(collWishlists)}
}
func (s *MongoStore) Returns() *MongoReturns {
	return &MongoReturns{coll: s.db.Collection(collReturns)}
}
func (s *MongoStore) SearchLogs() *MongoSearchLogs {
	return &MongoSearchLogs{coll: s.db.Collection(collSearchLogs)}
}
func (s *MongoStore) CheckoutSessions() *MongoCheckoutSessions {
	return &MongoCheckoutSessions{coll: s.db.Collection(collCheckoutSessions)}
}
func (s *MongoStore) AddressBooks() *MongoAddressBooks {
	return &MongoAddressBooks{coll: s.db.Collection(collAddressBooks)}
}
func (s *MongoStore) Reviews() *MongoReviews {
	return &MongoReviews{coll: s.db.Collection(collReviews)}
}
func (s *MongoStore) StockNotifications() *MongoStockNotifications {
	return &MongoStockNotifications{coll: s.db.Collection(collStockAlerts)}
}
func (s *MongoStore) RecentlyViewed() *MongoRecentlyViewed {
	return &MongoRecentlyViewed{coll: s.db.Collection(collRecentlyViewed)}
}
func (s *MongoStore) Tx() *MongoTx { return &MongoTx{client: s.client} }

func now() time.Time { return time.Now().UTC() }

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// MongoProducts ProductRepository поверх коллекции products
type MongoProducts struct{ coll *mongo.Collection }

var _ ProductRepository = (*MongoProducts)(nil)

func (r *MongoProducts) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	ts := now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = ts
	}
	p.UpdatedAt = ts
	p.SyncStockFlag()
	_, err := r.coll.InsertOne(ctx, p)
	return duplicate(err)
}

func (r *MongoProducts) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *MongoProducts) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = now()
	p.SyncStockFlag()
	set := bson.M{
		"name":        p.Name,
		"category":    p.Category,
		"subcategory": p.Subcategory,
		"brand":       p.Brand,
		"description": p.Description,
		"price":       p.Price,
		"stock":       p.Stock,
		"inStock":     p.InStock,
		"images":      p.Images,
		"sellerId":    p.SellerID,
		"updatedAt":   p.UpdatedAt,
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProducts) SetRating(ctx context.Context, id string, rating float64, count int64) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"rating":      rating,
		"reviewCount": count,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProducts) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProducts) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	cur, err := r.coll.Find(ctx, productQuery(f), productFindOptions(f))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoProducts) Count(ctx context.Context, f ProductFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, productQuery(f))
}

func (r *MongoProducts) Distinct(ctx context.Context, field string, f ProductFilter) ([]string, error) {
	switch field {
	case "category", "subcategory", "brand":
	default:
		return nil, ErrUnknownField
	}
	values, err := r.coll.Distinct(ctx, field, productQuery(f))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func ciContains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// productQuery translates a ProductFilter into the same predicate the
// in-memory store applies. User input is regex-quoted.
func productQuery(f ProductFilter) bson.M {
	q := bson.M{}
	if f.Search != "" {
		re := ciContains(f.Search)
		q["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
			bson.M{"category": re},
			bson.M{"brand": re},
		}
	}
	if f.Category != "" {
		if f.Exact {
			q["category"] = f.Category
		} else {
			q["category"] = ciContains(f.Category)
		}
	}
	if f.Brand != "" {
		if f.Exact {
			q["brand"] = f.Brand
		} else {
			q["brand"] = ciContains(f.Brand)
		}
	}
	if f.Subcategory != "" {
		q["subcategory"] = f.Subcategory
	}
	if f.SellerID != "" {
		q["sellerId"] = f.SellerID
	}
	id := bson.M{}
	if len(f.IDs) > 0 {
		id["$in"] = f.IDs
	}
	if len(f.ExcludeIDs) > 0 {
		id["$nin"] = f.ExcludeIDs
	}
	if len(id) > 0 {
		q["_id"] = id
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		q["price"] = price
	}
	if f.InStock {
		q["inStock"] = true
		q["stock"] = bson.M{"$gt": 0}
	}
	return q
}

func productFindOptions(f ProductFilter) *options.FindOptions {
	opts := options.Find()
	switch f.Sort {
	case SortPriceAsc:
		opts.SetSort(bson.D{{Key: "price", Value: 1}})
	case SortPriceDesc:
		opts.SetSort(bson.D{{Key: "price", Value: -1}})
	case SortNewest:
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	case SortRating:
		opts.SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "name", Value: 1}})
	}
	if f.Skip > 0 {
		opts.SetSkip(int64(f.Skip))
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return opts
}

// MongoOrders OrderRepository поверх коллекции orders
type MongoOrders struct{ coll *mongo.Collection }

var _ OrderRepository = (*MongoOrders)(nil)

func (r *MongoOrders) Create(ctx context.Context, o *domain.Order) error {
	if o.ID == "" {
		o.ID = NewID()
	}
	o.CreatedAt = now()
	o.UpdatedAt = o.CreatedAt
	_, err := r.coll.InsertOne(ctx, o)
	return duplicate(err)
}

func (r *MongoOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *MongoOrders) Update(ctx context.Context, o *domain.Order) error {
	o.UpdatedAt = now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	q := bson.M{}
	if f.UserID != "" {
		q["userId"] = f.UserID
	}
	if f.ProductID != "" {
		q["items.productId"] = f.ProductID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MongoCoupons CouponRepository; уникальность кода обеспечивает индекс
type MongoCoupons struct{ coll *mongo.Collection }

var _ CouponRepository = (*MongoCoupons)(nil)

func (r *MongoCoupons) Create(ctx context.Context, c *domain.Coupon) error {
	c.Code = domain.NormalizeCouponCode(c.Code)
	if c.ID == "" {
		c.ID = NewID()
	}
	c.CreatedAt = now()
	_, err := r.coll.InsertOne(ctx, c)
	return duplicate(err)
}

func (r *MongoCoupons) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.coll.FindOne(ctx, bson.M{"code": domain.NormalizeCouponCode(code)}).Decode(&c)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *MongoCoupons) List(ctx context.Context) ([]domain.Coupon, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Coupon, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoCoupons) IncrementUsage(ctx context.Context, code string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"code": domain.NormalizeCouponCode(code)},
		bson.M{"$inc": bson.M{"usedCount": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoCarts одна корзина на пользователя, _id = userId
type MongoCarts struct{ coll *mongo.Collection }

var _ CartRepository = (*MongoCarts)(nil)

func (r *MongoCarts) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var c domain.Cart
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	return &c, nil
}

func (r *MongoCarts) Save(ctx context.Context, c *domain.Cart) error {
	c.UpdatedAt = now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.UserID}, c, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoCarts) Delete(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}

// MongoWishlists одно избранное на пользователя, _id = userId
type MongoWishlists struct{ coll *mongo.Collection }

var _ WishlistRepository = (*MongoWishlists)(nil)

func (r *MongoWishlists) Get(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var w domain.Wishlist
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.Wishlist{UserID: userID, ProductIDs: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if w.ProductIDs == nil {
		w.ProductIDs = []string{}
	}
	return &w, nil
}

func (r *MongoWishlists) Save(ctx context.Context, w *domain.Wishlist) error {
	w.UpdatedAt = now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": w.UserID}, w, options.Replace().SetUpsert(true))
	return err
}

// MongoReturns ReturnRepository поверх коллекции returnrequests
type MongoReturns struct{ coll *mongo.Collection }

var _ ReturnRepository = (*MongoReturns)(nil)

func (r *MongoReturns) Create(ctx context.Context, rr *domain.ReturnRequest) error {
	if rr.ID == "" {
		rr.ID = NewID()
	}
	rr.CreatedAt = now()
	rr.UpdatedAt = rr.CreatedAt
	_, err := r.coll.InsertOne(ctx, rr)
	return duplicate(err)
}

func (r *MongoReturns) GetByID(ctx context.Context, id string) (*domain.ReturnRequest, error) {
	var rr domain.ReturnRequest
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rr); err != nil {
		return nil, notFound(err)
	}
	return &rr, nil
}

func (r *MongoReturns) Update(ctx context.Context, rr *domain.ReturnRequest) error {
	rr.UpdatedAt = now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": rr.ID}, rr)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoReturns) List(ctx context.Context, f ReturnFilter) ([]domain.ReturnRequest, error) {
	q := bson.M{}
	if f.UserID != "" {
		q["userId"] = f.UserID
	}
	if f.OrderID != "" {
		q["orderId"] = f.OrderID
	}
	cur, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReturnRequest, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MongoSearchLogs журнал поиска
type MongoSearchLogs struct{ coll *mongo.Collection }

var _ SearchLogRepository = (*MongoSearchLogs)(nil)

func (r *MongoSearchLogs) Create(ctx context.Context, l *domain.SearchLog) error {
	if l.ID == "" {
		l.ID = NewID()
	}
	l.CreatedAt = now()
	_, err := r.coll.InsertOne(ctx, l)
	return err
}

// MongoCheckoutSessions состояние мастера оформления
type MongoCheckoutSessions struct{ coll *mongo.Collection }

var _ CheckoutSessionRepository = (*MongoCheckoutSessions)(nil)

func (r *MongoCheckoutSessions) Create(ctx context.Context, s *checkout.State) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	_, err := r.coll.InsertOne(ctx, s)
	return duplicate(err)
}

func (r *MongoCheckoutSessions) Get(ctx context.Context, id string) (*checkout.State, error) {
	var s checkout.State
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *MongoCheckoutSessions) Save(ctx context.Context, s *checkout.State) error {
	s.UpdatedAt = now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoAddressBooks одна адресная книга на пользователя, _id = userId
type MongoAddressBooks struct{ coll *mongo.Collection }

var _ AddressBookRepository = (*MongoAddressBooks)(nil)

func (r *MongoAddressBooks) Get(ctx context.Context, userID string) (*domain.AddressBook, error) {
	var b domain.AddressBook
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.AddressBook{UserID: userID, Addresses: []domain.SavedAddress{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if b.Addresses == nil {
		b.Addresses = []domain.SavedAddress{}
	}
	return &b, nil
}

func (r *MongoAddressBooks) Save(ctx context.Context, b *domain.AddressBook) error {
	b.UpdatedAt = now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": b.UserID}, b, options.Replace().SetUpsert(true))
	return err
}

// MongoReviews ReviewRepository поверх коллекции reviews
type MongoReviews struct{ coll *mongo.Collection }

var _ ReviewRepository = (*MongoReviews)(nil)

func (r *MongoReviews) Create(ctx context.Context, rv *domain.Review) error {
	if rv.ID == "" {
		rv.ID = NewID()
	}
	rv.CreatedAt = now()
	_, err := r.coll.InsertOne(ctx, rv)
	return duplicate(err)
}

func (r *MongoReviews) List(ctx context.Context, f ReviewFilter) ([]domain.Review, error) {
	q := bson.M{}
	if f.ProductID != "" {
		q["productId"] = f.ProductID
	}
	if f.UserID != "" {
		q["userId"] = f.UserID
	}
	cur, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MongoStockNotifications подписки на поступление товара
type MongoStockNotifications struct{ coll *mongo.Collection }

var _ StockNotificationRepository = (*MongoStockNotifications)(nil)

// pendingFor matches a subscription that has not been served yet
func pendingFor(userID, productID string) bson.M {
	q := bson.M{"productId": productID, "notifiedAt": bson.M{"$exists": false}}
	if userID != "" {
		q["userId"] = userID
	}
	return q
}

func (r *MongoStockNotifications) Create(ctx context.Context, n *domain.StockNotification) error {
	if n.ID == "" {
		n.ID = NewID()
	}
	n.CreatedAt = now()
	res, err := r.coll.UpdateOne(ctx,
		pendingFor(n.UserID, n.ProductID),
		bson.M{"$setOnInsert": bson.M{
			"_id":       n.ID,
			"email":     n.Email,
			"createdAt": n.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return duplicate(err)
	}
	if res.UpsertedCount == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *MongoStockNotifications) ListPending(ctx context.Context, productID string) ([]domain.StockNotification, error) {
	cur, err := r.coll.Find(ctx, pendingFor("", productID), options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := make([]domain.StockNotification, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoStockNotifications) MarkNotified(ctx context.Context, id string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"notifiedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoRecentlyViewed одна история на пользователя, _id = userId
type MongoRecentlyViewed struct{ coll *mongo.Collection }

var _ RecentlyViewedRepository = (*MongoRecentlyViewed)(nil)

func (r *MongoRecentlyViewed) Get(ctx context.Context, userID string) (*domain.RecentlyViewed, error) {
	var rv domain.RecentlyViewed
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&rv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.RecentlyViewed{UserID: userID, ProductIDs: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if rv.ProductIDs == nil {
		rv.ProductIDs = []string{}
	}
	return &rv, nil
}

func (r *MongoRecentlyViewed) Save(ctx context.Context, rv *domain.RecentlyViewed) error {
	rv.UpdatedAt = now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": rv.UserID}, rv, options.Replace().SetUpsert(true))
	return err
}

// MongoTx runs fn inside a multi-document transaction. Requires a replica set.
type MongoTx struct{ client *mongo.Client }

var _ TxManager = (*MongoTx)(nil)

func (tx *MongoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// nested calls join the outer transaction
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	sess, err := tx.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "start session")
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
