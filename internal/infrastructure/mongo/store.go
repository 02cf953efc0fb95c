package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	appOrder "github.com/Zhima-Mochi/marketplace/internal/application/order"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collOrders   = "orders"
	collProducts = "products"
	collShops    = "shops"
)

// Store keeps orders, products and shops in one database. Operations made
// with a session context join that session's transaction.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewStore(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

func (s *Store) Orders() *OrderRepository        { return &OrderRepository{c: s.db.Collection(collOrders)} }
func (s *Store) Inventory() *InventoryLedger     { return &InventoryLedger{c: s.db.Collection(collProducts)} }
func (s *Store) Balances() *BalanceLedger        { return &BalanceLedger{c: s.db.Collection(collShops)} }
func (s *Store) Transactor() appOrder.Transactor { return &transactor{s: s} }

// EnsureIndexes creates the listing indexes. Safe to call on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collOrders).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user._id", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "shopId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "deliveredAt", Value: -1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}
	return nil
}

func (s *Store) PutProduct(ctx context.Context, r *dominventory.Record) error {
	doc := productDoc{ID: r.ProductID, ShopID: r.ShopID, Stock: r.Stock, SoldOut: r.SoldOut, UpdatedAt: time.Now().UTC()}
	_, err := s.db.Collection(collProducts).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) PutShop(ctx context.Context, a *dombalance.Account) error {
	doc := shopDoc{ID: a.ShopID, AvailableBalance: toDecimal128(a.Available), UpdatedAt: time.Now().UTC()}
	_, err := s.db.Collection(collShops).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

type transactor struct{ s *Store }

// WithinTx runs fn inside a session transaction. The driver retries the
// callback on transient transaction errors such as write conflicts.
func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, s appOrder.Stores) error) error {
	sess, err := t.s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, appOrder.Stores{
			Orders:    t.s.Orders(),
			Inventory: t.s.Inventory(),
			Balances:  t.s.Balances(),
		})
	})
	return err
}

type OrderRepository struct{ c *mongo.Collection }

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	_, err := r.c.InsertOne(ctx, newOrderDoc(o))
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDoc
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return doc.toDomain()
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	res, err := r.c.ReplaceOne(ctx, bson.M{"_id": o.ID}, newOrderDoc(o))
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"user._id": buyerID}, newestFirst)
}

func (r *OrderRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"shopId": shopID}, newestFirst)
}

// List sorts missing deliveredAt lowest, so undelivered orders trail.
func (r *OrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{}, bson.D{
		{Key: "deliveredAt", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: 1},
	})
}

func (r *OrderRepository) find(ctx context.Context, filter any, sort bson.D) ([]*domain.Order, error) {
	cursor, err := r.c.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]*domain.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

type InventoryLedger struct{ c *mongo.Collection }

func (l *InventoryLedger) Get(ctx context.Context, productID string) (*dominventory.Record, error) {
	var doc productDoc
	err := l.c.FindOne(ctx, bson.M{"_id": productID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dominventory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return doc.toDomain(), nil
}

// Restock uses an update pipeline so the sold-out clamp is evaluated
// server-side in the same atomic write.
func (l *InventoryLedger) Restock(ctx context.Context, productID string, qty int) (*dominventory.Record, error) {
	if qty <= 0 {
		return nil, dominventory.ErrInvalidQuantity
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: bson.D{{Key: "$add", Value: bson.A{"$stock", qty}}}},
			{Key: "sold_out", Value: bson.D{{Key: "$max", Value: bson.A{
				bson.D{{Key: "$subtract", Value: bson.A{"$sold_out", qty}}}, 0,
			}}}},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	}
	var doc productDoc
	err := l.c.FindOneAndUpdate(ctx, bson.M{"_id": productID}, pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dominventory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("restock product: %w", err)
	}
	return doc.toDomain(), nil
}

type BalanceLedger struct{ c *mongo.Collection }

func (l *BalanceLedger) Get(ctx context.Context, shopID string) (*dombalance.Account, error) {
	var doc shopDoc
	err := l.c.FindOne(ctx, bson.M{"_id": shopID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dombalance.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return doc.toDomain()
}

func (l *BalanceLedger) Credit(ctx context.Context, shopID string, amount decimal.Decimal, mode dombalance.CreditMode) (*dombalance.Account, error) {
	if amount.IsNegative() {
		return nil, dombalance.ErrInvalidAmount
	}
	now := time.Now().UTC()
	var update bson.D
	switch mode {
	case dombalance.ModeAdditive:
		update = bson.D{
			{Key: "$inc", Value: bson.D{{Key: "availableBalance", Value: toDecimal128(amount)}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}},
		}
	case dombalance.ModeOverwrite:
		update = bson.D{{Key: "$set", Value: bson.D{
			{Key: "availableBalance", Value: toDecimal128(amount)},
			{Key: "updatedAt", Value: now},
		}}}
	default:
		return nil, fmt.Errorf("%w: %q", dombalance.ErrInvalidMode, mode)
	}

	var doc shopDoc
	err := l.c.FindOneAndUpdate(ctx, bson.M{"_id": shopID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dombalance.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credit shop: %w", err)
	}
	return doc.toDomain()
}
