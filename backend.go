package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	appOrder "github.com/Zhima-Mochi/marketplace/internal/application/order"
	"github.com/Zhima-Mochi/marketplace/internal/config"
	dombalance "github.com/Zhima-Mochi/marketplace/internal/domain/balance"
	dominventory "github.com/Zhima-Mochi/marketplace/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/memory"
	mongostore "github.com/Zhima-Mochi/marketplace/internal/infrastructure/mongo"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/postgres"
	"github.com/shopspring/decimal"
)

// backend is the storage selected by STORE_BACKEND.
type backend struct {
	orders     domorder.Repository
	inventory  dominventory.Ledger
	balances   dombalance.Ledger
	tx         appOrder.Transactor
	putProduct func(ctx context.Context, r *dominventory.Record) error
	putShop    func(ctx context.Context, a *dombalance.Account) error
	health     func(ctx context.Context) error
	close      func(ctx context.Context) error
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewConnection(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		s := postgres.NewStore(db, cfg.Database.MaxRetries)
		return &backend{
			orders:     s.Orders(),
			inventory:  s.Inventory(),
			balances:   s.Balances(),
			tx:         s.Transactor(),
			putProduct: s.PutProduct,
			putShop:    s.PutShop,
			health:     db.PingContext,
			close:      func(context.Context) error { return db.Close() },
		}, nil

	case config.BackendMongo:
		client, err := mongostore.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		s := mongostore.NewStore(client, cfg.Mongo.Database)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &backend{
			orders:     s.Orders(),
			inventory:  s.Inventory(),
			balances:   s.Balances(),
			tx:         s.Transactor(),
			putProduct: s.PutProduct,
			putShop:    s.PutShop,
			health:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:      client.Disconnect,
		}, nil
	}

	s := memory.NewStore()
	return &backend{
		orders:    s.Orders(),
		inventory: s.Inventory(),
		balances:  s.Balances(),
		tx:        s.Transactor(),
		putProduct: func(_ context.Context, r *dominventory.Record) error {
			s.PutProduct(r)
			return nil
		},
		putShop: func(_ context.Context, a *dombalance.Account) error {
			s.PutShop(a)
			return nil
		},
		close: func(context.Context) error { return nil },
	}, nil
}

type seedFile struct {
	Products []struct {
		ID      string `json:"id"`
		ShopID  string `json:"shopId"`
		Stock   int    `json:"stock"`
		SoldOut int    `json:"sold_out"`
	} `json:"products"`
	Shops []struct {
		ID               string          `json:"id"`
		AvailableBalance decimal.Decimal `json:"availableBalance"`
	} `json:"shops"`
}

// seed upserts the products and shops listed in path. The catalogue and shop
// registry live outside this service; the file stands in for them locally.
func (b *backend) seed(ctx context.Context, path string) (products, shops int, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, 0, fmt.Errorf("decode seed file: %w", err)
	}
	for _, p := range f.Products {
		rec, err := dominventory.NewRecord(p.ID, p.ShopID, p.Stock, p.SoldOut)
		if err != nil {
			return products, shops, fmt.Errorf("product %s: %w", p.ID, err)
		}
		if err := b.putProduct(ctx, rec); err != nil {
			return products, shops, fmt.Errorf("product %s: %w", p.ID, err)
		}
		products++
	}
	for _, s := range f.Shops {
		acct, err := dombalance.NewAccount(s.ID, s.AvailableBalance)
		if err != nil {
			return products, shops, fmt.Errorf("shop %s: %w", s.ID, err)
		}
		if err := b.putShop(ctx, acct); err != nil {
			return products, shops, fmt.Errorf("shop %s: %w", s.ID, err)
		}
		shops++
	}
	return products, shops, nil
}
