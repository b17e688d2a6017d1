package main

import (
	"context"
	"log"
	"time"

	"github.com/example/bookshop-client/internal/auth"
	"github.com/example/bookshop-client/internal/cart"
	"github.com/example/bookshop-client/internal/catalog"
	"github.com/example/bookshop-client/internal/clients"
	"github.com/example/bookshop-client/internal/config"
	"github.com/example/bookshop-client/internal/persist"
	"github.com/example/bookshop-client/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	shutdown, err := telemetry.Setup(ctx, "bookshop-storefront", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("[storefront] telemetry setup: %v", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		shutdown(flushCtx)
	}()

	store, err := openAdapter(cfg)
	if err != nil {
		log.Fatalf("[storefront] open persistence (%s): %v", cfg.Backend, err)
	}
	defer store.Close()

	client := clients.New(cfg.APIBaseURL, store,
		clients.WithAuthFailureHandler(func() {
			log.Println("[storefront] session expired, returning to login")
		}),
	)
	session := auth.NewSession(client)
	cartStore := cart.New(store)
	catalogStore := catalog.New(client, store)

	log.Println("[storefront] ========================================")
	log.Printf("[storefront] Bookshop client - API %s", cfg.APIBaseURL)
	log.Println("[storefront] ========================================")

	if err := session.Restore(ctx); err == nil {
		if user := session.CurrentUser(); user != nil {
			log.Printf("[storefront] signed in as %s", user.Email)
			if exp, err := auth.TokenExpiry(client.Credentials().Access); err == nil {
				log.Printf("[storefront] access token valid until %s", exp.Format(time.RFC3339))
			}
		}
	}

	if err := catalogStore.Load(ctx); err != nil {
		log.Printf("[storefront] catalog load failed, serving persisted copy: %v", err)
	}

	books := catalogStore.Books()
	log.Printf("[storefront] %d books, %d categories", len(books), len(catalogStore.Categories()))

	// Short scripted session so the binary demonstrates the store wiring.
	if len(books) > 0 {
		cartStore.AddItem(books[0])
		cartStore.AddItem(books[0])
		log.Printf("[storefront] cart: %d items, subtotal %.2f", cartStore.TotalItems(), cartStore.Subtotal())
	}
	for _, n := range catalogStore.Notifications() {
		log.Printf("[storefront] notification [%s] %s: %s", n.Type, n.Title, n.Message)
	}
}

func openAdapter(cfg config.Config) (persist.Adapter, error) {
	switch cfg.Backend {
	case "sqlite":
		return persist.OpenSQLite(cfg.SQLitePath)
	case "redis":
		return persist.OpenRedis(cfg.RedisAddr, cfg.RedisPrefix)
	default:
		return persist.NewMemory(), nil
	}
}
