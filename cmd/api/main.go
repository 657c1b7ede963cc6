package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acordeapp/acorde/internal/chat"
	"github.com/acordeapp/acorde/internal/checkout"
	"github.com/acordeapp/acorde/internal/config"
	"github.com/acordeapp/acorde/internal/events"
	"github.com/acordeapp/acorde/internal/httpx"
	kafkax "github.com/acordeapp/acorde/internal/kafka"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/acordeapp/acorde/internal/postgres"
	"github.com/acordeapp/acorde/internal/redisx"
	"github.com/acordeapp/acorde/internal/repo"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pRejected := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderRejected, 1024)
	pRejected.Start(ctx)

	// Repos
	products := &repo.ProductRepo{DB: db}
	orders := &repo.OrderRepo{DB: db}
	carts := &repo.CartRepo{DB: db}
	ratings := &repo.RatingRepo{DB: db}
	offers := &repo.OfferRepo{DB: db}
	stores := &repo.StoreRepo{DB: db}
	chats := &repo.ChatRepo{DB: db}
	financeRepo := &repo.FinanceRepo{DB: db}

	// Checkout workflow
	flow := &checkout.Workflow{
		Catalog:   products,
		Orders:    orders,
		Inventory: products,
		Events: &events.Publisher{
			Created:  pCreated,
			Rejected: pRejected,
			Service:  cfg.ServiceName,
		},
	}

	hub := chat.NewHub(rdb)

	// Handlers
	router := httpx.NewRouter()
	(&httpx.ProductsHandler{Products: products}).Register(router)
	(&httpx.CartHandler{Cart: carts, Products: products}).Register(router)
	(&httpx.CheckoutHandler{Cart: carts, Flow: flow}).Register(router)
	(&httpx.OrdersHandler{Orders: orders, Redis: rdb}).Register(router)
	(&httpx.RatingsHandler{Ratings: ratings}).Register(router)
	(&httpx.OffersHandler{Offers: offers, Products: products}).Register(router)
	(&httpx.StoresHandler{Stores: stores}).Register(router)
	(&httpx.FinanceHandler{Stores: stores, Finance: financeRepo, Products: products}).Register(router)
	(&httpx.ChatHandler{Chats: chats, Products: products, Hub: hub}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pCreated.Close() // close inbox -> flush & close writer
	pRejected.Close()
	cancel() // stop producer loops
	pCreated.WaitClosed()
	pRejected.WaitClosed()
}
