package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/acordeapp/acorde/internal/config"
	"github.com/acordeapp/acorde/internal/fulfillment"
	kafkax "github.com/acordeapp/acorde/internal/kafka"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/acordeapp/acorde/internal/postgres"
	"github.com/acordeapp/acorde/internal/redisx"
	"github.com/acordeapp/acorde/internal/repo"
	"github.com/joho/godotenv"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: order.status
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderStatus, 1024)
	pStatus.Start(ctx)

	// Service
	svc := &fulfillment.Service{
		Orders:      &repo.OrderRepo{DB: db},
		Cache:       redisx.Cache{R: rdb},
		Status:      pStatus,
		ServiceName: cfg.ServiceName + "-fulfillment",
	}

	// Consumer
	group := getenv("FULFILLMENT_GROUP", "fulfillment-svc")
	workers := mustAtoi(os.Getenv("FULFILLMENT_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, market.TopicOrderCreated, workers)

	go func() {
		log.Printf("fulfillment consumer started: group=%s topic=%s workers=%d", group, market.TopicOrderCreated, workers)
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel() // stops the consumer and flushes the producer
	time.Sleep(500 * time.Millisecond)
	pStatus.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
