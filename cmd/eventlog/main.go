// Command eventlog tails every order and payment topic and prints each event as one JSON line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/events"
	"golang.org/x/sync/errgroup"
)

func main() {
	groupID := flag.String("group", "eventlog", "consumer group id")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[eventlog] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatalf("KAFKA_BROKERS is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mu sync.Mutex
	out := json.NewEncoder(os.Stdout)
	g, ctx := errgroup.WithContext(ctx)
	for _, typ := range events.AllTypes {
		topic := events.Topic(cfg.KafkaTopicPrefix, typ)
		g.Go(func() error {
			events.Consume(ctx, cfg.KafkaBrokers, topic, *groupID, logger, func(_ context.Context, e events.Event) error {
				mu.Lock()
				defer mu.Unlock()
				return out.Encode(e)
			})
			return nil
		})
	}
	logger.Printf("consuming %d topics brokers=%v group=%s", len(events.AllTypes), cfg.KafkaBrokers, *groupID)
	_ = g.Wait()
	logger.Printf("stopped")
}
