package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zsimmons25/see-more/internal/notifier"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type logSink struct{}

func (logSink) Notify(_ context.Context, n notifier.Notification) error {
	log.Printf("order %s placed by %s: %d item(s), total %s", n.OrderID, n.UserID, n.ItemCount, n.Total)
	return nil
}

func main() {
	log.Println("notifier starting...")

	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := notifier.NewConsumer(logSink{}, kafkaBrokers...)
	defer consumer.Close()

	log.Printf("consuming order events from %v", kafkaBrokers)
	consumer.Run(ctx)

	log.Println("notifier exited")
}
