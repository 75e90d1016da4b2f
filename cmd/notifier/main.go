package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tradecrm/crm-backend/internal/config"
	"github.com/tradecrm/crm-backend/internal/events"
	"github.com/tradecrm/crm-backend/internal/logger"
)

// notifier consumes deal and order events and emits notifications. The
// notification channels are log-backed for now; the consumer loop and
// queue wiring are the production shape.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	sub := events.NewSubscriber(cfg.AMQPURL, "notifier", log)
	if err := sub.Connect(); err != nil {
		log.Error("broker connect", "err", err)
		os.Exit(1)
	}
	defer sub.Close()

	notifyDeal := func(e events.Event) error {
		log.Info("deal notification",
			"event_type", e.Type, "deal_id", e.EntityID,
			"tenant_id", e.TenantID, "user_id", e.UserID,
			"correlation_id", e.CorrelationID)
		return nil
	}
	notifyOrder := func(e events.Event) error {
		log.Info("order notification",
			"event_type", e.Type, "order_id", e.EntityID,
			"tenant_id", e.TenantID, "user_id", e.UserID,
			"correlation_id", e.CorrelationID)
		return nil
	}

	if err := sub.Subscribe("deal.*", notifyDeal); err != nil {
		log.Error("subscribe", "pattern", "deal.*", "err", err)
		os.Exit(1)
	}
	if err := sub.Subscribe("order.*", notifyOrder); err != nil {
		log.Error("subscribe", "pattern", "order.*", "err", err)
		os.Exit(1)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("stopping consumer...")
		if err := sub.Stop(); err != nil {
			log.Error("stop", "err", err)
		}
	}()

	log.Info("notifier consuming", "queue", "crm_notifier_events")
	if err := sub.Start(); err != nil {
		log.Error("consume", "err", err)
		os.Exit(1)
	}
}
