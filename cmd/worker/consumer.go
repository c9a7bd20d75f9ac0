package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmehdipour/sms-broker/internal/broker"
	"github.com/jmehdipour/sms-broker/internal/config"
	"github.com/jmehdipour/sms-broker/internal/db"
	"github.com/jmehdipour/sms-broker/internal/kafka"
	"github.com/jmehdipour/sms-broker/internal/logger"
	"github.com/jmehdipour/sms-broker/internal/metrics"
	"github.com/jmehdipour/sms-broker/internal/repository"
	smsSvc "github.com/jmehdipour/sms-broker/internal/service/sms"
	"github.com/jmehdipour/sms-broker/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var consumerCmd = &cobra.Command{
	Use:   "consumer",
	Short: "Consume SMS envelopes from Kafka and send each once",
	RunE:  runConsumer,
}

func runConsumer(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	zl := logger.Init(cfg.Log.Level)
	defer func() { _ = zl.Sync() }()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	client, err := broker.New(cfg.Gateway.Broker())
	if err != nil {
		return fmt.Errorf("gateway client: %w", err)
	}

	dbx, err := db.NewMySQLConnection(cfg.MySQL)
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	defer dbx.Close()

	svc := smsSvc.New(client, repository.NewMessagesRepository(dbx), zl)

	consumer := kafka.NewConsumer(cfg.Kafka)
	defer consumer.Close()

	w := worker.NewConsumer(consumer, svc, zl.Named("consumer"))
	if cfg.Consumer.WorkerCount > 0 {
		w.Workers = cfg.Consumer.WorkerCount
	}
	if cfg.Consumer.SendTimeout > 0 {
		w.SendTimeout = cfg.Consumer.SendTimeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf(">> consumer started topic=%s group=%s workers=%d",
		consumer.Topic(), consumer.Group(), w.Workers)

	return w.Run(ctx)
}
