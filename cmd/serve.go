package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/sms-broker/internal/broker"
	"github.com/jmehdipour/sms-broker/internal/config"
	"github.com/jmehdipour/sms-broker/internal/db"
	httpSrv "github.com/jmehdipour/sms-broker/internal/http"
	"github.com/jmehdipour/sms-broker/internal/logger"
	"github.com/jmehdipour/sms-broker/internal/repository"
	codesSvc "github.com/jmehdipour/sms-broker/internal/service/codes"
	smsSvc "github.com/jmehdipour/sms-broker/internal/service/sms"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		zl := logger.Init(cfg.Log.Level)
		defer func() { _ = zl.Sync() }()

		client, err := broker.New(cfg.Gateway.Broker())
		if err != nil {
			return fmt.Errorf("gateway client: %w", err)
		}

		mysqlDB, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer mysqlDB.Close()

		redisClient, err := db.NewRedisClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		chDB, err := db.NewClickHouseConnection(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer func() {
			_ = chDB.Close()
		}()

		svc := smsSvc.New(client, repository.NewMessagesRepository(mysqlDB), zl)
		customers := repository.NewCachedCustomers(
			repository.NewCustomersRepository(mysqlDB),
			redisClient,
			cfg.Redis.KeyTTL,
		)
		codeSvc := codesSvc.New(
			cfg.Codes.Codes(),
			svc,
			repository.NewCodesRepository(mysqlDB),
			repository.NewRedisCooldown(redisClient),
			zl.Named("codes"),
		)
		server := httpSrv.NewServer(svc, codeSvc, customers, repository.NewReportsRepository(chDB))

		errCh := make(chan error, 1)
		go func() {
			log.Printf("starting http on %s", cfg.HTTP.Addr)
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Printf("signal received: %s, shutting down...", sig)
		case err := <-errCh:
			if err != nil {
				log.Printf("http server exited: %v", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
