package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmehdipour/sms-broker/internal/config"
	"github.com/jmehdipour/sms-broker/internal/db"
	"github.com/jmehdipour/sms-broker/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo API customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo customers...")

		if err := seedCustomers(cmd.Context(), sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

// seedCustomers upserts deterministic demo API clients (idempotent on api_key).
func seedCustomers(ctx context.Context, dbx *sqlx.DB) error {
	customers := []model.Customer{
		{Name: "Storefront", APIKey: "11111111111111111111111111111111", Status: model.CustomerActive},
		{Name: "Admin Panel", APIKey: "22222222222222222222222222222222", Status: model.CustomerActive},
		{Name: "Suspended Partner", APIKey: "33333333333333333333333333333333", Status: "suspended"},
	}

	const q = `
INSERT INTO customers
    (name, api_key, status, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    name       = VALUES(name),
    status     = VALUES(status),
    updated_at = VALUES(updated_at)
`
	tx, err := dbx.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, c := range customers {
		if _, err := tx.ExecContext(ctx, q, c.Name, c.APIKey, c.Status, now, now); err != nil {
			return fmt.Errorf("insert customer %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit customers: %w", err)
	}
	return nil
}
