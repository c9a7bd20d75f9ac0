package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmehdipour/sms-broker/internal/config"
	"github.com/jmehdipour/sms-broker/internal/db"
	"github.com/spf13/cobra"
)

var migrateSkipClickHouse bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations (MySQL tables, then the ClickHouse reports table)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer sqlDB.Close()

		sqlPath := filepath.Join("migrations", "001_init.sql")
		sqlBytes, err := os.ReadFile(sqlPath)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", sqlPath, err)
		}

		// requires multiStatements=true in the DSN
		if _, err := sqlDB.ExecContext(cmd.Context(), string(sqlBytes)); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ">> MySQL migration complete")

		if migrateSkipClickHouse {
			return nil
		}

		stmts, err := db.ClickHouseSchema(cfg.MySQL.DSN, cfg.ClickHouse.MySQLAddr)
		if err != nil {
			return err
		}

		chDB, err := db.NewClickHouseConnection(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("open clickhouse: %w", err)
		}
		defer chDB.Close()

		for _, q := range stmts {
			if _, err := chDB.ExecContext(cmd.Context(), q); err != nil {
				return fmt.Errorf("exec clickhouse migration: %w", err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), ">> ClickHouse migration complete")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSkipClickHouse, "skip-clickhouse", false, "only migrate MySQL")
}
