package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmehdipour/sms-broker/internal/repository"
)

var chQuote = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// ClickHouseSchema returns the statements that expose the MySQL audit log
// to ClickHouse through the MySQL table engine, so reports read the rows
// the send path writes. mysqlAddr, when set, replaces the host:port of
// the DSN (ClickHouse may reach MySQL under another name).
// The clickhouse driver runs one statement per Exec.
func ClickHouseSchema(mysqlDSN, mysqlAddr string) ([]string, error) {
	mc, err := mysql.ParseDSN(mysqlDSN)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	if mc.DBName == "" {
		return nil, errors.New("mysql dsn has no database name")
	}
	addr := mc.Addr
	if mysqlAddr != "" {
		addr = mysqlAddr
	}

	database, table, _ := strings.Cut(repository.ReportsTable, ".")

	return []string{
		"CREATE DATABASE IF NOT EXISTS " + database,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id            String,
    customer_id   Int64,
    phone         String,
    text          String,
    broker_msg_id String,
    status        String,
    status_code   Int32,
    response      String,
    error         String,
    created_at    DateTime64(3, 'UTC')
) ENGINE = MySQL('%s', '%s', '%s', '%s', '%s')`,
			repository.ReportsTable,
			chQuote.Replace(addr),
			chQuote.Replace(mc.DBName),
			table,
			chQuote.Replace(mc.User),
			chQuote.Replace(mc.Passwd),
		),
	}, nil
}
