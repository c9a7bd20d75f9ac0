package config

import (
	"bytes"
	_ "embed"
	"strings"
	"time"

	"github.com/jmehdipour/sms-broker/internal/broker"
	"github.com/jmehdipour/sms-broker/internal/service/codes"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

const EnvPrefix = "SMSBROKER"

// ---- Root ----

type Config struct {
	Log        LogConfig      `mapstructure:"log"`
	HTTP       HTTPConfig     `mapstructure:"http"`
	MySQL      DatabaseConfig `mapstructure:"mysql"`
	ClickHouse DatabaseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	Consumer   ConsumerConfig `mapstructure:"consumer"`
	Gateway    GatewayConfig  `mapstructure:"gateway"`
	Codes      CodesConfig    `mapstructure:"codes"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
	// MySQLAddr is clickhouse-only: where ClickHouse reaches the audit MySQL.
	// Empty means the host:port of mysql.dsn.
	MySQLAddr string `mapstructure:"mysql_addr"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	KeyTTL      time.Duration `mapstructure:"key_ttl"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	Topic          string   `mapstructure:"topic"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

type ConsumerConfig struct {
	WorkerCount int           `mapstructure:"worker_count"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// GatewayConfig is the broker endpoint and its credentials.
type GatewayConfig struct {
	Login        string        `mapstructure:"login"`
	Password     string        `mapstructure:"password"`
	Sender       string        `mapstructure:"sender"`
	URL          string        `mapstructure:"url"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
}

func (g GatewayConfig) Broker() broker.Config {
	return broker.Config{
		Login:        g.Login,
		Password:     g.Password,
		Sender:       g.Sender,
		URL:          g.URL,
		Port:         g.Port,
		Timeout:      g.Timeout,
		MaxRedirects: g.MaxRedirects,
	}
}

// CodesConfig drives the verification-code flow.
type CodesConfig struct {
	Cooldown       time.Duration `mapstructure:"cooldown"`
	TTL            time.Duration `mapstructure:"ttl"`
	DeveloperPhone string        `mapstructure:"developer_phone"`
	DeveloperCode  string        `mapstructure:"developer_code"`
	Template       string        `mapstructure:"template"`
}

func (c CodesConfig) Codes() codes.Config {
	return codes.Config{
		Cooldown:       c.Cooldown,
		TTL:            c.TTL,
		DeveloperPhone: c.DeveloperPhone,
		DeveloperCode:  c.DeveloperCode,
		Template:       c.Template,
	}
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (SMSBROKER_*).
// Nested keys map to env names with "_" in place of ".", e.g. SMSBROKER_GATEWAY_LOGIN.
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
