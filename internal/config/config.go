package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the process-wide configuration, injected into services at construction.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Mail     MailConfig     `mapstructure:"mail"`
	Business BusinessConfig `mapstructure:"business"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// TrustedProxies may set X-Forwarded-For; empty means the peer address is the client.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	OrderCreated    string `mapstructure:"order_created"`
	WalletEvent     string `mapstructure:"wallet_event"`
	FundingCredited string `mapstructure:"funding_credited"`
}

// GatewayConfig holds the payment gateway credentials and the webhook trust settings.
type GatewayConfig struct {
	Name           string   `mapstructure:"name"`
	BaseURL        string   `mapstructure:"base_url"`
	APIKey         string   `mapstructure:"api_key"`
	SecretKey      string   `mapstructure:"secret_key"`
	ContractCode   string   `mapstructure:"contract_code"`
	Currency       string   `mapstructure:"currency"`
	RedirectURL    string   `mapstructure:"redirect_url"`
	Machine        bool     `mapstructure:"machine"`
	WebhookIPs     []string `mapstructure:"webhook_ips"`
	FeePercent     float64  `mapstructure:"fee_percent"`
	FeeCap         float64  `mapstructure:"fee_cap"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

// Fee is the platform charge deducted from a gateway payment before crediting a wallet.
func (c GatewayConfig) Fee(amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(decimal.NewFromFloat(c.FeePercent)).Div(decimal.NewFromInt(100)).Round(2)
	if c.FeeCap > 0 {
		limit := decimal.NewFromFloat(c.FeeCap)
		if fee.GreaterThan(limit) {
			fee = limit
		}
	}
	return fee
}

type MailConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	Sender        string `mapstructure:"sender"`
	OperatorEmail string `mapstructure:"operator_email"`
}

type BusinessConfig struct {
	IntentTimeoutMinutes  int    `mapstructure:"intent_timeout_minutes"`
	ReconcileAfterMinutes int    `mapstructure:"reconcile_after_minutes"`
	IntentExpirySpec      string `mapstructure:"intent_expiry_spec"`
	MaxRetryCount         int    `mapstructure:"max_retry_count"`
	WorkerID              int64  `mapstructure:"worker_id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var GlobalConfig *Config

// Load reads the yaml file at path; a .env file and environment variables
// such as GATEWAY_SECRET_KEY override its values.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("gateway.name", "monnify")
	v.SetDefault("gateway.currency", "NGN")
	v.SetDefault("gateway.fee_percent", 1.5)
	v.SetDefault("gateway.fee_cap", 2000)
	v.SetDefault("gateway.timeout_seconds", 30)
	v.SetDefault("business.intent_timeout_minutes", 30)
	v.SetDefault("business.reconcile_after_minutes", 5)
	v.SetDefault("business.intent_expiry_spec", "*/5 * * * *")
	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("business.worker_id", 1)
	v.SetDefault("log.level", "info")
}

// LoadConfig is Load for process startup: a bad config is fatal.
func LoadConfig(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	GlobalConfig = cfg
	return cfg
}
