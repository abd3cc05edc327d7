package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Service        ServiceConfig        `mapstructure:"service"`
	Consul         ConsulConfig         `mapstructure:"consul"`
	Mysql          MysqlConfig          `mapstructure:"mysql"`
	Redis          RedisConfig          `mapstructure:"redis"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	Log            LogConfig            `mapstructure:"log"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
	Rabbitmq       RabbitmqConfig       `mapstructure:"rabbitmq"`
	Elastic        ElasticConfig        `mapstructure:"elastic"`
	Session        SessionConfig        `mapstructure:"session"`
	Checkout       CheckoutConfig       `mapstructure:"checkout"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Delivery       DeliveryConfig       `mapstructure:"delivery"`
	Reservation    ReservationConfig    `mapstructure:"reservation"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
}

type ServiceConfig struct {
	Name     string `mapstructure:"name"`
	Port     int    `mapstructure:"port"`
	GRPCPort int    `mapstructure:"grpc_port"` // 0 disables the gRPC health server
	Env      string `mapstructure:"env"`
}

type ConsulConfig struct {
	Address string `mapstructure:"address"` // empty disables registration
}

type MysqlConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"dbname"`
	LogLevel string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"` // empty selects the in-memory session store
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
	Issuer     string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // OTLP HTTP, usually host:4318
}

type RabbitmqConfig struct {
	URL      string `mapstructure:"url"` // empty disables event forwarding
	Exchange string `mapstructure:"exchange"`
}

type ElasticConfig struct {
	URL   string `mapstructure:"url"` // empty falls back to SQL search
	Index string `mapstructure:"index"`
}

type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

type CheckoutConfig struct {
	StateTTL         time.Duration `mapstructure:"state_ttl"`
	DeliveryEstimate string        `mapstructure:"delivery_estimate"`
}

type RecommendationConfig struct {
	Dedupe           bool `mapstructure:"dedupe"`
	ProductTriggers  bool `mapstructure:"product_triggers"`
	PerCategoryLimit int  `mapstructure:"per_category_limit"`
	DisplayLimit     int  `mapstructure:"display_limit"`
}

type DeliveryConfig struct {
	StrictTransitions bool `mapstructure:"strict_transitions"`
}

type ReservationConfig struct {
	SlotCapacity int `mapstructure:"slot_capacity"` // 0 = unlimited
}

type RateLimitConfig struct {
	CartAddQPS    float64 `mapstructure:"cart_add_qps"`
	PlaceOrderQPS float64 `mapstructure:"place_order_qps"`
}

// LoadConfig 读取配置文件
// Values come from <path>/config.yaml when present, then BOUTIQUE_* environment
// variables (BOUTIQUE_MYSQL_HOST overrides mysql.host).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("BOUTIQUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "boutique-storefront")
	v.SetDefault("service.port", 8080)
	v.SetDefault("service.grpc_port", 0)
	v.SetDefault("service.env", "development")

	v.SetDefault("consul.address", "")

	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.dbname", "db_boutique")
	v.SetDefault("mysql.log_level", "warn")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", 24*time.Hour)
	v.SetDefault("jwt.issuer", "go-boutique")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "boutique.events")

	v.SetDefault("elastic.url", "")
	v.SetDefault("elastic.index", "products")

	v.SetDefault("session.cookie_name", "sessionid")
	v.SetDefault("session.ttl", 14*24*time.Hour)
	v.SetDefault("session.secure", false)

	v.SetDefault("checkout.state_ttl", 30*time.Minute)
	v.SetDefault("checkout.delivery_estimate", "200")

	v.SetDefault("recommendation.dedupe", false)
	v.SetDefault("recommendation.product_triggers", false)
	v.SetDefault("recommendation.per_category_limit", 4)
	v.SetDefault("recommendation.display_limit", 4)

	v.SetDefault("delivery.strict_transitions", false)
	v.SetDefault("reservation.slot_capacity", 0)

	v.SetDefault("rate_limit.cart_add_qps", 20)
	v.SetDefault("rate_limit.place_order_qps", 5)
}

func (c *Config) validate() error {
	if c.Service.Env == "production" && c.JWT.Secret == "" {
		return errors.New("jwt.secret must be set in production")
	}
	if c.Reservation.SlotCapacity < 0 {
		return fmt.Errorf("reservation.slot_capacity must be >= 0, got %d", c.Reservation.SlotCapacity)
	}
	if c.Checkout.StateTTL <= 0 {
		return fmt.Errorf("checkout.state_ttl must be positive, got %s", c.Checkout.StateTTL)
	}
	return nil
}
