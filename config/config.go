// Ininicializing common application configuration
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	RabbitMQ    RabbitMQConfig    `mapstructure:"rabbitmq"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Campaign    CampaignConfig    `mapstructure:"campaign"`
	Reservation ReservationConfig `mapstructure:"reservation"`
	Sweeper     SweeperConfig     `mapstructure:"sweeper"`
	Review      ReviewConfig      `mapstructure:"review"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
	LogLevel     string        `mapstructure:"log_level"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | memory
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Настройки пула соединений
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`

	DedupeTTL time.Duration `mapstructure:"dedupe_ttl"`
}

type RabbitMQConfig struct {
	URL        string        `mapstructure:"url"`
	QueueName  string        `mapstructure:"queue_name"`
	RetryCount int           `mapstructure:"retry_count"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

type StorageConfig struct {
	BasePath        string `mapstructure:"base_path"`
	MaxUploadMB     int64  `mapstructure:"max_upload_mb"`
	ThumbnailWidth  int    `mapstructure:"thumbnail_width"`
	ThumbnailHeight int    `mapstructure:"thumbnail_height"`
}

type CampaignConfig struct {
	MaxTickets int `mapstructure:"max_tickets"`
}

type ReservationConfig struct {
	DefaultTimeout int `mapstructure:"default_timeout"` // в минутах
	MaxTimeout     int `mapstructure:"max_timeout"`     // в минутах
}

type SweeperConfig struct {
	Enabled    bool          `mapstructure:"enabled"` // in-process ticker, the HTTP trigger is always available
	Interval   time.Duration `mapstructure:"interval"`
	DraftGrace time.Duration `mapstructure:"draft_grace"`
	BatchSize  int           `mapstructure:"batch_size"`
	Token      string        `mapstructure:"token"`
}

type ReviewConfig struct {
	ReleaseOnReject bool `mapstructure:"release_on_reject"`
}

type ProvidersConfig struct {
	Checkout ProviderConfig `mapstructure:"checkout"`
	Bank     ProviderConfig `mapstructure:"bank"`
	Manual   ProviderConfig `mapstructure:"manual"`
}

type ProviderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)

	viperInstance.SetEnvPrefix("RAFFLE")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Printf("unable to decode config into struct, %v", err)
		return nil, err
	}
	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.dedupe_ttl", 24*time.Hour)

	v.SetDefault("rabbitmq.queue_name", "raffle.settlements")
	v.SetDefault("rabbitmq.retry_count", 3)
	v.SetDefault("rabbitmq.retry_delay", 500*time.Millisecond)

	v.SetDefault("kafka.topic", "raffle-operations")

	v.SetDefault("storage.base_path", "./storage")
	v.SetDefault("storage.max_upload_mb", 10)
	v.SetDefault("storage.thumbnail_width", 320)
	v.SetDefault("storage.thumbnail_height", 320)

	v.SetDefault("campaign.max_tickets", 100000)

	v.SetDefault("reservation.default_timeout", 15) // 15 минут
	v.SetDefault("reservation.max_timeout", 1440)

	v.SetDefault("sweeper.enabled", false)
	v.SetDefault("sweeper.interval", 30*time.Minute)
	v.SetDefault("sweeper.draft_grace", 48*time.Hour)
	v.SetDefault("sweeper.batch_size", 500)

	v.SetDefault("review.release_on_reject", false)

	v.SetDefault("providers.checkout.enabled", true)
	v.SetDefault("providers.bank.enabled", true)
	v.SetDefault("providers.manual.enabled", true)

	v.SetDefault("telegram.enabled", false)
}
