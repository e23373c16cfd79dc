package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// AppConfig 全局配置实例
var AppConfig *Config

// Config application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	JWT      JWTConfig      `yaml:"jwt"`
	MongoDB  MongoDBConfig  `yaml:"mongodb"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Listing  ListingConfig  `yaml:"listing"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port         string        `yaml:"port" env:"SERVER_PORT" default:"8801"`
	Mode         string        `yaml:"mode" env:"GIN_MODE" default:"debug"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
	TimeZone     string        `yaml:"time_zone" env:"TZ_NAME" default:"Europe/Paris"`
}

// DatabaseConfig database settings
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DB_DRIVER" default:"mysql"` // mysql, postgres, sqlite
	DSN             string        `yaml:"dsn" env:"DB_DSN"`
	MaxIdleConns    int           `yaml:"max_idle_conns" default:"10"`
	MaxOpenConns    int           `yaml:"max_open_conns" default:"100"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"1h"`
	LogLevel        string        `yaml:"log_level" default:"warn"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"200ms"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig Redis settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr         string        `yaml:"addr" env:"REDIS_ADDR"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB           int           `yaml:"db" env:"REDIS_DB" default:"0"`
	PoolSize     int           `yaml:"pool_size" default:"10"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"3s"`
}

// SessionConfig cookie session settings
type SessionConfig struct {
	Name   string `yaml:"name" default:"estate_session"`
	Secret string `yaml:"secret" env:"SESSION_SECRET"`
	Store  string `yaml:"store" env:"SESSION_STORE" default:"cookie"` // cookie 或 redis
	MaxAge int    `yaml:"max_age" default:"7200"`
}

// JWTConfig bearer token settings
type JWTConfig struct {
	SigningKey string        `yaml:"signing_key" env:"JWT_SIGNING_KEY"`
	Expiry     time.Duration `yaml:"expiry" default:"24h"`
	Issuer     string        `yaml:"issuer" default:"estate-listing"`
}

// MongoDBConfig MongoDB settings
type MongoDBConfig struct {
	Databases map[string]MongoDatabase `yaml:"databases"`
	// AnalyticsDB names the entry of Databases that receives search and http metrics.
	AnalyticsDB string `yaml:"analytics_db" env:"MONGO_ANALYTICS_DB"`
}

// MongoDatabase MongoDB数据库配置
type MongoDatabase struct {
	URI         string            `yaml:"uri"`
	Collections map[string]string `yaml:"collections"`
}

// AMQPConfig RabbitMQ settings. An empty URL disables publishing.
type AMQPConfig struct {
	URL         string `yaml:"url" env:"AMQP_URL"`
	SearchQueue string `yaml:"search_queue" default:"listing_search_events"`
}

// StorageConfig object storage settings for listing images
type StorageConfig struct {
	Provider        string        `yaml:"provider" env:"STORAGE_PROVIDER" default:"public"` // public 或 tos
	BaseURL         string        `yaml:"base_url" env:"STORAGE_BASE_URL" default:"/uploads/"`
	Endpoint        string        `yaml:"endpoint" env:"TOS_ENDPOINT"`
	Region          string        `yaml:"region" env:"TOS_REGION"`
	AccessKeyID     string        `yaml:"access_key_id" env:"TOS_ACCESS_KEY"`
	AccessKeySecret string        `yaml:"access_key_secret" env:"TOS_SECRET_KEY"`
	BucketName      string        `yaml:"bucket_name" env:"TOS_BUCKET"`
	PresignExpiry   time.Duration `yaml:"presign_expiry" default:"1h"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" default:"info"`
	Format   string `yaml:"format" default:"json"`   // json 或 console
	Output   string `yaml:"output" default:"stdout"` // stdout, file, both
	FilePath string `yaml:"file_path" default:"logs/app.log"`
}

// ListingConfig listing page settings
type ListingConfig struct {
	CacheTTL     time.Duration `yaml:"cache_ttl" env:"LISTING_CACHE_TTL" default:"30s"`
	AssetVersion string        `yaml:"asset_version" env:"ASSET_VERSION" default:"1"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins  []string `yaml:"allowed_origins"`
	TrustedProxies  []string `yaml:"trusted_proxies"`
	RateLimit       int      `yaml:"rate_limit" default:"1000"` // requests per minute per IP
	EnableRateLimit bool     `yaml:"enable_rate_limit" default:"true"`
}

// InitConfig 初始化配置
func InitConfig() error {
	if err := loadEnv(); err != nil {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	config := &Config{}
	setDefaults(config)

	if err := loadFromFile(config); err != nil {
		log.Printf("Warning: failed to load config file: %v", err)
	}

	if err := loadFromEnv(config); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	AppConfig = config
	return nil
}

// loadEnv 加载环境变量文件
func loadEnv() error {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFiles := []string{
		".env",
		fmt.Sprintf(".env.%s", env),
		".env.local",
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err != nil {
				return err
			}
		}
	}

	return nil
}

// setDefaults 设置默认值
func setDefaults(config *Config) {
	config.Server.Port = "8801"
	config.Server.Mode = "debug"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.TimeZone = "Europe/Paris"

	config.Database.Driver = "mysql"
	config.Database.MaxIdleConns = 10
	config.Database.MaxOpenConns = 100
	config.Database.ConnMaxLifetime = time.Hour
	config.Database.LogLevel = "warn"
	config.Database.SlowThreshold = 200 * time.Millisecond

	config.Redis.DB = 0
	config.Redis.PoolSize = 10
	config.Redis.DialTimeout = 5 * time.Second
	config.Redis.ReadTimeout = 3 * time.Second
	config.Redis.WriteTimeout = 3 * time.Second

	config.Session.Name = "estate_session"
	config.Session.Store = "cookie"
	config.Session.MaxAge = 7200

	config.JWT.Expiry = 24 * time.Hour
	config.JWT.Issuer = "estate-listing"

	config.AMQP.SearchQueue = "listing_search_events"

	config.Storage.Provider = "public"
	config.Storage.BaseURL = "/uploads/"
	config.Storage.PresignExpiry = time.Hour

	config.Log.Level = "info"
	config.Log.Format = "json"
	config.Log.Output = "stdout"
	config.Log.FilePath = "logs/app.log"

	config.Listing.CacheTTL = 30 * time.Second
	config.Listing.AssetVersion = "1"

	config.Security.RateLimit = 1000
	config.Security.EnableRateLimit = true
}

// loadFromFile 从配置文件加载
func loadFromFile(config *Config) error {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config/config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, config)
}

// loadFromEnv 从环境变量加载
func loadFromEnv(config *Config) error {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = port
	} else if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}
	if tz := os.Getenv("TZ_NAME"); tz != "" {
		config.Server.TimeZone = tz
	}

	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		config.Database.DSN = dsn
	} else if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DB_AUTO_MIGRATE %q: %w", v, err)
		}
		config.Database.AutoMigrate = b
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", dbStr, err)
		}
		config.Redis.DB = db
	}

	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		config.Session.Secret = secret
	}
	if store := os.Getenv("SESSION_STORE"); store != "" {
		config.Session.Store = store
	}
	if signingKey := os.Getenv("JWT_SIGNING_KEY"); signingKey != "" {
		config.JWT.SigningKey = signingKey
	}

	if db := os.Getenv("MONGO_ANALYTICS_DB"); db != "" {
		config.MongoDB.AnalyticsDB = db
	}
	if url := os.Getenv("AMQP_URL"); url != "" {
		config.AMQP.URL = url
	}

	if provider := os.Getenv("STORAGE_PROVIDER"); provider != "" {
		config.Storage.Provider = provider
	}
	if baseURL := os.Getenv("STORAGE_BASE_URL"); baseURL != "" {
		config.Storage.BaseURL = baseURL
	}
	if v := os.Getenv("TOS_ENDPOINT"); v != "" {
		config.Storage.Endpoint = v
	}
	if v := os.Getenv("TOS_REGION"); v != "" {
		config.Storage.Region = v
	}
	if v := os.Getenv("TOS_ACCESS_KEY"); v != "" {
		config.Storage.AccessKeyID = v
	}
	if v := os.Getenv("TOS_SECRET_KEY"); v != "" {
		config.Storage.AccessKeySecret = v
	}
	if v := os.Getenv("TOS_BUCKET"); v != "" {
		config.Storage.BucketName = v
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}

	if ttl := os.Getenv("LISTING_CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid LISTING_CACHE_TTL %q: %w", ttl, err)
		}
		config.Listing.CacheTTL = d
	}
	if version := os.Getenv("ASSET_VERSION"); version != "" {
		config.Listing.AssetVersion = version
	}

	if envOrigins := os.Getenv("ALLOWED_ORIGINS"); envOrigins != "" {
		origins := strings.Split(envOrigins, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		config.Security.AllowedOrigins = origins
	}

	return nil
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	switch config.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if _, err := strconv.Atoi(strings.TrimPrefix(config.Server.Port, ":")); err != nil {
		return fmt.Errorf("invalid server port: %s", config.Server.Port)
	}

	validModes := []string{"debug", "release", "test"}
	modeValid := false
	for _, mode := range validModes {
		if config.Server.Mode == mode {
			modeValid = true
			break
		}
	}
	if !modeValid {
		return fmt.Errorf("invalid server mode: %s", config.Server.Mode)
	}

	if config.Session.Store != "cookie" && config.Session.Store != "redis" {
		return fmt.Errorf("invalid session store: %s", config.Session.Store)
	}
	if config.Session.Store == "redis" && config.Redis.Addr == "" {
		return fmt.Errorf("session store redis requires redis.addr")
	}

	if config.Storage.Provider == "tos" && config.Storage.BucketName == "" {
		return fmt.Errorf("storage provider tos requires a bucket name")
	}

	if config.Server.Mode == "release" && config.Session.Secret == "" {
		return fmt.Errorf("session secret is required in release mode")
	}

	return nil
}

// GetConfig 获取配置实例
func GetConfig() *Config {
	if AppConfig == nil {
		log.Fatal("config not initialized, call InitConfig() first")
	}
	return AppConfig
}

// IsProduction 判断是否为生产环境
func IsProduction() bool {
	return AppConfig != nil && AppConfig.Server.Mode == "release"
}

// IsDevelopment 判断是否为开发环境
func IsDevelopment() bool {
	return AppConfig != nil && AppConfig.Server.Mode == "debug"
}
