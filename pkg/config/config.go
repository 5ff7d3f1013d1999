package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source kinds
const (
	SourceMongo = "mongodb"
	SourceFile  = "file"
	SourceKafka = "kafka"
)

// Cache backends
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// AppConfig holds the complete configuration for the application
type AppConfig struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	ServiceName string         `mapstructure:"service_name"`
	Source      SourceConfig   `mapstructure:"source"`
	MongoDB     MongoConfig    `mapstructure:"mongodb"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Analysis    AnalysisConfig `mapstructure:"analysis"`
	Export      ExportConfig   `mapstructure:"export"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	Server      ServerConfig   `mapstructure:"server"`
}

type SourceConfig struct {
	Kind     string   `mapstructure:"kind"`
	FilePath string   `mapstructure:"file_path"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	FetchLimit     int64         `mapstructure:"fetch_limit"`
}

type CacheConfig struct {
	Backend   string        `mapstructure:"backend"`
	Path      string        `mapstructure:"path"`
	RedisAddr string        `mapstructure:"redis_addr"`
	Key       string        `mapstructure:"key"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type AnalysisConfig struct {
	CleanRanges bool `mapstructure:"clean_ranges"`
	MinRecords  int  `mapstructure:"min_records"`
	Workers     int  `mapstructure:"workers"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type PostgresConfig struct {
	URI      string `mapstructure:"uri"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	WatchChanges bool   `mapstructure:"watch_changes"`
}

// Load loads configuration from file and environment variables
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "analytics")
	v.SetDefault("source.kind", SourceMongo)
	v.SetDefault("mongodb.connect_timeout", 5*time.Second)
	v.SetDefault("mongodb.fetch_limit", 10000)
	v.SetDefault("cache.backend", CacheNone)
	v.SetDefault("cache.path", "snapshot.bson")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.key", "analytics:snapshot")
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("analysis.clean_ranges", true)
	v.SetDefault("analysis.min_records", 10)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("export.dir", "./exports")
	v.SetDefault("postgres.max_conns", 4)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.watch_changes", false)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	// Unmarshal only sees env values for keys viper already knows about
	for key, env := range map[string]string{
		"service_name":          "SERVICE_NAME",
		"environment":           "ENVIRONMENT",
		"log_level":             "LOG_LEVEL",
		"source.kind":           "SOURCE_KIND",
		"source.file_path":      "SOURCE_FILE_PATH",
		"source.brokers":        "SOURCE_BROKERS",
		"source.topic":          "SOURCE_TOPIC",
		"mongodb.uri":           "MONGODB_URI",
		"mongodb.database":      "MONGODB_DATABASE",
		"mongodb.collection":    "MONGODB_COLLECTION",
		"mongodb.fetch_limit":   "MONGODB_FETCH_LIMIT",
		"cache.backend":         "CACHE_BACKEND",
		"cache.path":            "CACHE_PATH",
		"cache.redis_addr":      "CACHE_REDIS_ADDR",
		"cache.ttl":             "CACHE_TTL",
		"analysis.clean_ranges": "ANALYSIS_CLEAN_RANGES",
		"analysis.min_records":  "ANALYSIS_MIN_RECORDS",
		"analysis.workers":      "ANALYSIS_WORKERS",
		"export.dir":            "EXPORT_DIR",
		"postgres.uri":          "POSTGRES_URI",
		"kafka.brokers":         "KAFKA_BROKERS",
		"kafka.topic":           "KAFKA_TOPIC",
		"server.addr":           "SERVER_ADDR",
		"server.watch_changes":  "SERVER_WATCH_CHANGES",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Brokers from env arrive as a single comma separated string
	config.Kafka.Brokers = splitBrokers(config.Kafka.Brokers, v.GetString("kafka.brokers"))
	config.Source.Brokers = splitBrokers(config.Source.Brokers, v.GetString("source.brokers"))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func splitBrokers(parsed []string, raw string) []string {
	if raw == "" || len(parsed) > 1 {
		return parsed
	}
	return strings.Split(raw, ",")
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}

	switch c.Source.Kind {
	case SourceMongo:
		if c.MongoDB.URI == "" {
			return errors.New("mongodb.uri is required")
		}
		if c.MongoDB.Database == "" {
			return errors.New("mongodb.database is required")
		}
		if c.MongoDB.Collection == "" {
			return errors.New("mongodb.collection is required")
		}
		if c.MongoDB.FetchLimit < 0 {
			return errors.New("mongodb.fetch_limit must not be negative")
		}
	case SourceFile:
		if c.Source.FilePath == "" {
			return errors.New("source.file_path is required")
		}
	case SourceKafka:
		if len(c.Source.Brokers) == 0 {
			return errors.New("source.brokers is required")
		}
		if c.Source.Topic == "" {
			return errors.New("source.topic is required")
		}
	default:
		return fmt.Errorf("unknown source.kind %q", c.Source.Kind)
	}

	switch c.Cache.Backend {
	case CacheNone, "":
	case CacheFile:
		if c.Cache.Path == "" {
			return errors.New("cache.path is required")
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}

	if c.Analysis.MinRecords < 1 {
		return errors.New("analysis.min_records must be positive")
	}
	if c.Analysis.Workers < 1 {
		return errors.New("analysis.workers must be positive")
	}
	if (len(c.Kafka.Brokers) == 0) != (c.Kafka.Topic == "") {
		return errors.New("kafka.brokers and kafka.topic must be set together")
	}
	return nil
}
