package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/Ramsey-B/fern/pkg/imagesim"
	"github.com/Ramsey-B/fern/pkg/matching"
)

type Config struct {
	AppName                       string        `env:"APP_NAME" env-default:"fern"`
	Version                       string        `env:"APP_VERSION" env-default:"dev"`
	Port                          int           `env:"PORT" env-default:"3000"`
	LogLevel                      string        `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool          `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int           `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int           `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int           `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int           `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int           `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string      `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	ShutdownTimeout               time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
	StartupMaxAttempts            int           `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Database
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"fern"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	// Database Migration Version, 0 means latest
	DatabaseMigrationVersion      int  `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int  `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`
	// Run migrations before serving
	DatabaseMigrateOnStart bool `env:"DB_MIGRATE_ON_START" env-default:"true"`

	// Auth - when disabled, X-User-ID is trusted and review routes are open
	AuthEnabled   bool   `env:"AUTH_ENABLED" env-default:"false"`
	AuthIssuerURL string `env:"AUTH_ISSUER_URL" env-default:""`
	AuthClientID  string `env:"AUTH_CLIENT_ID" env-default:""`

	// Redis backs the auto-match lock and the fingerprint cache
	RedisEnabled     bool          `env:"REDIS_ENABLED" env-default:"true"`
	RedisHost        string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort        int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword    string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB          int           `env:"REDIS_DB" env-default:"0"`
	AutoMatchLockTTL time.Duration `env:"AUTOMATCH_LOCK_TTL" env-default:"2m"`

	// Kafka (comma-separated brokers)
	KafkaBrokers         string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaConsumerEnabled bool   `env:"KAFKA_CONSUMER_ENABLED" env-default:"true"`
	KafkaProducerEnabled bool   `env:"KAFKA_PRODUCER_ENABLED" env-default:"true"`
	KafkaReportsTopic    string `env:"KAFKA_REPORTS_TOPIC" env-default:"fern.reports"`
	KafkaEventsTopic     string `env:"KAFKA_EVENTS_TOPIC" env-default:"fern.events"`
	KafkaConsumerGroup   string `env:"KAFKA_CONSUMER_GROUP" env-default:"fern-matcher"`
	KafkaCompression     string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Graph (Memgraph/Neo4j over Bolt)
	GraphEnabled  bool   `env:"GRAPH_ENABLED" env-default:"false"`
	GraphHost     string `env:"GRAPH_HOST" env-default:"localhost"`
	GraphPort     int    `env:"GRAPH_PORT" env-default:"7687"`
	GraphUsername string `env:"GRAPH_USERNAME" env-default:""`
	GraphPassword string `env:"GRAPH_PASSWORD" env-default:""`

	// Tracing
	OTLPEnabled     bool    `env:"OTLP_ENABLED" env-default:"false"`
	OTLPEndpoint    string  `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol    string  `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure    bool    `env:"OTLP_INSECURE" env-default:"true"`
	OTLPSampleRatio float64 `env:"OTLP_SAMPLE_RATIO" env-default:"1"`

	// Matching
	MatchTextWeight       float64 `env:"MATCH_TEXT_WEIGHT" env-default:"0.35"`
	MatchImageWeight      float64 `env:"MATCH_IMAGE_WEIGHT" env-default:"0.25"`
	MatchLocationWeight   float64 `env:"MATCH_LOCATION_WEIGHT" env-default:"0.25"`
	MatchTimeWeight       float64 `env:"MATCH_TIME_WEIGHT" env-default:"0.15"`
	MatchMinThreshold     float64 `env:"MATCH_MIN_THRESHOLD" env-default:"0.40"`
	MatchHighThreshold    float64 `env:"MATCH_HIGH_THRESHOLD" env-default:"0.70"`
	MatchCandidateLimit   int     `env:"MATCH_CANDIDATE_LIMIT" env-default:"50"`
	MatchWorkers          int     `env:"MATCH_WORKERS" env-default:"4"`
	MatchMaxImagesPerSide int     `env:"MATCH_MAX_IMAGES_PER_SIDE" env-default:"3"`

	// Image fetching
	ImageFetchTimeout time.Duration `env:"IMAGE_FETCH_TIMEOUT" env-default:"10s"`
	ImageMaxBytes     int64         `env:"IMAGE_MAX_BYTES" env-default:"10485760"`
	ImageCacheTTL     time.Duration `env:"IMAGE_CACHE_TTL" env-default:"24h"`
	ImageHashMode     string        `env:"IMAGE_HASH_MODE" env-default:"ahash"`
	ImageFetchWorkers int           `env:"IMAGE_FETCH_WORKERS" env-default:"4"`
}

// Load reads an optional .env file, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Brokers splits KafkaBrokers
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// MatchingConfig builds and validates the finder configuration
func (c *Config) MatchingConfig() (matching.Config, error) {
	mc := matching.DefaultConfig()
	mc.TextWeight = c.MatchTextWeight
	mc.ImageWeight = c.MatchImageWeight
	mc.LocationWeight = c.MatchLocationWeight
	mc.TimeWeight = c.MatchTimeWeight
	mc.MinThreshold = c.MatchMinThreshold
	mc.HighThreshold = c.MatchHighThreshold
	mc.CandidateLimit = c.MatchCandidateLimit
	mc.Workers = c.MatchWorkers
	mc.MaxImagesPerSide = c.MatchMaxImagesPerSide

	if err := mc.Validate(); err != nil {
		return matching.Config{}, err
	}
	return mc, nil
}

// ImageConfig builds the image engine configuration
func (c *Config) ImageConfig() imagesim.Config {
	ic := imagesim.DefaultConfig()
	ic.HashMode = imagesim.HashMode(c.ImageHashMode)
	ic.MaxPerSide = c.MatchMaxImagesPerSide
	ic.Concurrency = c.ImageFetchWorkers
	return ic
}
