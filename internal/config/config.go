package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// HTTP holds HTTP server configuration.
type HTTP struct {
	Host string
	Port int
}

// GRPC holds gRPC server configuration.
type GRPC struct {
	Enabled bool
	Host    string
	Port    int
}

// Cache configures caching behavior and backend selection.
type Cache struct {
	Enabled    bool
	Driver     string
	DefaultTTL time.Duration
	SummaryTTL time.Duration
	Redis      Redis
}

// Redis contains redis-specific connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Messaging configures the message bus used for order events.
type Messaging struct {
	Driver        string
	Enabled       bool
	Kafka         Kafka
	RabbitMQ      RabbitMQ
	ConsumerGroup string
	Workers       Worker
}

// Kafka holds Kafka connection details.
type Kafka struct {
	Brokers        []string
	ClientID       string
	Topic          string
	CommitInterval time.Duration
	MinBytes       int
	MaxBytes       int
	ConnectTimeout time.Duration
}

// RabbitMQ holds AMQP connection details. Queue doubles as the event topic.
type RabbitMQ struct {
	URL      string
	Queue    string
	Prefetch int
}

// Worker configures background worker concurrency and polling.
type Worker struct {
	Enabled      bool
	PollInterval time.Duration
	Concurrency  int
}

// Database holds primary and read replica connection settings.
type Database struct {
	Driver          string
	WriterDSN       string
	ReaderDSN       string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

// Auth configures bearer token validation.
type Auth struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

// RateLimit configures the redis token bucket guarding bid submission.
type RateLimit struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// Observability contains logging, tracing, and metrics configuration.
type Observability struct {
	ServiceName     string
	Environment     string
	LogLevel        string
	LogEncoding     string
	EnableTracing   bool
	TraceExporter   string
	TraceEndpoint   string
	TraceInsecure   bool
	TraceSampling   float64
	EnableMetrics   bool
	MetricsExporter string
	PrometheusPath  string
}

// Config wraps all application configuration knobs.
type Config struct {
	HTTP          HTTP
	GRPC          GRPC
	Cache         Cache
	Messaging     Messaging
	Database      Database
	Auth          Auth
	RateLimit     RateLimit
	Observability Observability
}

// Module wires the configuration loader into the Fx graph.
var Module = fx.Provide(New)

var loadEnvOnce sync.Once

// New builds a Config from the process environment, after merging a .env
// file from the working directory when one exists. Every section is
// normalized before the config is returned.
func New() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	cfg := Config{
		HTTP:          loadHTTP(),
		GRPC:          loadGRPC(),
		Cache:         loadCache(),
		Messaging:     loadMessaging(),
		Database:      loadDatabase(),
		Auth:          loadAuth(),
		RateLimit:     loadRateLimit(),
		Observability: loadObservability(),
	}

	for _, section := range []interface{ normalize() error }{
		&cfg.HTTP,
		&cfg.GRPC,
		&cfg.Cache,
		&cfg.Messaging,
		&cfg.Database,
		&cfg.Auth,
		&cfg.RateLimit,
		&cfg.Observability,
	} {
		if err := section.normalize(); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
