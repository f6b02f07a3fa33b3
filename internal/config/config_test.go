package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	require.Equal(t, "orders.events", cfg.Messaging.Kafka.Topic)
	require.Equal(t, 30*time.Second, cfg.Cache.SummaryTTL)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, "/metrics", cfg.Observability.PrometheusPath)
	require.Equal(t, 1.0, cfg.Observability.TraceSampling)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CACHE_ENABLED", "off")
	t.Setenv("MESSAGING_DRIVER", "rabbitmq")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("OBS_PROMETHEUS_PATH", "prom")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_WRITER_DSN", "file::memory:?cache=shared")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, "noop", cfg.Cache.Driver)
	require.Equal(t, "rabbitmq", cfg.Messaging.Driver)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.Messaging.Kafka.Brokers)
	require.Equal(t, "/prom", cfg.Observability.PrometheusPath)
	require.Equal(t, 10*time.Second, cfg.RateLimit.TTL)
	require.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing_jwt_secret", env: map[string]string{"JWT_SECRET": "  "}},
		{name: "bad_http_port", env: map[string]string{"JWT_SECRET": "s", "HTTP_PORT": "0"}},
		{name: "unknown_cache_driver", env: map[string]string{"JWT_SECRET": "s", "CACHE_DRIVER": "memcached"}},
		{name: "unknown_messaging_driver", env: map[string]string{"JWT_SECRET": "s", "MESSAGING_DRIVER": "nats"}},
		{name: "unknown_database_driver", env: map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "oracle"}},
		{name: "sample_ratio_out_of_range", env: map[string]string{"JWT_SECRET": "s", "OBS_TRACE_SAMPLE_RATIO": "1.5"}},
		{name: "empty_writer_dsn", env: map[string]string{"JWT_SECRET": "s", "DB_WRITER_DSN": ""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := New()
			require.Error(t, err)
		})
	}
}
