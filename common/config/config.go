// Package config holds the infrastructure configuration shared by all Lendline services
// and the viper loading conventions they follow.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lendline/lendline-stack/common/messaging"
)

// Broker backends.
const (
	BrokerNATS   = "nats"
	BrokerKafka  = "kafka"
	BrokerMemory = "memory"
)

// DLQ backends.
const (
	DLQJetStream = "jetstream"
	DLQFile      = "file"
	DLQNone      = "none"
)

// Infra groups the shared infrastructure sections every service config embeds.
type Infra struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   PostgresConfig   `mapstructure:"database"`
	Broker     BrokerConfig     `mapstructure:"broker"`
	Channels   ChannelsConfig   `mapstructure:"channels"`
	DLQ        DLQConfig        `mapstructure:"dlq"`
	Redis      RedisConfig      `mapstructure:"redis"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`

	// InMemory swaps the postgres repository for the in-memory one.
	InMemory bool `mapstructure:"in_memory"`
}

// DSN renders a postgres:// connection string.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   "/" + p.Database,
	}
	q := url.Values{}
	if p.SSLMode != "" {
		q.Set("sslmode", p.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// BrokerConfig selects and configures the message broker.
type BrokerConfig struct {
	Backend string      `mapstructure:"backend"` // "nats" (default), "kafka" or "memory"
	NATS    NATSConfig  `mapstructure:"nats"`
	Kafka   KafkaConfig `mapstructure:"kafka"`
}

// NATSConfig holds NATS message broker configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	Stream         string        `mapstructure:"stream"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxAckPending  int           `mapstructure:"max_ack_pending"`
}

// KafkaConfig holds Kafka broker configuration
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
}

// ChannelsConfig names the channel used for each event kind.
type ChannelsConfig struct {
	BorrowerCreated string `mapstructure:"borrower_created"`
	LoanApplication string `mapstructure:"loan_application"`
	DocumentsUpload string `mapstructure:"documents_upload"`
	LoanStatus      string `mapstructure:"loan_status"`
	DocumentsStatus string `mapstructure:"documents_status"`
}

// All returns every configured channel.
func (c ChannelsConfig) All() []string {
	return []string{c.BorrowerCreated, c.LoanApplication, c.DocumentsUpload, c.LoanStatus, c.DocumentsStatus}
}

// DefaultChannels returns the default channel names.
func DefaultChannels() ChannelsConfig {
	return ChannelsConfig{
		BorrowerCreated: messaging.ChannelBorrowerCreated,
		LoanApplication: messaging.ChannelLoanApplication,
		DocumentsUpload: messaging.ChannelDocumentsUpload,
		LoanStatus:      messaging.ChannelLoanStatus,
		DocumentsStatus: messaging.ChannelDocumentsStatus,
	}
}

// DLQConfig holds dead letter queue configuration
type DLQConfig struct {
	Backend  string `mapstructure:"backend"`   // "jetstream" (default), "file" or "none"
	BasePath string `mapstructure:"base_path"` // Only used for file backend
	Stream   string `mapstructure:"stream"`    // Only used for jetstream backend
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string        `mapstructure:"url"`
	Enabled  bool          `mapstructure:"enabled"`
	PoolSize int           `mapstructure:"pool_size"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// OpenSearchConfig holds OpenSearch connection settings
type OpenSearchConfig struct {
	URL      string `mapstructure:"url"`
	Enabled  bool   `mapstructure:"enabled"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Insecure bool   `mapstructure:"insecure"`
	Index    string `mapstructure:"index"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks the sections a service cannot start without.
func (i Infra) Validate() error {
	var errs []error
	if i.Server.Port <= 0 {
		errs = append(errs, errors.New("server.port must be positive"))
	}
	switch i.Broker.Backend {
	case BrokerNATS:
		if i.Broker.NATS.URL == "" {
			errs = append(errs, errors.New("broker.nats.url is required"))
		}
	case BrokerKafka:
		if len(i.Broker.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("broker.kafka.brokers is required"))
		}
	case BrokerMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown broker backend %q", i.Broker.Backend))
	}
	switch i.DLQ.Backend {
	case DLQJetStream:
		if i.Broker.Backend != BrokerNATS {
			errs = append(errs, errors.New("dlq.backend jetstream requires broker.backend nats"))
		}
	case DLQFile:
		if i.DLQ.BasePath == "" {
			errs = append(errs, errors.New("dlq.base_path is required for file backend"))
		}
	case DLQNone:
	default:
		errs = append(errs, fmt.Errorf("unknown dlq backend %q", i.DLQ.Backend))
	}
	for _, c := range i.Channels.All() {
		if c == "" {
			errs = append(errs, errors.New("every channel name must be set"))
			break
		}
	}
	return errors.Join(errs...)
}

// SetInfraDefaults registers the defaults of every Infra section for a service.
func SetInfraDefaults(v *viper.Viper, service string, port int) {
	// Server defaults
	v.SetDefault("server.port", port)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "lendline_"+service)
	v.SetDefault("database.user", "lendline")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.in_memory", false)

	// Broker defaults
	v.SetDefault("broker.backend", BrokerNATS)
	v.SetDefault("broker.nats.url", "nats://localhost:4222")
	v.SetDefault("broker.nats.stream", "LENDLINE_EVENTS")
	v.SetDefault("broker.nats.max_reconnects", -1)
	v.SetDefault("broker.nats.reconnect_wait", "2s")
	v.SetDefault("broker.nats.publish_timeout", "10s")
	v.SetDefault("broker.nats.ack_wait", "30s")
	v.SetDefault("broker.nats.max_ack_pending", 256)
	v.SetDefault("broker.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("broker.kafka.batch_timeout", "10ms")
	v.SetDefault("broker.kafka.required_acks", -1)

	// Channel defaults
	ch := DefaultChannels()
	v.SetDefault("channels.borrower_created", ch.BorrowerCreated)
	v.SetDefault("channels.loan_application", ch.LoanApplication)
	v.SetDefault("channels.documents_upload", ch.DocumentsUpload)
	v.SetDefault("channels.loan_status", ch.LoanStatus)
	v.SetDefault("channels.documents_status", ch.DocumentsStatus)

	// DLQ defaults
	v.SetDefault("dlq.backend", DLQJetStream)
	v.SetDefault("dlq.base_path", "/var/lib/lendline/dlq/"+service)
	v.SetDefault("dlq.stream", "LENDLINE_DLQ")

	// Redis defaults
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.ttl", "24h")

	// OpenSearch defaults
	v.SetDefault("opensearch.url", "https://localhost:9200")
	v.SetDefault("opensearch.enabled", false)
	v.SetDefault("opensearch.username", "admin")
	v.SetDefault("opensearch.password", "admin")
	v.SetDefault("opensearch.insecure", true)
	v.SetDefault("opensearch.index", "lendline-scores")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads configPath (optional) and environment variables with the given prefix
// into out. A missing config file is not an error when no path was requested.
func Load(v *viper.Viper, envPrefix, configPath string, out interface{}) error {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := os.Getenv("LENDLINE_CONFIG_DIR"); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath("/etc/lendline")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// ReadYAML decodes a standalone YAML file, used for files that live next to
// the main config such as scoring weights.
func ReadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
