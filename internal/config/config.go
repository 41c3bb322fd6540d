package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Invoicing  InvoicingConfig  `yaml:"invoicing"`
	Broker     BrokerConfig     `yaml:"broker"`
	Worker     WorkerConfig     `yaml:"worker"`
	Reports    ReportsConfig    `yaml:"reports"`
	Seed       SeedConfig       `yaml:"seed"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      APICORSConfig      `yaml:"cors"`
}

type APIHTTPConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type APIGRPCConfig struct {
	Enabled bool         `yaml:"enabled"`
	Port    int          `yaml:"port"`
	TLS     APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

// APIClientKey is a machine client allowed to call the API. Permissions are
// "read" and "write"; an empty list grants both.
type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type APICORSConfig struct {
	Origins []string `yaml:"origins"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Timezone    string `yaml:"timezone"`
}

// Location resolves the hotel time zone, falling back to UTC.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type DatabaseConfig struct {
	Driver       string      `yaml:"driver"`
	Path         string      `yaml:"path"`
	MySQL        MySQLConfig `yaml:"mysql"`
	MaxOpenConns int         `yaml:"max_open_conns"`
	LogSQL       bool        `yaml:"log_sql"`
}

type MySQLConfig struct {
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	DBName   string            `yaml:"dbname"`
	Params   map[string]string `yaml:"params"`
}

type RedisConfig struct {
	Address    string        `yaml:"address"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	PoolSize   int           `yaml:"pool_size"`
	CatalogTTL time.Duration `yaml:"catalog_ttl"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type InvoicingConfig struct {
	NormalBase            int  `yaml:"normal_base"`
	CancelledBase         int  `yaml:"cancelled_base"`
	CheckInBase           int  `yaml:"checkin_base"`
	NumberWidth           int  `yaml:"number_width"`
	RejectEmptyAggregates bool `yaml:"reject_empty_aggregates"`
	AllocationRetries     int  `yaml:"allocation_retries"`
}

type BrokerConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type WorkerConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ReconcileBatch    int           `yaml:"reconcile_batch"`
}

type ReportsConfig struct {
	Path string `yaml:"path"`
}

type SeedConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case "mysql":
		if c.Database.MySQL.Host == "" || c.Database.MySQL.DBName == "" {
			return errors.New("mysql host and dbname are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	inv := c.Invoicing
	if inv.NormalBase <= 0 || inv.CancelledBase <= 0 || inv.CheckInBase <= 0 {
		return errors.New("invoice number bases must be positive")
	}
	if inv.CancelledBase <= inv.NormalBase || inv.CancelledBase <= inv.CheckInBase {
		return errors.New("cancelled invoice base must be above the normal and check-in bases")
	}
	if inv.NumberWidth < 4 || inv.NumberWidth > 12 {
		return fmt.Errorf("invoice number width %d out of range", inv.NumberWidth)
	}

	return ValidateAPIKeys(c.API.Auth.APIKeys)
}

func ValidateAPIKeys(keys []APIClientKey) error {
	seen := make(map[string]bool)
	for _, k := range keys {
		if k.Key == "" {
			return fmt.Errorf("api key '%s' is empty", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate api key for client '%s'", k.Name)
		}
		seen[k.Key] = true
		for _, p := range k.Permissions {
			if p != "read" && p != "write" {
				return fmt.Errorf("api key '%s' has unknown permission %q", k.Name, p)
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "hotelpos"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.MySQL.Port == 0 {
		c.Database.MySQL.Port = 3306
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.ReadTimeout == 0 {
		c.API.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.API.HTTP.WriteTimeout == 0 {
		c.API.HTTP.WriteTimeout = 30 * time.Second
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Redis.CatalogTTL == 0 {
		c.Redis.CatalogTTL = 10 * time.Minute
	}

	// Invoice numbering
	if c.Invoicing.NormalBase == 0 {
		c.Invoicing.NormalBase = 1220
	}
	if c.Invoicing.CancelledBase == 0 {
		c.Invoicing.CancelledBase = 9000
	}
	if c.Invoicing.CheckInBase == 0 {
		c.Invoicing.CheckInBase = 2000
	}
	if c.Invoicing.NumberWidth == 0 {
		c.Invoicing.NumberWidth = 6
	}
	if c.Invoicing.AllocationRetries == 0 {
		c.Invoicing.AllocationRetries = 3
	}

	if c.Broker.Exchange == "" {
		c.Broker.Exchange = "hotelpos.events"
	}
	if c.Worker.ReconcileInterval == 0 {
		c.Worker.ReconcileInterval = 15 * time.Minute
	}
	if c.Worker.ReconcileBatch == 0 {
		c.Worker.ReconcileBatch = 200
	}
	if c.Reports.Path == "" {
		c.Reports.Path = "reports"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
}
