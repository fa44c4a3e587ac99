package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	AMQP      AMQPConfig      `yaml:"amqp"`
	Auth      AuthConfig      `yaml:"auth"`
	Roblox    RobloxConfig    `yaml:"roblox"`
	Booking   BookingConfig   `yaml:"booking"`
	Worker    WorkerConfig    `yaml:"worker"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// StorageConfig selects the adapters. Flights and bookings use Driver
// (memory or postgres), seat holds use Holds (memory or redis).
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Holds  string `yaml:"holds"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	EventsTopic string   `yaml:"events_topic"`
	GroupID     string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type AMQPConfig struct {
	URL         string `yaml:"url"`
	QueuePrefix string `yaml:"queue_prefix"`
}

func (a AMQPConfig) Enabled() bool { return a.URL != "" }

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// RoleRank grants Role to group members whose rank is at least MinRank.
type RoleRank struct {
	MinRank int    `yaml:"min_rank"`
	Role    string `yaml:"role"`
}

type RobloxConfig struct {
	OAuthURL     string        `yaml:"oauth_url"`
	InventoryURL string        `yaml:"inventory_url"`
	GroupsURL    string        `yaml:"groups_url"`
	GamepassID   string        `yaml:"gamepass_id"`
	GroupID      int64         `yaml:"group_id"`
	Timeout      time.Duration `yaml:"timeout"`
	Attempts     int           `yaml:"attempts"`
	RoleRanks    []RoleRank    `yaml:"role_ranks"`
}

type BookingConfig struct {
	MinHold            time.Duration `yaml:"min_hold"`
	MaxHold            time.Duration `yaml:"max_hold"`
	DefaultHold        time.Duration `yaml:"default_hold"`
	CancellationWindow time.Duration `yaml:"cancellation_window"`
	FlightsCacheTTL    time.Duration `yaml:"flights_cache_ttl"`
}

type WorkerConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads .env (if any), the YAML file at path, then applies
// environment overrides for secrets and fills defaults.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("ROBLOX_GAMEPASS_ID"); v != "" {
		c.Roblox.GamepassID = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.HTTP.Address, ":8080")
	setDefault(&c.Storage.Driver, DriverMemory)
	setDefault(&c.Storage.Holds, DriverMemory)
	setDefault(&c.Kafka.EventsTopic, "indigo.events")
	setDefault(&c.Kafka.GroupID, "indigo-worker")
	setDefault(&c.AMQP.QueuePrefix, "indigo")
	setDefault(&c.Roblox.OAuthURL, "https://apis.roblox.com/oauth/v1/userinfo")
	setDefault(&c.Roblox.InventoryURL, "https://inventory.roblox.com")
	setDefault(&c.Roblox.GroupsURL, "https://groups.roblox.com")
	setDefault(&c.Log.Level, "info")
	setDefault(&c.Log.Format, "json")

	setDefault(&c.Auth.SessionTTL, 7*24*time.Hour)
	setDefault(&c.Roblox.Timeout, 5*time.Second)
	setDefault(&c.Booking.MinHold, time.Minute)
	setDefault(&c.Booking.MaxHold, 15*time.Minute)
	setDefault(&c.Booking.DefaultHold, 10*time.Minute)
	setDefault(&c.Booking.CancellationWindow, 24*time.Hour)
	setDefault(&c.Booking.FlightsCacheTTL, 30*time.Second)
	setDefault(&c.Worker.SweepInterval, time.Minute)

	setDefault(&c.Roblox.Attempts, 3)
	setDefault(&c.RateLimit.RPS, 20)
	setDefault(&c.RateLimit.Burst, 40)

	if len(c.Roblox.RoleRanks) == 0 {
		c.Roblox.RoleRanks = []RoleRank{
			{MinRank: 255, Role: "admin"},
			{MinRank: 200, Role: "supervisor"},
			{MinRank: 150, Role: "atc"},
			{MinRank: 100, Role: "first_officer"},
			{MinRank: 50, Role: "pilot"},
		}
	}
	sort.Slice(c.Roblox.RoleRanks, func(i, j int) bool {
		return c.Roblox.RoleRanks[i].MinRank > c.Roblox.RoleRanks[j].MinRank
	})
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (or JWT_SECRET) is required")
	}
	if c.Booking.MinHold > c.Booking.MaxHold {
		return fmt.Errorf("booking.min_hold %s exceeds booking.max_hold %s", c.Booking.MinHold, c.Booking.MaxHold)
	}
	if c.Booking.DefaultHold < c.Booking.MinHold || c.Booking.DefaultHold > c.Booking.MaxHold {
		return fmt.Errorf("booking.default_hold %s outside [%s, %s]", c.Booking.DefaultHold, c.Booking.MinHold, c.Booking.MaxHold)
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Storage.Holds {
	case DriverMemory:
	case DriverRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("storage.holds=redis requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown storage.holds %q", c.Storage.Holds)
	}
	return nil
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}
