package config

import (
	"fmt"
	"time"

	"github.com/antonvlasov/papertrade/pkg/log"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvProd = "prod"
	EnvTest = "test"
)

// PostgresSchema is fixed: the migrations and the repository queries
// qualify every table with it.
const PostgresSchema = "papertrade"

type Config struct {
	Env string `yaml:"env" env:"ENV" env-upd:""`

	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogEncoding string `yaml:"log_encoding" env:"LOG_ENCODING" env-default:"console"`

	Postgres Postgres `yaml:"postgres"`

	Server Server `yaml:"server"`

	Kraken Kraken `yaml:"kraken"`
}

type Postgres struct {
	Database string `yaml:"database" env:"POSTGRES_DATABASE" env-upd:""`
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-upd:""`
	Username string `yaml:"username" env:"POSTGRES_USER" env-upd:""`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-upd:""`
	Port     int64  `yaml:"port" env:"POSTGRES_PORT" env-upd:""`
}

type Server struct {
	Address        string        `yaml:"address" env:"SERVER_ADDRESS" env-default:":8080" env-upd:""`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" env-default:"15s"`
}

type Kraken struct {
	APIURL string `yaml:"api_url" env:"KRAKEN_API_URL" env-default:"https://api.kraken.com"`
	WSURL  string `yaml:"ws_url" env:"KRAKEN_WS_URL" env-default:"wss://ws.kraken.com"`

	// Timeout bounds every price resolution; a slow oracle call fails
	// the trade instead of settling on a stale quote.
	Timeout time.Duration `yaml:"timeout" env:"KRAKEN_TIMEOUT" env-default:"5s"`

	// Pairs is the asset list shown on the market prices endpoint.
	Pairs []string `yaml:"pairs" env:"KRAKEN_PAIRS" env-separator:","`

	// Stream enables the websocket ticker feed that keeps the market
	// snapshot warm; REST polling is the fallback when disabled.
	Stream   bool          `yaml:"stream" env:"KRAKEN_STREAM"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"KRAKEN_CACHE_TTL" env-default:"10s"`
}

func (c *Config) GetPostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Postgres.Username, c.Postgres.Password, c.Postgres.Host, c.Postgres.Port, c.Postgres.Database)
}

func GetConfig(configPath string) *Config {
	if configPath == "" {
		log.Fatal("config path is required")
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatal(err.Error())
	}

	if err := cleanenv.UpdateEnv(&cfg); err != nil {
		log.Fatal(err.Error())
	}

	return &cfg
}
