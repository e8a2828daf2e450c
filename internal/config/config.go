package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration values.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Session SessionConfig
	Seed    SeedConfig
}

type AppConfig struct {
	Env       string `envconfig:"STOCKTAKE_APP_ENV" default:"dev"`
	AdminPort string `envconfig:"STOCKTAKE_ADMIN_PORT" default:"8080"`
	UserPort  string `envconfig:"STOCKTAKE_USER_PORT" default:"8081"`
	LogLevel  string `envconfig:"STOCKTAKE_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	ShutdownTimeout time.Duration `envconfig:"STOCKTAKE_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

type DBConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"mysql"`
	DSN      string `envconfig:"DB_DSN"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"stocktake"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

type SessionConfig struct {
	Secret string        `envconfig:"SESSION_SECRET" default:"dev_secret"`
	TTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`
}

type SeedConfig struct {
	DrugFile string `envconfig:"STOCKTAKE_DRUG_FILE" default:"STOCK TAKE FILE.xlsx"`
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Session.Secret) == "" {
		return nil, fmt.Errorf("SESSION_SECRET must not be empty")
	}
	return &cfg, nil
}

func (db *DBConfig) ensureDSN() error {
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	switch db.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
	}

	if db.DSN != "" {
		return nil
	}

	switch db.Driver {
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = db.User
		mc.Passwd = db.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", db.Host, db.Port)
		mc.DBName = db.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Params = map[string]string{"charset": "utf8mb4"}
		db.DSN = mc.FormatDSN()
	case DriverPostgres:
		userInfo := url.User(db.User)
		if db.Password != "" {
			userInfo = url.UserPassword(db.User, db.Password)
		}
		u := &url.URL{
			Scheme:   "postgres",
			User:     userInfo,
			Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
			Path:     db.Name,
			RawQuery: "sslmode=disable",
		}
		db.DSN = u.String()
	case DriverSQLite:
		db.DSN = fmt.Sprintf("file:%s.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", db.Name)
	}
	return nil
}
