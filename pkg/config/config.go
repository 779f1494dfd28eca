package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGROFARM_APP_ENV" required:"true"`
	Port         string `envconfig:"AGROFARM_APP_PORT" default:"5000"`
	LogLevel     string `envconfig:"AGROFARM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGROFARM_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"AGROFARM_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"AGROFARM_DB_DSN"`
	Driver string `envconfig:"AGROFARM_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"AGROFARM_DB_HOST"`
	Port     int    `envconfig:"AGROFARM_DB_PORT" default:"5432"`
	User     string `envconfig:"AGROFARM_DB_USER"`
	Password string `envconfig:"AGROFARM_DB_PASSWORD"`
	Name     string `envconfig:"AGROFARM_DB_NAME"`
	SSLMode  string `envconfig:"AGROFARM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGROFARM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGROFARM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGROFARM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGROFARM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"AGROFARM_REDIS_URL"`
	Address      string        `envconfig:"AGROFARM_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"AGROFARM_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGROFARM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGROFARM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGROFARM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGROFARM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGROFARM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGROFARM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string        `envconfig:"AGROFARM_JWT_SECRET" required:"true"`
	Issuer            string        `envconfig:"AGROFARM_JWT_ISSUER" default:"agrofarm"`
	ExpirationMinutes int           `envconfig:"AGROFARM_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTL   time.Duration `envconfig:"AGROFARM_REFRESH_TOKEN_TTL" default:"168h"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	BcryptCost int `envconfig:"AGROFARM_BCRYPT_COST" default:"12"`
}

type RateLimitConfig struct {
	GlobalWindow time.Duration `envconfig:"AGROFARM_RATE_LIMIT_WINDOW" default:"15m"`
	GlobalLimit  int           `envconfig:"AGROFARM_RATE_LIMIT_MAX_REQUESTS" default:"100"`

	LoginWindow        time.Duration `envconfig:"AGROFARM_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AGROFARM_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AGROFARM_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AGROFARM_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AGROFARM_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AGROFARM_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"AGROFARM_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AGROFARM_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"AGROFARM_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic  string `envconfig:"AGROFARM_PUBSUB_ORDERS_TOPIC" default:"agrofarm-order-events"`
	ReviewsTopic string `envconfig:"AGROFARM_PUBSUB_REVIEWS_TOPIC" default:"agrofarm-review-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AGROFARM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AGROFARM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AGROFARM_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"AGROFARM_CRON_INTERVAL" default:"1h"`
	LockTTL             time.Duration `envconfig:"AGROFARM_CRON_LOCK_TTL" default:"10m"`
	RefreshTokenGrace   time.Duration `envconfig:"AGROFARM_CRON_REFRESH_TOKEN_GRACE" default:"24h"`
	OutboxRetentionDays int           `envconfig:"AGROFARM_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
