package config

// EnvPrefix is passed to envconfig; every field carries an explicit tag so the
// prefix only matters for fields without one.
const EnvPrefix = "AGROFARM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:agrofarm.db?_foreign_keys=on"
)

const (
	EnvAppEnv     = "AGROFARM_APP_ENV"
	EnvPort       = "AGROFARM_APP_PORT"
	EnvDBDSN      = "AGROFARM_DB_DSN"
	EnvDBDriver   = "AGROFARM_DB_DRIVER"
	EnvDBHost     = "AGROFARM_DB_HOST"
	EnvDBUser     = "AGROFARM_DB_USER"
	EnvDBName     = "AGROFARM_DB_NAME"
	EnvDBPass     = "AGROFARM_DB_PASSWORD"
	EnvRedisURL   = "AGROFARM_REDIS_URL"
	EnvJWTSecret  = "AGROFARM_JWT_SECRET"
	EnvJWTIssuer  = "AGROFARM_JWT_ISSUER"
	EnvJWTExp     = "AGROFARM_JWT_EXPIRATION_MINUTES"
	EnvRefreshTTL = "AGROFARM_REFRESH_TOKEN_TTL"
	EnvCORS       = "AGROFARM_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
