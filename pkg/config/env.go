package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                   = "STOREFRONT_APP_ENV"
	EnvDBDSN                    = "STOREFRONT_DB_DSN"
	EnvDBHost                   = "STOREFRONT_DB_HOST"
	EnvDBPort                   = "STOREFRONT_DB_PORT"
	EnvDBUser                   = "STOREFRONT_DB_USER"
	EnvDBPassword               = "STOREFRONT_DB_PASSWORD"
	EnvDBName                   = "STOREFRONT_DB_NAME"
	EnvRedisURL                 = "STOREFRONT_REDIS_URL"
	EnvUseSQLite                = "STOREFRONT_USE_SQLITE"
	EnvRateHistoryRetentionDays = "STOREFRONT_RATE_HISTORY_RETENTION_DAYS"
	EnvCronInterval             = "STOREFRONT_CRON_INTERVAL"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
