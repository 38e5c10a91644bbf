package config

// EnvPrefix is the envconfig prefix shared by every STOREFRONT_* variable.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags (error messages,
// tests). Keep these in sync with the envconfig tags in config.go.
const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
