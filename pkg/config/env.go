package config

const (
	EnvPrefix = "LIVEBUYNOW"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DefaultCurrency = "TZS"

	EnvAppEnv     = "LIVEBUYNOW_APP_ENV"
	EnvPort       = "LIVEBUYNOW_APP_PORT"
	EnvCurrency   = "LIVEBUYNOW_APP_CURRENCY"
	EnvDBDSN      = "LIVEBUYNOW_DB_DSN"
	EnvDBHost     = "LIVEBUYNOW_DB_HOST"
	EnvDBUser     = "LIVEBUYNOW_DB_USER"
	EnvDBName     = "LIVEBUYNOW_DB_NAME"
	EnvRedisURL   = "LIVEBUYNOW_REDIS_URL"
	EnvJWTSecret  = "LIVEBUYNOW_JWT_SECRET"
	EnvJWTIssuer  = "LIVEBUYNOW_JWT_ISSUER"
	EnvGCPProject = "LIVEBUYNOW_GCP_PROJECT_ID"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
