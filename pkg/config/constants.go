package config

const (
	EnvPrefix = "COMBOSCOOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "COMBOSCOOP_APP_ENV"
	EnvPort                   = "COMBOSCOOP_APP_PORT"
	EnvDBDSN                  = "COMBOSCOOP_DB_DSN"
	EnvDBHost                 = "COMBOSCOOP_DB_HOST"
	EnvDBUser                 = "COMBOSCOOP_DB_USER"
	EnvDBName                 = "COMBOSCOOP_DB_NAME"
	EnvRedisURL               = "COMBOSCOOP_REDIS_URL"
	EnvJWTSecret              = "COMBOSCOOP_JWT_SECRET"
	EnvJWTIssuer              = "COMBOSCOOP_JWT_ISSUER"
	EnvJWTExpMins             = "COMBOSCOOP_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "COMBOSCOOP_REFRESH_TOKEN_TTL_MINUTES"
	EnvPickupLeadDays         = "COMBOSCOOP_PICKUP_LEAD_DAYS"
	EnvPickupCodeLength       = "COMBOSCOOP_PICKUP_CODE_LENGTH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
