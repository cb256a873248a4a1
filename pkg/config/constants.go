package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "DRAWSPACE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "DRAWSPACE_APP_ENV"
	EnvPort     = "DRAWSPACE_APP_PORT"
	EnvDBDSN    = "DRAWSPACE_DB_DSN"
	EnvDBHost   = "DRAWSPACE_DB_HOST"
	EnvDBUser   = "DRAWSPACE_DB_USER"
	EnvDBName   = "DRAWSPACE_DB_NAME"
	EnvRedisURL = "DRAWSPACE_REDIS_URL"

	EnvJWTSecret  = "DRAWSPACE_JWT_SECRET"
	EnvJWTIssuer  = "DRAWSPACE_JWT_ISSUER"
	EnvJWTExpMins = "DRAWSPACE_JWT_EXPIRATION_MINUTES"

	EnvStripeAPIKey = "DRAWSPACE_STRIPE_API_KEY"
	EnvStripeSecret = "DRAWSPACE_STRIPE_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// DefaultPlanName is the zero-cost plan assigned at account creation and on
// subscription cancellation.
const DefaultPlanName = "free"
