package config

const (
	EnvPrefix = "INVOICEDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv             = "INVOICEDESK_APP_ENV"
	EnvPort               = "INVOICEDESK_APP_PORT"
	EnvDBDSN              = "INVOICEDESK_DB_DSN"
	EnvDBHost             = "INVOICEDESK_DB_HOST"
	EnvDBUser             = "INVOICEDESK_DB_USER"
	EnvDBName             = "INVOICEDESK_DB_NAME"
	EnvRedisURL           = "INVOICEDESK_REDIS_URL"
	EnvFeesPreviewAmounts = "INVOICEDESK_FEES_PREVIEW_AMOUNTS"
	EnvFeesCacheTTL       = "INVOICEDESK_FEES_CACHE_TTL"
	EnvCronInterval       = "INVOICEDESK_CRON_INTERVAL"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
