package config

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "partshub"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PARTSHUB_DB_DSN"
	EnvDBHost = "PARTSHUB_DB_HOST"
	EnvDBUser = "PARTSHUB_DB_USER"
	EnvDBName = "PARTSHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
