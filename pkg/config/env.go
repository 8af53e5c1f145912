package config

const (
	EnvPrefix = "CREWZ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv        = "CREWZ_APP_ENV"
	EnvLogLevel      = "CREWZ_LOG_LEVEL"
	EnvLogFormat     = "CREWZ_LOG_FORMAT"
	EnvRemoteBaseURL = "CREWZ_REMOTE_BASE_URL"
	EnvClientVersion = "CREWZ_CLIENT_VERSION"
	EnvRemoteTimeout = "CREWZ_REMOTE_TIMEOUT"
	EnvRedisURL      = "CREWZ_REDIS_URL"
	EnvDeviceID      = "CREWZ_DEVICE_ID"
	EnvLatitude      = "CREWZ_LATITUDE"
	EnvLongitude     = "CREWZ_LONGITUDE"
)
