package config

// Header constants.
const (
	HEADER_KEY_X_CLIENT_ID = "X-Client-Id"
	HEADER_KEY_X_UID       = "X-Uid"
)

// Environment variable keys.
const (
	ENV_KEY_APP_ENV   = "APP_ENV"
	ENV_KEY_PORT      = "PORT"
	ENV_KEY_CLIENT_ID = "CLIENT_ID"
	ENV_KEY_LOG_LEVEL = "LOG_LEVEL"

	ENV_KEY_DB_DATABASE             = "DB_DATABASE"
	ENV_KEY_DB_PASSWORD             = "DB_PASSWORD"
	ENV_KEY_DB_USER                 = "DB_USER"
	ENV_KEY_DB_PORT                 = "DB_PORT"
	ENV_KEY_DB_HOST                 = "DB_HOST"
	ENV_KEY_DB_MAX_OPEN_CONNECTIONS = "DB_MAX_OPEN_CONNECTIONS"

	ENV_KEY_MINIO_BUCKET     = "MINIO_BUCKET"
	ENV_KEY_MINIO_ENDPOINT   = "MINIO_ENDPOINT"
	ENV_KEY_MINIO_ACCESS_KEY = "MINIO_ACCESS_KEY"
	ENV_KEY_MINIO_SECRET_KEY = "MINIO_SECRET_KEY"
	ENV_KEY_MINIO_SECURE     = "MINIO_SECURE"

	ENV_KEY_REDIS_HOST     = "REDIS_HOST"
	ENV_KEY_REDIS_PORT     = "REDIS_PORT"
	ENV_KEY_REDIS_PASSWORD = "REDIS_PASSWORD"

	ENV_KEY_WORKER_CONCURRENCY = "WORKER_CONCURRENCY"

	ENV_KEY_FFMPEG_PATH     = "FFMPEG_PATH"
	ENV_KEY_FFPROBE_PATH    = "FFPROBE_PATH"
	ENV_KEY_PROBE_TIMEOUT_S = "PROBE_TIMEOUT_S"
	ENV_KEY_WORK_DIR        = "WORK_DIR"

	ENV_KEY_OTEL_ENABLED                = "OTEL_ENABLED"
	ENV_KEY_OTEL_EXPORTER_OTLP_ENDPOINT = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// Presigned URL lifetimes.
const (
	// UPLOAD_URL_EXPIRE_MINUTES bounds the window between the upload
	// handshake and the client finishing the direct PUT.
	UPLOAD_URL_EXPIRE_MINUTES = 10
	// PREVIEW_URL_EXPIRE_MINUTES applies to thumbnail/media links minted
	// per search or get request.
	PREVIEW_URL_EXPIRE_MINUTES = 60
)

type ContextKey uint

const (
	_ ContextKey = iota
	CTX_KEY_CLIENT_UID
)
