package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	MediaCloudinary = "cloudinary"
	MediaMinIO      = "minio"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// CloudinaryConfig holds credentials for the Cloudinary media CDN.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// MediaConfig selects the media backend and bounds uploads.
type MediaConfig struct {
	Driver            string
	MaxUploadMB       int
	UploadConcurrency int
	Cloudinary        CloudinaryConfig
	MinIO             MinIOConfig
}

// CacheConfig configures the response cache and token revocation list.
// An empty RedisURL selects the in-memory cache.
type CacheConfig struct {
	RedisURL string
	TTLSec   int
}

// AuthConfig holds JWT and admin cookie settings.
type AuthConfig struct {
	JWTSecret          string
	TokenTTLMin        int
	Issuer             string
	CookieName         string
	CookieSecure       bool
	CookieDomain       string
	LoginRateMax       int
	LoginRateWindowSec int

	// Bootstrap admin, created at startup when absent.
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// RetentionConfig caps how many records a kind keeps. Zero disables pruning.
type RetentionConfig struct {
	Hero  int
	Reels int
}

// RevalidateConfig points at the marketing site's cache revalidation hook.
type RevalidateConfig struct {
	URL       string
	Secret    string
	TimeoutMS int
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string
	Format string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost          string
	Port             string
	Timezone         string
	BodyLimitMB      int
	CORSAllowOrigins string
	StoreDriver      string
	Database         DatabaseConfig
	Mongo            MongoConfig
	Media            MediaConfig
	Cache            CacheConfig
	Auth             AuthConfig
	Retention        RetentionConfig
	Revalidate       RevalidateConfig
	Log              LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:          getEnv("APP_HOST", "localhost:8080"),
		Port:             getEnv("PORT", "8080"),
		Timezone:         getEnv("APP_TIMEZONE", "UTC"),
		BodyLimitMB:      getEnvInt("BODY_LIMIT_MB", 100),
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000"),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DATABASE", "studio"),
		},
		Media: MediaConfig{
			Driver:            strings.ToLower(getEnv("MEDIA_DRIVER", MediaCloudinary)),
			MaxUploadMB:       getEnvInt("MEDIA_MAX_UPLOAD_MB", 50),
			UploadConcurrency: getEnvInt("MEDIA_UPLOAD_CONCURRENCY", 4),
			Cloudinary: CloudinaryConfig{
				CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
				APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
				APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
				Folder:    getEnv("CLOUDINARY_FOLDER", "studio"),
			},
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
				PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
			},
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTLSec:   getEnvInt("CACHE_TTL_SEC", 60),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			TokenTTLMin:        getEnvInt("JWT_TTL_MIN", 60*24),
			Issuer:             getEnv("JWT_ISSUER", "studio-admin"),
			CookieName:         getEnv("AUTH_COOKIE_NAME", "admin_token"),
			CookieSecure:       getEnvBool("AUTH_COOKIE_SECURE", true),
			CookieDomain:       getEnv("AUTH_COOKIE_DOMAIN", ""),
			LoginRateMax:       getEnvInt("LOGIN_RATE_MAX", 5),
			LoginRateWindowSec: getEnvInt("LOGIN_RATE_WINDOW_SEC", 60),
			AdminEmail:         getEnv("ADMIN_EMAIL", ""),
			AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
			AdminName:          getEnv("ADMIN_NAME", "Administrator"),
		},
		Retention: RetentionConfig{
			Hero:  getEnvInt("RETENTION_HERO", 5),
			Reels: getEnvInt("RETENTION_REELS", 12),
		},
		Revalidate: RevalidateConfig{
			URL:       getEnv("REVALIDATE_URL", ""),
			Secret:    getEnv("REVALIDATE_SECRET", ""),
			TimeoutMS: getEnvInt("REVALIDATE_TIMEOUT_MS", 3000),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate reports every missing or invalid setting for the selected drivers.
func (c *AppConfig) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE_DRIVER=mongo"))
		}
	case StorePostgres:
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("DB_HOST, DB_USER and DB_NAME are required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.Media.Driver {
	case MediaCloudinary:
		cl := c.Media.Cloudinary
		if cl.CloudName == "" || cl.APIKey == "" || cl.APISecret == "" {
			errs = append(errs, errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required when MEDIA_DRIVER=cloudinary"))
		}
	case MediaMinIO:
		if c.Media.MinIO.Endpoint == "" || c.Media.MinIO.Bucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required when MEDIA_DRIVER=minio"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported MEDIA_DRIVER %q", c.Media.Driver))
	}

	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	if c.Media.UploadConcurrency <= 0 {
		errs = append(errs, errors.New("MEDIA_UPLOAD_CONCURRENCY must be positive"))
	}

	return errors.Join(errs...)
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TokenTTL is the lifetime of issued admin tokens.
func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMin) * time.Minute
}

// CacheTTL is how long cached responses live.
func (c CacheConfig) CacheTTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// MaxUploadBytes is the per-file upload limit.
func (c MediaConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
