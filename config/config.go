package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type DBConfig struct {
	// mysql, postgres or sqlite
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	// How long Open keeps retrying an unreachable database
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Base URL images are served from, e.g. http://127.0.0.1:9000
	PublicURL string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type Config struct {
	HTTPAddr         string
	DB               DBConfig
	Redis            RedisConfig
	Minio            MinioConfig
	JWT              JWTConfig
	LikeSyncInterval time.Duration
	MaxUploadBytes   int64
	CORSOrigins      []string
	LogLevel         string
	LogFormat        string
}

// DBFlags are shared by every command that touches the database.
func DBFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db-driver",
			Usage:   "Database driver: mysql, postgres or sqlite",
			EnvVars: []string{"STUTI_DB_DRIVER"},
			Value:   "mysql",
		},
		&cli.StringFlag{
			Name:    "db-dsn",
			Usage:   "Database connection string",
			EnvVars: []string{"STUTI_DB_DSN"},
			Value:   "root:123456@tcp(127.0.0.1:3306)/stuti?charset=utf8mb4&parseTime=True&loc=Local",
		},
		&cli.IntFlag{
			Name:    "db-max-open-conns",
			Usage:   "Maximum open database connections",
			EnvVars: []string{"STUTI_DB_MAX_OPEN_CONNS"},
			Value:   20,
		},
		&cli.IntFlag{
			Name:    "db-max-idle-conns",
			Usage:   "Maximum idle database connections",
			EnvVars: []string{"STUTI_DB_MAX_IDLE_CONNS"},
			Value:   10,
		},
		&cli.DurationFlag{
			Name:    "db-connect-timeout",
			Usage:   "How long to retry connecting to the database on startup",
			EnvVars: []string{"STUTI_DB_CONNECT_TIMEOUT"},
			Value:   30 * time.Second,
		},
	}
}

func LogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error",
			EnvVars: []string{"STUTI_LOG_LEVEL"},
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format: text or json",
			EnvVars: []string{"STUTI_LOG_FORMAT"},
			Value:   "text",
		},
	}
}

func ServeFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "HTTP listen address",
			EnvVars: []string{"STUTI_ADDR"},
			Value:   ":8080",
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			Usage:   "Redis address",
			EnvVars: []string{"STUTI_REDIS_ADDR"},
			Value:   "localhost:6379",
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			EnvVars: []string{"STUTI_REDIS_PASSWORD"},
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Usage:   "Redis database number",
			EnvVars: []string{"STUTI_REDIS_DB"},
			Value:   0,
		},
		&cli.StringFlag{
			Name:    "minio-endpoint",
			Usage:   "MinIO endpoint (host:port)",
			EnvVars: []string{"STUTI_MINIO_ENDPOINT"},
			Value:   "127.0.0.1:9000",
		},
		&cli.StringFlag{
			Name:    "minio-access-key",
			Usage:   "MinIO access key",
			EnvVars: []string{"STUTI_MINIO_ACCESS_KEY"},
			Value:   "admin",
		},
		&cli.StringFlag{
			Name:    "minio-secret-key",
			Usage:   "MinIO secret key",
			EnvVars: []string{"STUTI_MINIO_SECRET_KEY"},
		},
		&cli.StringFlag{
			Name:    "minio-bucket",
			Usage:   "Bucket images are stored in",
			EnvVars: []string{"STUTI_MINIO_BUCKET"},
			Value:   "stuti",
		},
		&cli.BoolFlag{
			Name:    "minio-ssl",
			Usage:   "Use TLS when talking to MinIO",
			EnvVars: []string{"STUTI_MINIO_SSL"},
		},
		&cli.StringFlag{
			Name:    "minio-public-url",
			Usage:   "Base URL stored image URLs are built from",
			EnvVars: []string{"STUTI_MINIO_PUBLIC_URL"},
			Value:   "http://127.0.0.1:9000",
		},
		&cli.DurationFlag{
			Name:    "like-sync-interval",
			Usage:   "How often like counts are copied from Redis to the database",
			EnvVars: []string{"STUTI_LIKE_SYNC_INTERVAL"},
			Value:   time.Minute,
		},
		&cli.Int64Flag{
			Name:    "max-upload-bytes",
			Usage:   "Largest accepted image upload",
			EnvVars: []string{"STUTI_MAX_UPLOAD_BYTES"},
			Value:   10 << 20,
		},
		&cli.StringSliceFlag{
			Name:    "cors-origin",
			Usage:   "Allowed CORS origin (repeatable)",
			EnvVars: []string{"STUTI_CORS_ORIGINS"},
			Value:   cli.NewStringSlice("http://localhost:3000"),
		},
	}
	flags = append(flags, JWTFlags()...)
	flags = append(flags, DBFlags()...)
	return append(flags, LogFlags()...)
}

func JWTFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "jwt-secret",
			Usage:    "HMAC secret for access tokens",
			EnvVars:  []string{"STUTI_JWT_SECRET"},
			Required: true,
		},
		&cli.DurationFlag{
			Name:    "jwt-ttl",
			Usage:   "Access token lifetime",
			EnvVars: []string{"STUTI_JWT_TTL"},
			Value:   24 * time.Hour,
		},
	}
}

func DBFromContext(ctx *cli.Context) DBConfig {
	return DBConfig{
		Driver:         ctx.String("db-driver"),
		DSN:            ctx.String("db-dsn"),
		MaxOpenConns:   ctx.Int("db-max-open-conns"),
		MaxIdleConns:   ctx.Int("db-max-idle-conns"),
		ConnectTimeout: ctx.Duration("db-connect-timeout"),
	}
}

func JWTFromContext(ctx *cli.Context) JWTConfig {
	return JWTConfig{
		Secret: ctx.String("jwt-secret"),
		TTL:    ctx.Duration("jwt-ttl"),
	}
}

// FromContext reads a full Config from the flags defined by ServeFlags.
func FromContext(ctx *cli.Context) Config {
	return Config{
		HTTPAddr: ctx.String("addr"),
		DB:       DBFromContext(ctx),
		Redis: RedisConfig{
			Addr:     ctx.String("redis-addr"),
			Password: ctx.String("redis-password"),
			DB:       ctx.Int("redis-db"),
		},
		Minio: MinioConfig{
			Endpoint:  ctx.String("minio-endpoint"),
			AccessKey: ctx.String("minio-access-key"),
			SecretKey: ctx.String("minio-secret-key"),
			Bucket:    ctx.String("minio-bucket"),
			UseSSL:    ctx.Bool("minio-ssl"),
			PublicURL: ctx.String("minio-public-url"),
		},
		JWT:              JWTFromContext(ctx),
		LikeSyncInterval: ctx.Duration("like-sync-interval"),
		MaxUploadBytes:   ctx.Int64("max-upload-bytes"),
		CORSOrigins:      ctx.StringSlice("cors-origin"),
		LogLevel:         ctx.String("log-level"),
		LogFormat:        ctx.String("log-format"),
	}
}

// LoadDotEnv loads variables from path into the environment. A missing file
// is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func ConfigureLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)

	switch format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}
