package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	PORT        string
	DB_URL      string
	JWT_SECRET  string
	CORS_ORIGIN string
	LOG_LEVEL   string

	// postgres | memory
	STORAGE_DRIVER string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string

	GEMINI_API_KEY string
	GEMINI_MODEL   string

	MAX_UPLOAD_BYTES  int64
	MAX_IMAGE_PIXELS  int64
	THUMBNAIL_SIZE    int
	THUMBNAIL_QUALITY int

	ANALYSIS_TIMEOUT      time.Duration
	ANALYSIS_WORKERS      int
	ANALYSIS_MAX_ATTEMPTS int

	// memory | kafka
	QUEUE_DRIVER   string
	KAFKA_BROKERS  []string
	KAFKA_TOPIC    string
	KAFKA_GROUP_ID string

	// inline | s3
	BLOB_DRIVER          string
	S3_ENDPOINT          string
	S3_ACCESS_KEY_ID     string
	S3_SECRET_ACCESS_KEY string
	S3_BUCKET_NAME       string
	S3_REGION            string

	STRIPE_SECRET_KEY string

	// accounts registered with these emails become admins
	ADMIN_EMAILS []string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	setDefaults()
	viper.AutomaticEnv()

	PORT = viper.GetString("PORT")
	CORS_ORIGIN = viper.GetString("CORS_ORIGIN")
	LOG_LEVEL = viper.GetString("LOG_LEVEL")
	STORAGE_DRIVER = strings.ToLower(viper.GetString("STORAGE_DRIVER"))
	if STORAGE_DRIVER == "postgres" {
		DB_URL = mustEnv("DB_URL")
	}
	JWT_SECRET = mustEnv("JWT_SECRET")

	// Google sign-in stays disabled until the client id is configured.
	GOOGLE_CLIENT_ID = viper.GetString("GOOGLE_CLIENT_ID")
	GOOGLE_CLIENT_SECRET = viper.GetString("GOOGLE_CLIENT_SECRET")
	GOOGLE_REDIRECT_URL = viper.GetString("GOOGLE_REDIRECT_URL")
	GOOGLE_FRONTEND_REDIRECT = viper.GetString("GOOGLE_FRONTEND_REDIRECT")

	GEMINI_API_KEY = mustEnv("GEMINI_API_KEY")
	GEMINI_MODEL = viper.GetString("GEMINI_MODEL")

	MAX_UPLOAD_BYTES = viper.GetInt64("MAX_UPLOAD_BYTES")
	MAX_IMAGE_PIXELS = viper.GetInt64("MAX_IMAGE_PIXELS")
	THUMBNAIL_SIZE = viper.GetInt("THUMBNAIL_SIZE")
	THUMBNAIL_QUALITY = viper.GetInt("THUMBNAIL_QUALITY")

	ANALYSIS_TIMEOUT = viper.GetDuration("ANALYSIS_TIMEOUT")
	ANALYSIS_WORKERS = viper.GetInt("ANALYSIS_WORKERS")
	ANALYSIS_MAX_ATTEMPTS = viper.GetInt("ANALYSIS_MAX_ATTEMPTS")

	QUEUE_DRIVER = strings.ToLower(viper.GetString("QUEUE_DRIVER"))
	KAFKA_BROKERS = splitList(viper.GetString("KAFKA_BROKERS"))
	KAFKA_TOPIC = viper.GetString("KAFKA_TOPIC")
	KAFKA_GROUP_ID = viper.GetString("KAFKA_GROUP_ID")
	if QUEUE_DRIVER == "kafka" && len(KAFKA_BROKERS) == 0 {
		log.Fatalf("Missing required environment variable: %s", "KAFKA_BROKERS")
	}

	BLOB_DRIVER = strings.ToLower(viper.GetString("BLOB_DRIVER"))
	S3_ENDPOINT = viper.GetString("S3_ENDPOINT")
	S3_ACCESS_KEY_ID = viper.GetString("S3_ACCESS_KEY_ID")
	S3_SECRET_ACCESS_KEY = viper.GetString("S3_SECRET_ACCESS_KEY")
	S3_BUCKET_NAME = viper.GetString("S3_BUCKET_NAME")
	S3_REGION = viper.GetString("S3_REGION")

	STRIPE_SECRET_KEY = viper.GetString("STRIPE_SECRET_KEY")
	ADMIN_EMAILS = splitList(viper.GetString("ADMIN_EMAILS"))
}

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("CORS_ORIGIN", "http://localhost:5173")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_DRIVER", "postgres")

	viper.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")

	viper.SetDefault("MAX_UPLOAD_BYTES", 10*1024*1024) // 10MB
	viper.SetDefault("MAX_IMAGE_PIXELS", 50_000_000)
	viper.SetDefault("THUMBNAIL_SIZE", 400)
	viper.SetDefault("THUMBNAIL_QUALITY", 80)

	viper.SetDefault("ANALYSIS_TIMEOUT", 90*time.Second)
	viper.SetDefault("ANALYSIS_WORKERS", 4)
	viper.SetDefault("ANALYSIS_MAX_ATTEMPTS", 1)

	viper.SetDefault("QUEUE_DRIVER", "memory")
	viper.SetDefault("KAFKA_TOPIC", "artwork-analysis")
	viper.SetDefault("KAFKA_GROUP_ID", "artwork-analysis-workers")

	viper.SetDefault("BLOB_DRIVER", "inline")
	viper.SetDefault("S3_BUCKET_NAME", "artworks")
	viper.SetDefault("S3_REGION", "us-east-1")
}

func mustEnv(key string) string {
	v := viper.GetString(key)
	if v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
