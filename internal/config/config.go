package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI       string
	DBName         string
	JWTSecret      string
	AccessTokenTTL time.Duration

	AdminEmail    string
	AdminPassword string

	RedisAddr     string
	RedisPassword string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPSender   string

	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string

	GoogleClientID string

	ReferralBonusPoints int
	MailWorkers         int
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		DBName:         getEnvOrDefault("DB_NAME", "philabasket"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 7, 24*time.Hour),

		AdminEmail:    getEnvOrDefault("ADMIN_EMAIL", ""),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", ""),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		CloudinaryCloudName: getEnvOrDefault("CLOUDINARY_CLOUDNAME", ""),
		CloudinaryAPIKey:    getEnvOrDefault("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnvOrDefault("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnvOrDefault("CLOUDINARY_UPLOAD_FOLDER", "philabasket"),

		SMTPHost:     getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUsername: getEnvOrDefault("SMTP_USERNAME", ""),
		SMTPPassword: getEnvOrDefault("SMTP_PASSWORD", ""),
		SMTPSender:   getEnvOrDefault("SMTP_SENDER", "orders@philabasket.example"),

		TwilioAccountSID:   getEnvOrDefault("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnvOrDefault("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom: getEnvOrDefault("TWILIO_WHATSAPP_FROM", ""),

		GoogleClientID: getEnvOrDefault("GOOGLE_CLIENT_ID", ""),

		ReferralBonusPoints: getIntEnv("REFERRAL_BONUS_POINTS", 500),
		MailWorkers:         getIntEnv("MAIL_WORKERS", 2),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
