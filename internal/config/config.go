package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config carries every external endpoint and credential the service
// needs. It is loaded once in main and passed into constructors, so no
// component reads the environment on its own.
type Config struct {
	ListenAddr string

	// PostgreSQL
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// Redis
	RedisAddr     string
	RedisPassword string

	// Mailbox (IMAP fetch + SMTP send)
	IMAPHost     string
	IMAPPort     string
	SMTPHost     string
	SMTPPort     string
	MailUser     string
	MailPassword string
	MailTLS      bool

	// AI collaborators
	AIEndpoint    string
	AIKey         string
	ClassifyModel string
	DraftModel    string

	// Auth
	JWTSecret string

	// Optional Telegram notifications
	TelegramToken  string
	TelegramChatID int64
}

// Load reads the configuration from the environment. Callers are
// expected to have loaded a .env file beforehand (godotenv in main).
func Load() *Config {
	chatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	return &Config{
		ListenAddr: envOr("LISTEN_ADDR", ":8080"),

		DBHost:     envOr("DB_HOST", "localhost"),
		DBUser:     envOr("DB_USER", "user"),
		DBPassword: envOr("DB_PASSWORD", "password"),
		DBName:     envOr("DB_NAME", "mailroomdb"),
		DBPort:     envOr("DB_PORT", "5432"),

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		IMAPHost:     os.Getenv("IMAP_SERVER"),
		IMAPPort:     envOr("IMAP_PORT", "993"),
		SMTPHost:     os.Getenv("SMTP_SERVER"),
		SMTPPort:     envOr("SMTP_PORT", "465"),
		MailUser:     os.Getenv("EMAIL_USER"),
		MailPassword: os.Getenv("EMAIL_PASS"),
		MailTLS:      envOr("MAIL_TLS", "true") == "true",

		AIEndpoint:    os.Getenv("AI_ENDPOINT"),
		AIKey:         os.Getenv("AI_API_KEY"),
		ClassifyModel: envOr("AI_CLASSIFY_MODEL", "gemini-2.0-flash"),
		DraftModel:    envOr("AI_DRAFT_MODEL", "claude-3-5-sonnet-20241022"),

		JWTSecret: envOr("JWT_SECRET", "dev-only-secret"),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: chatID,
	}
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// MailConfigured reports whether IMAP credentials are present; the
// ingestion pipeline cannot run without them.
func (c *Config) MailConfigured() bool {
	return c.IMAPHost != "" && c.MailUser != "" && c.MailPassword != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
