package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mailroom/backend/internal/ai"
	"mailroom/backend/internal/api/handler"
	"mailroom/backend/internal/config"
	"mailroom/backend/internal/ingest"
	"mailroom/backend/internal/mailbox"
	"mailroom/backend/internal/models"
	"mailroom/backend/internal/notify"
	"mailroom/backend/internal/storage"
	"mailroom/backend/internal/telegram"
	"mailroom/backend/internal/workflow"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Message{},
		&models.ApprovalEvent{},
		&models.User{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting Mailroom Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	// Dashboard event hub, plus an optional Telegram side channel.
	hub := notify.NewHub()
	go hub.Run()

	notifiers := notify.Fanout{hub}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("WARNING: Telegram notifier disabled: %v", err)
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	// External collaborators.
	classifier := ai.NewLLMClassifier(ai.NewHTTPClient(cfg.AIEndpoint, cfg.AIKey, cfg.ClassifyModel, config.AICallTimeout))
	drafter := ai.NewLLMDrafter(ai.NewHTTPClient(cfg.AIEndpoint, cfg.AIKey, cfg.DraftModel, config.AICallTimeout))

	if !cfg.MailConfigured() {
		log.Fatal("IMAP_SERVER, EMAIL_USER and EMAIL_PASS must be set")
	}
	transport := mailbox.NewIMAPTransport(cfg.IMAPHost, cfg.IMAPPort, cfg.MailUser, cfg.MailPassword, cfg.MailTLS)
	sender := mailbox.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.MailUser, cfg.MailPassword, cfg.MailTLS)

	// Core services.
	pipeline := ingest.NewPipeline(transport, classifier, drafter, s, cfg.MailUser)
	pipeline.Notifier = notifiers

	wf := workflow.NewService(s, handler.RoleChecker{}, sender, classifier, drafter)
	wf.Notifier = notifiers

	// HTTP surface.
	r := gin.Default()
	h := handler.NewHandler(wf, pipeline, s, hub, cfg.JWTSecret)
	h.Register(r)

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
