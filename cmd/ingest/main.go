// Command ingest runs one ingestion batch from the command line, for
// cron jobs and manual catch-up runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mailroom/backend/internal/ai"
	"mailroom/backend/internal/config"
	"mailroom/backend/internal/ingest"
	"mailroom/backend/internal/mailbox"
	"mailroom/backend/internal/storage"
)

func main() {
	maxCount := flag.Int("max", config.DefaultFetchCount, "maximum number of messages to fetch")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	if !cfg.MailConfigured() {
		log.Fatal("IMAP_SERVER, EMAIL_USER and EMAIL_PASS must be set")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	s := storage.NewStorageService(db, rdb)

	classifier := ai.NewLLMClassifier(ai.NewHTTPClient(cfg.AIEndpoint, cfg.AIKey, cfg.ClassifyModel, config.AICallTimeout))
	drafter := ai.NewLLMDrafter(ai.NewHTTPClient(cfg.AIEndpoint, cfg.AIKey, cfg.DraftModel, config.AICallTimeout))
	transport := mailbox.NewIMAPTransport(cfg.IMAPHost, cfg.IMAPPort, cfg.MailUser, cfg.MailPassword, cfg.MailTLS)

	pipeline := ingest.NewPipeline(transport, classifier, drafter, s, cfg.MailUser)

	result, err := pipeline.Ingest(context.Background(), *maxCount, 0)
	if err != nil {
		log.Printf("ingestion failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("fetched=%d inserted=%d skipped=%d\n", result.Fetched, result.Inserted, result.Skipped)
	for _, msg := range result.Records {
		fmt.Printf("  #%d [%s/%s] %s\n", msg.ID, msg.Category, msg.Priority, msg.Subject)
	}
}
