package config

import "time"

const (
	// Classification
	ClassifyExcerptLen = 500   // body excerpt passed to the classifier
	DraftExcerptLen    = 800   // body excerpt passed to the drafter
	MaxBodyBytes       = 10000 // stored plain-text body cap

	// Ingestion
	DefaultFetchCount = 5
	MaxFetchCount     = 20
	IngestLockTTL     = 2 * time.Minute

	// External calls
	AICallTimeout   = 30 * time.Second
	SMTPDialTimeout = 30 * time.Second

	// Auth
	TokenTTL = 72 * time.Hour
)
