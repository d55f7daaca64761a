package storage

import "time"

// ingestLockPrefix namespaces mailbox locks in Redis.
const ingestLockPrefix = "mailroom:ingest:"

// AcquireIngestLock takes the single-flight lock for a mailbox. Returns
// false when another ingestion run already holds it. The TTL bounds how
// long a crashed run can keep the mailbox blocked.
func (s *Service) AcquireIngestLock(mailbox string, ttl time.Duration) (bool, error) {
	return s.Redis.SetNX(s.Ctx, ingestLockPrefix+mailbox, 1, ttl).Result()
}

// ReleaseIngestLock frees the mailbox lock.
func (s *Service) ReleaseIngestLock(mailbox string) error {
	return s.Redis.Del(s.Ctx, ingestLockPrefix+mailbox).Err()
}
