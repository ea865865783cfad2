package core

import (
	"context"
	"time"

	"github.com/fssonca/ezy-collect-challenge/internal/storage"
)

// Ledger is the atomic claim-and-record store for idempotency keys.
// Implementations: storage.Store (SQLite, PRIMARY KEY claim)
type Ledger interface {
	// ClaimIdempotencyKey atomically claims a key; exactly one concurrent
	// caller gets true.
	ClaimIdempotencyKey(ctx context.Context, key, requestHash string, now time.Time) (bool, error)

	// GetIdempotencyRecord looks up a claim, returning storage.ErrNotFound
	// when absent.
	GetIdempotencyRecord(ctx context.Context, key string) (*storage.IdempotencyRecord, error)

	// ExpireStaleClaim removes an unfinalized claim last updated before
	// cutoff, freeing the key.
	ExpireStaleClaim(ctx context.Context, key string, cutoff time.Time) (bool, error)
}

// PaymentWriter persists payment rows.
// Implementations: storage.Store
type PaymentWriter interface {
	// CreatePaymentAndFinalize commits the payment row and the claim
	// resolution as one transaction.
	CreatePaymentAndFinalize(ctx context.Context, payment *storage.PaymentRecord, key string, responseStatus int, responseBody string, now time.Time) error
}

// Cipher encrypts card numbers at rest.
// Implementations: crypto.Cipher (AES-256-GCM)
type Cipher interface {
	Encrypt(plaintext string) (ciphertext, nonce []byte, err error)
}

// IDGenerator generates unique payment identifiers.
// Implementations: storage.GenerateID (UUID-based)
type IDGenerator interface {
	GenerateID() string
}

// defaultIDGenerator uses UUID for ID generation
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) GenerateID() string {
	return storage.GenerateID()
}

// NewIDGenerator creates a default ID generator.
func NewIDGenerator() IDGenerator {
	return &defaultIDGenerator{}
}
