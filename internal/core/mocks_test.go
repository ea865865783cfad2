package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fssonca/ezy-collect-challenge/internal/storage"
)

// Common test errors
var (
	ErrMockLedger = errors.New("mock ledger error")
	ErrMockWrite  = errors.New("mock write error")
	ErrMockCrypto = errors.New("mock crypto error")
)

// MockLedger implements Ledger for testing
type MockLedger struct {
	mu          sync.Mutex
	ClaimFunc   func(ctx context.Context, key, requestHash string, now time.Time) (bool, error)
	GetFunc     func(ctx context.Context, key string) (*storage.IdempotencyRecord, error)
	ExpireFunc  func(ctx context.Context, key string, cutoff time.Time) (bool, error)
	ClaimCalls  int
	GetCalls    int
	ExpireCalls int
}

func (m *MockLedger) ClaimIdempotencyKey(ctx context.Context, key, requestHash string, now time.Time) (bool, error) {
	m.mu.Lock()
	m.ClaimCalls++
	m.mu.Unlock()

	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, key, requestHash, now)
	}
	return true, nil
}

func (m *MockLedger) GetIdempotencyRecord(ctx context.Context, key string) (*storage.IdempotencyRecord, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, storage.ErrNotFound
}

func (m *MockLedger) ExpireStaleClaim(ctx context.Context, key string, cutoff time.Time) (bool, error) {
	m.mu.Lock()
	m.ExpireCalls++
	m.mu.Unlock()

	if m.ExpireFunc != nil {
		return m.ExpireFunc(ctx, key, cutoff)
	}
	return false, nil
}

// MockPaymentWriter implements PaymentWriter for testing
type MockPaymentWriter struct {
	mu         sync.Mutex
	CreateFunc func(ctx context.Context, payment *storage.PaymentRecord, key string, responseStatus int, responseBody string, now time.Time) error
	Calls      int

	LastPayment *storage.PaymentRecord
	LastKey     string
	LastStatus  int
	LastBody    string
}

func (m *MockPaymentWriter) CreatePaymentAndFinalize(ctx context.Context, payment *storage.PaymentRecord, key string, responseStatus int, responseBody string, now time.Time) error {
	m.mu.Lock()
	m.Calls++
	m.LastPayment = payment
	m.LastKey = key
	m.LastStatus = responseStatus
	m.LastBody = responseBody
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, payment, key, responseStatus, responseBody, now)
	}
	return nil
}

// MockCipher implements Cipher for testing
type MockCipher struct {
	EncryptFunc func(plaintext string) ([]byte, []byte, error)
}

func (m *MockCipher) Encrypt(plaintext string) ([]byte, []byte, error) {
	if m.EncryptFunc != nil {
		return m.EncryptFunc(plaintext)
	}
	return []byte("ct:" + plaintext), []byte("nonce-000000"), nil
}

// fixedIDGenerator returns a constant ID
type fixedIDGenerator struct {
	id string
}

func (g *fixedIDGenerator) GenerateID() string {
	return g.id
}
