package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fssonca/ezy-collect-challenge/internal/crypto"
	"github.com/fssonca/ezy-collect-challenge/internal/fingerprint"
	"github.com/fssonca/ezy-collect-challenge/internal/storage"
)

// PaymentService orchestrates idempotent payment creation: fingerprint the
// request, claim the key, encrypt and persist, finalize the claim. The only
// synchronization between concurrent requests is the store's uniqueness
// constraint on the key; the service holds no locks.
type PaymentService struct {
	config   Config
	ledger   Ledger
	payments PaymentWriter
	cipher   Cipher
	ids      IDGenerator
	now      func() time.Time
}

// PaymentServiceDeps holds dependencies for constructing a PaymentService.
type PaymentServiceDeps struct {
	Config   Config
	Ledger   Ledger
	Payments PaymentWriter
	Cipher   Cipher
	IDs      IDGenerator
	Now      func() time.Time
}

// NewPaymentService creates a payment service backed by the SQLite store.
func NewPaymentService(store *storage.Store, cipher *crypto.Cipher, config Config) *PaymentService {
	return NewPaymentServiceWithDeps(PaymentServiceDeps{
		Config:   config,
		Ledger:   store,
		Payments: store,
		Cipher:   cipher,
	})
}

// NewPaymentServiceWithDeps creates a payment service with explicit
// dependencies (for testing). Zero-valued settings get defaults.
func NewPaymentServiceWithDeps(deps PaymentServiceDeps) *PaymentService {
	cfg := deps.Config
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = DefaultClaimTTL
	}
	if cfg.InFlightRetryDelay <= 0 {
		cfg.InFlightRetryDelay = DefaultInFlightRetryDelay
	}
	if cfg.InFlightRetries <= 0 {
		cfg.InFlightRetries = DefaultInFlightRetries
	}

	ids := deps.IDs
	if ids == nil {
		ids = NewIDGenerator()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &PaymentService{
		config:   cfg,
		ledger:   deps.Ledger,
		payments: deps.Payments,
		cipher:   deps.Cipher,
		ids:      ids,
		now:      now,
	}
}

// CreatePayment executes the exactly-once creation protocol for the given
// idempotency key. Outcomes:
//   - this caller wins the claim: a payment is created and a Created result
//     returned
//   - the key was completed earlier with the same payload: the cached
//     response is replayed
//   - the key was used with a different payload: ErrIdempotencyConflict
//   - another request holds the claim and does not finalize within the
//     polling budget: ErrRequestInFlight
//
// Claims abandoned for longer than ClaimTTL (a holder crashed between claim
// and finalize) are expired and re-claimed by the current caller.
func (s *PaymentService) CreatePayment(ctx context.Context, idempotencyKey string, req CreatePaymentRequest) (*Result, error) {
	hash, err := fingerprint.Hash(fingerprint.Request{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Expiry:     req.Expiry,
		CardLast4:  fingerprint.Last4(req.CardNumber),
		InvoiceIDs: req.InvoiceIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint request: %w", err)
	}

	for attempt := 0; attempt <= s.config.InFlightRetries; attempt++ {
		claimed, err := s.ledger.ClaimIdempotencyKey(ctx, idempotencyKey, hash, s.now().UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		if claimed {
			return s.create(ctx, idempotencyKey, req)
		}

		rec, err := s.ledger.GetIdempotencyRecord(ctx, idempotencyKey)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Claim vanished between insert and lookup (expired by a
				// concurrent request); try claiming again.
				continue
			}
			return nil, fmt.Errorf("failed to load idempotency record: %w", err)
		}

		if rec.RequestHash != hash {
			return nil, ErrIdempotencyConflict
		}

		if rec.Finalized {
			return &Result{
				Kind:       ResultReplay,
				HTTPStatus: http.StatusOK,
				Body:       []byte(rec.ResponseBody),
			}, nil
		}

		// Claimed but not finalized: either a concurrent request is
		// mid-flight or its holder crashed before finalizing.
		cutoff := s.now().UTC().Add(-s.config.ClaimTTL)
		if !rec.UpdatedAt.After(cutoff) {
			if _, err := s.ledger.ExpireStaleClaim(ctx, idempotencyKey, cutoff); err != nil {
				return nil, fmt.Errorf("failed to expire stale claim: %w", err)
			}
			continue
		}

		if err := sleepCtx(ctx, s.config.InFlightRetryDelay); err != nil {
			return nil, err
		}
	}

	return nil, ErrRequestInFlight
}

// create runs the claim winner's side: encrypt, persist payment and claim
// resolution together, return the canonical response.
func (s *PaymentService) create(ctx context.Context, idempotencyKey string, req CreatePaymentRequest) (*Result, error) {
	id := s.ids.GenerateID()
	now := s.now().UTC().Truncate(time.Second)

	ciphertext, nonce, err := s.cipher.Encrypt(req.CardNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt card number: %w", err)
	}

	payment := &storage.PaymentRecord{
		ID:                   id,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		CardLast4:            fingerprint.Last4(req.CardNumber),
		CardNumberCiphertext: ciphertext,
		CardNumberNonce:      nonce,
		Status:               StatusCreated,
		CreatedAt:            now,
	}

	body, err := json.Marshal(PaymentResponse{
		ID:        id,
		Status:    StatusCreated,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize response: %w", err)
	}

	if err := s.payments.CreatePaymentAndFinalize(ctx, payment, idempotencyKey, http.StatusCreated, string(body), now); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	return &Result{
		Kind:       ResultCreated,
		HTTPStatus: http.StatusCreated,
		Body:       body,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
