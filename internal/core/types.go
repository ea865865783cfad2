package core

import (
	"time"
)

// Payment status constants. CREATED is the only lifecycle state today;
// capture/settlement states would extend this enum.
const (
	StatusCreated = "CREATED"
)

// Result kind constants
const (
	ResultCreated = "CREATED"
	ResultReplay  = "REPLAY"
)

// Default idempotency coordination settings
const (
	DefaultClaimTTL           = 30 * time.Second
	DefaultInFlightRetryDelay = 50 * time.Millisecond
	DefaultInFlightRetries    = 20
)

// Config holds configuration for the payment service
type Config struct {
	// ClaimTTL is how long an unfinalized idempotency claim is honored
	// before it is considered abandoned and becomes re-claimable.
	ClaimTTL time.Duration

	// InFlightRetryDelay and InFlightRetries bound how long a request polls
	// an open claim held by a concurrent request before giving up with
	// ErrRequestInFlight.
	InFlightRetryDelay time.Duration
	InFlightRetries    int
}

// CreatePaymentRequest is a normalized (trimmed, validated) payment creation
// request. The CVV is accepted for processing but never hashed or persisted.
type CreatePaymentRequest struct {
	FirstName  string
	LastName   string
	Expiry     string
	CVV        string
	CardNumber string
	InvoiceIDs []string
}

// PaymentResponse is the API-facing creation result. It carries no card or
// name data.
type PaymentResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Result is the outcome of a successful CreatePayment call. Body holds the
// exact serialized response JSON: replays return the originally cached bytes
// so every caller for a key observes an identical response.
type Result struct {
	Kind       string
	HTTPStatus int
	Body       []byte
}
