package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Request holds the business-relevant fields that decide whether two payment
// requests are the same logical request. The CVV and the full card number are
// deliberately absent: idempotency must never derive identifiers from raw
// cardholder secrets, so only the card's last 4 digits participate.
type Request struct {
	FirstName  string
	LastName   string
	Expiry     string
	CardLast4  string
	InvoiceIDs []string
}

// canonicalRequest is the serialized form hashed for idempotency comparison.
// Fields are declared in alphabetical key order so the JSON encoding is
// deterministic.
type canonicalRequest struct {
	CardLast4  string   `json:"cardLast4"`
	Expiry     string   `json:"expiry"`
	FirstName  string   `json:"firstName"`
	InvoiceIDs []string `json:"invoiceIds"`
	LastName   string   `json:"lastName"`
}

// Hash computes the idempotency fingerprint of a normalized payment request:
// a lowercase hex SHA-256 digest of the canonical JSON encoding. Invoice IDs
// are sorted first, so reordering them does not change the digest.
func Hash(req Request) (string, error) {
	invoiceIDs := make([]string, len(req.InvoiceIDs))
	copy(invoiceIDs, req.InvoiceIDs)
	sort.Strings(invoiceIDs)

	canonical := canonicalRequest{
		CardLast4:  req.CardLast4,
		Expiry:     req.Expiry,
		FirstName:  req.FirstName,
		InvoiceIDs: invoiceIDs,
		LastName:   req.LastName,
	}

	payload, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to serialize canonical request: %w", err)
	}

	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:]), nil
}

// Last4 returns the trailing 4 digits of a card number, or the whole value if
// it is shorter than 4 characters.
func Last4(cardNumber string) string {
	if len(cardNumber) <= 4 {
		return cardNumber
	}
	return cardNumber[len(cardNumber)-4:]
}
