package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Store handles SQLite persistence for payments and idempotency claims.
type Store struct {
	db *sql.DB
}

// PaymentRecord represents a persisted payment. The card number is stored
// only as AES-GCM ciphertext with its nonce; the plaintext never reaches disk.
type PaymentRecord struct {
	ID                   string
	FirstName            string
	LastName             string
	CardLast4            string
	CardNumberCiphertext []byte
	CardNumberNonce      []byte
	Status               string
	CreatedAt            time.Time
}

// IdempotencyRecord represents an idempotency claim. Finalized reports
// whether the claim winner has committed its payment and cached response;
// PaymentID, ResponseStatus and ResponseBody are only meaningful when it is.
type IdempotencyRecord struct {
	Key            string
	RequestHash    string
	PaymentID      string
	ResponseStatus int
	ResponseBody   string
	Finalized      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewStore opens (creating if necessary) the SQLite database at dbPath and
// applies the schema.
func NewStore(dbPath string) (*Store, error) {
	// Expand ~ in path
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	// WAL and a busy timeout so concurrent request workers queue on the
	// single writer instead of failing with SQLITE_BUSY.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// migrate creates the necessary tables. The primary key on idempotency_key is
// the uniqueness constraint the claim protocol relies on.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			card_last4 TEXT NOT NULL,
			card_number_ciphertext BLOB NOT NULL,
			card_number_nonce BLOB NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS payment_idempotency (
			idempotency_key TEXT PRIMARY KEY,
			request_hash TEXT NOT NULL,
			payment_id TEXT,
			response_status INTEGER,
			response_body TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (payment_id) REFERENCES payments(id)
		);

		CREATE INDEX IF NOT EXISTS idx_idempotency_payment ON payment_idempotency(payment_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// GenerateID creates a new UUID for a payment
func GenerateID() string {
	return uuid.New().String()
}

// ClaimIdempotencyKey attempts the atomic claim insert for a key. It returns
// true when this caller won the claim, false when the key already exists.
// The uniqueness constraint on idempotency_key is the only synchronization
// point between concurrent requests for the same key.
func (s *Store) ClaimIdempotencyKey(ctx context.Context, key, requestHash string, now time.Time) (bool, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_idempotency (idempotency_key, request_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, key, requestHash, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert idempotency claim: %w", err)
	}

	return true, nil
}

// GetIdempotencyRecord retrieves a claim by key, returning ErrNotFound when
// no claim exists.
func (s *Store) GetIdempotencyRecord(ctx context.Context, key string) (*IdempotencyRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT idempotency_key, request_hash, payment_id, response_status, response_body, created_at, updated_at
		FROM payment_idempotency WHERE idempotency_key = ?
	`, key)

	var rec IdempotencyRecord
	var paymentID, responseBody sql.NullString
	var responseStatus sql.NullInt64

	err := row.Scan(&rec.Key, &rec.RequestHash, &paymentID, &responseStatus, &responseBody, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("idempotency key %q: %w", key, ErrNotFound)
		}
		return nil, err
	}

	rec.Finalized = responseStatus.Valid
	rec.PaymentID = paymentID.String
	rec.ResponseStatus = int(responseStatus.Int64)
	rec.ResponseBody = responseBody.String

	return &rec, nil
}

// ExpireStaleClaim deletes an unfinalized claim whose last update is older
// than cutoff, freeing the key for re-claiming. It returns true when a stale
// claim was removed. The response_status IS NULL guard keeps finalized
// records immune to expiry.
func (s *Store) ExpireStaleClaim(ctx context.Context, key string, cutoff time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM payment_idempotency
		WHERE idempotency_key = ? AND response_status IS NULL AND updated_at < ?
	`, key, cutoff)
	if err != nil {
		return false, fmt.Errorf("failed to expire stale claim: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CreatePaymentAndFinalize persists the payment row and resolves the
// idempotency claim in one transaction: a crash between the two writes rolls
// both back, so a payment can never exist without a replayable claim.
func (s *Store) CreatePaymentAndFinalize(ctx context.Context, payment *PaymentRecord, key string, responseStatus int, responseBody string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, first_name, last_name, card_last4, card_number_ciphertext, card_number_nonce, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, payment.ID, payment.FirstName, payment.LastName, payment.CardLast4,
		payment.CardNumberCiphertext, payment.CardNumberNonce, payment.Status, payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE payment_idempotency
		SET payment_id = ?, response_status = ?, response_body = ?, updated_at = ?
		WHERE idempotency_key = ? AND response_status IS NULL
	`, payment.ID, responseStatus, responseBody, now, key)
	if err != nil {
		return fmt.Errorf("failed to finalize idempotency claim: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		// Claim vanished (expired) or was already finalized; abort rather
		// than commit a payment nobody can replay.
		return fmt.Errorf("idempotency claim for key %q no longer open", key)
	}

	return tx.Commit()
}

// GetPayment retrieves a payment by ID, returning ErrNotFound when absent.
func (s *Store) GetPayment(ctx context.Context, id string) (*PaymentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, card_last4, card_number_ciphertext, card_number_nonce, status, created_at
		FROM payments WHERE id = ?
	`, id)

	var p PaymentRecord
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.CardLast4,
		&p.CardNumberCiphertext, &p.CardNumberNonce, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %q: %w", id, ErrNotFound)
		}
		return nil, err
	}

	return &p, nil
}

// CountPayments returns the number of persisted payments.
func (s *Store) CountPayments(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments").Scan(&count)
	return count, err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
