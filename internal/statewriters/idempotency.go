// Package statewriters implements idempotent, audited persistence of
// check-ins, journal entries, and memories, detecting duplicate writes
// against raw pgx unique-violation codes.
package statewriters

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// WriteStatus is the per-write outcome a writer reports back to the
// coordinator.
type WriteStatus string

const (
	StatusWritten   WriteStatus = "written"
	StatusDuplicate WriteStatus = "duplicate"
	StatusRejected  WriteStatus = "rejected"
)

// WriteResult is the common shape every writer returns.
type WriteResult struct {
	Status  WriteStatus
	Target  string
	Details string
}

// IdempotencyKey computes H(user_id, turn_id, kind), the deterministic key
// every writer keys its uniqueness constraint on.
func IdempotencyKey(userID, turnID, kind string) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(turnID))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	return hex.EncodeToString(h.Sum(nil))
}

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode
}
