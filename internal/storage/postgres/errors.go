package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolationCode is the SQLSTATE Postgres returns for a unique-index
// conflict (23505).
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
