package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateReference produces a globally unique transaction reference. The
// transactions table carries a unique index on the column, so the database is
// the final arbiter of uniqueness.
func GenerateReference() string {
	return "TXN-" + strings.ToUpper(uuid.NewString())
}
