package tenant

import (
	"strings"

	"github.com/google/uuid"
)

// ShortID returns the first n hexadecimal characters of a UUID (without dashes).
func ShortID(id uuid.UUID, n int) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	if n <= 0 || len(hex) < n {
		return hex
	}
	return hex[:n]
}
