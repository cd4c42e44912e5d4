package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateCode returns 2n uppercase hex characters drawn from
// crypto/rand. Ticket tokens, session ids and order refs all come from
// here; at the default 16 bytes the space is large enough that
// collisions are a retry case, not a design concern.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}
