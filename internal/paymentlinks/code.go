package paymentlinks

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

const codeBytes = 5

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// generateCode returns an 8 character lowercase slug for the public link URL.
func generateCode() (string, error) {
	bytes := make([]byte, codeBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating link code: %w", err)
	}
	return strings.ToLower(codeEncoding.EncodeToString(bytes)), nil
}
