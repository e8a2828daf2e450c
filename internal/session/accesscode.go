package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	AccessCodeLength  = 8
	accessCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateAccessCode returns a random uppercase alphanumeric code for a new stocktake table.
func GenerateAccessCode() (string, error) {
	max := big.NewInt(int64(len(accessCodeCharset)))
	out := make([]byte, AccessCodeLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating access code: %w", err)
		}
		out[i] = accessCodeCharset[n.Int64()]
	}
	return string(out), nil
}
