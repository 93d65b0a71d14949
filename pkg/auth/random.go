package auth

import (
	"crypto/rand"
	"math/big"
)

const defaultChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateString returns a random ASCII-alphanumeric string of the given
// size. Used for session identifiers and per-user secrets.
func GenerateString(size int) string {
	buf := make([]byte, size)
	max := big.NewInt(int64(len(defaultChars)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform entropy source is broken.
			panic(err)
		}
		buf[i] = defaultChars[n.Int64()]
	}
	return string(buf)
}
