package common

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// RandomString draws n characters uniformly from alphabet using crypto/rand.
func RandomString(n int, alphabet string) (string, error) {
	if alphabet == "" {
		return "", errors.New("empty alphabet")
	}
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
