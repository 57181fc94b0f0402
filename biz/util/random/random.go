package random

import (
	"crypto/rand"
	"math/big"
)

const letters = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var lettersLen = big.NewInt(int64(len(letters)))

// RandStr returns n characters drawn from crypto/rand. Salts are built on it,
// so it must never fall back to a predictable source.
func RandStr(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, lettersLen)
		if err != nil {
			panic(err)
		}
		b[i] = letters[idx.Int64()]
	}
	return string(b)
}
