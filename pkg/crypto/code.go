package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// GenerateNumericCode returns a zero-padded random numeric code of the given length.
func GenerateNumericCode(length int) (string, error) {
	if length < 4 {
		length = 4
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// HashCode digests a one-time code for at-rest storage.
func HashCode(code string) []byte {
	sum := sha256.Sum256([]byte(code))
	return sum[:]
}

// VerifyCode compares a candidate code against a stored digest in constant time.
func VerifyCode(hash []byte, code string) bool {
	candidate := sha256.Sum256([]byte(code))
	return subtle.ConstantTimeCompare(hash, candidate[:]) == 1
}
