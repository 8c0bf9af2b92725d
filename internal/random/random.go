package random

import (
	"crypto/rand"
	"github.com/myrjola/deduce/internal/errors"
	"math/big"
)

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns n cryptographically random ASCII letters. It names in-memory databases and player sessions.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	maxIndex := big.NewInt(int64(len(allowedLetters)))
	for i := range letters {
		letterIndex, err := rand.Int(rand.Reader, maxIndex)
		if err != nil {
			return "", errors.Wrap(err, "read random")
		}
		letters[i] = allowedLetters[letterIndex.Int64()]
	}
	return string(letters), nil
}
