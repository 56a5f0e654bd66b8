package utils

import (
	"math/rand"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/twishhq/twish/utils/dotenv"
)

const letters = "abcdefghijklmnopqrstuvwxyz"

// TruncatedUUIDLength is the length of the user facing search identifier. A
// full UUID is overkill for something the user may need to copy around, 8 hex
// characters is effectively unique within the lifetime of a deployment.
const TruncatedUUIDLength = 8

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// RandomAlphabetString generates a random lower case string of length n.
func RandomAlphabetString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// NewTruncatedUUID returns a fresh random UUID truncated to
// TruncatedUUIDLength hex characters.
func NewTruncatedUUID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return hex[:TruncatedUUIDLength]
}

func IsProdEnv() bool {
	return os.Getenv("TWISH_ENV") == dotenv.ProdEnv
}
