package utils

import (
	"strconv"

	"github.com/twmb/murmur3"
)

func HashString(s string) uint64 {
	hash := murmur3.New64()
	_, err := hash.Write([]byte(s))
	if err != nil {
		panic(err)
	}
	return hash.Sum64()
}

// HashToken returns a stable, non-reversible identifier for a bearer token,
// safe to put in logs and object keys.
func HashToken(token string) string {
	return strconv.FormatUint(HashString(token), 16)
}
