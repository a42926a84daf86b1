package util

import (
	"math/rand"
)

// GenerateRandomNumber returns a uniformly distributed int in
// [min, max]. Used for nickname suffixes, not for anything
// security-sensitive.
func GenerateRandomNumber(min, max int) int {
	return min + rand.Intn(max-min+1)
}
