package utils

import "golang.org/x/exp/rand"

func FindIndex[T comparable](slice []T, item T) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}

// Choose returns a uniformly random element of a non-empty slice.
func Choose[T any](rng *rand.Rand, slice []T) T {
	return slice[rng.Intn(len(slice))]
}
