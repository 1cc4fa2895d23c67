package train

import (
	"math/rand"
	"sort"
)

// SplitSeries deterministically partitions series IDs into train and
// validation sets. The split happens at series granularity so no series
// leaks samples across the boundary.
func SplitSeries(ids []string, validFraction float64, seed int64) (train, valid []string) {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(sorted), func(i, j int) {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	})

	nValid := int(float64(len(sorted)) * validFraction)
	if nValid < 1 && len(sorted) > 1 && validFraction > 0 {
		nValid = 1
	}
	valid = sorted[:nValid]
	train = sorted[nValid:]
	return train, valid
}
