package dataset

import (
	"fmt"
	"math/rand"
)

// Split partitions the table into disjoint training and test subsets.
// Row indices are shuffled with a rand source seeded from seed; the
// first ⌊p·N⌋ permuted rows form the training set and the remainder the
// test set. Identical seed and input always produce identical splits.
// No stratification by target class is performed.
func Split(t *Table, p float64, seed int64) (train, test *Table, err error) {
	if p <= 0 || p >= 1 {
		return nil, nil, fmt.Errorf("split proportion must be in (0,1), got %v", p)
	}

	n := t.Len()
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	cut := int(p * float64(n))

	return t.Subset(perm[:cut]), t.Subset(perm[cut:]), nil
}
