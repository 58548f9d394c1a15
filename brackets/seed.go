package brackets

// StandardSeedOrder returns the standard single-elimination seeding order
// for a bracket of the given size, which must be a power of two.
//
// The result is a permutation of [0, bracketSize) in which adjacent pairs
// form the canonical seeded matchups. For bracketSize=8 the order is
// [0, 7, 3, 4, 1, 6, 2, 5], i.e. 1v8, 4v5, 2v7, 3v6 in one-indexed terms.
func StandardSeedOrder(bracketSize int) []int {
	if bracketSize == 1 {
		return []int{0}
	}
	if bracketSize == 2 {
		return []int{0, 1}
	}

	prev := StandardSeedOrder(bracketSize / 2)
	order := make([]int, 0, bracketSize)
	for _, seed := range prev {
		order = append(order, seed, bracketSize-1-seed)
	}
	return order
}
