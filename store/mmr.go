package store

import "math"

// mmrLambda balances query relevance against diversity; 0.5 weighs both
// equally, matching the usual maximal-marginal-relevance default.
const mmrLambda = 0.5

// cosineSimilarity computes the cosine similarity of two vectors.
// Mismatched or empty vectors score zero.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// mmrSelect picks k candidate indices by maximal marginal relevance:
// each step selects the candidate with the best trade-off between
// relevance to the query and dissimilarity to everything already chosen.
// Candidates must be ordered however the caller likes; relevance comes
// from the query vector, not the input order.
func mmrSelect(queryVec []float32, candidates [][]float32, k int) []int {
	n := len(candidates)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	relevance := make([]float32, n)
	for i, c := range candidates {
		relevance[i] = cosineSimilarity(queryVec, c)
	}

	selected := make([]int, 0, k)
	remaining := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		remaining[i] = struct{}{}
	}

	for len(selected) < k {
		best := -1
		bestScore := float32(math.Inf(-1))
		for i := range remaining {
			maxSim := float32(0)
			for _, s := range selected {
				if sim := cosineSimilarity(candidates[i], candidates[s]); sim > maxSim {
					maxSim = sim
				}
			}
			score := mmrLambda*relevance[i] - (1-mmrLambda)*maxSim
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		if best < 0 {
			break
		}
		selected = append(selected, best)
		delete(remaining, best)
	}
	return selected
}
