package metrics

import "strings"

// ANLSThreshold is the normalized distance at or above which an answer
// scores zero.
const ANLSThreshold = 0.5

// NormalizeAnswer lowercases s and collapses its whitespace.
func NormalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ExactMatch reports whether prediction equals any accepted answer after
// normalization.
func ExactMatch(prediction string, answers []string) bool {
	p := NormalizeAnswer(prediction)
	for _, a := range answers {
		if p == NormalizeAnswer(a) {
			return true
		}
	}
	return false
}

// ANLS is the Average Normalized Levenshtein Similarity for one question:
// the best 1-NL over the accepted answers, with NL at or above the
// threshold scored as zero.
func ANLS(prediction string, answers []string) float64 {
	p := NormalizeAnswer(prediction)
	best := 0.0
	for _, a := range answers {
		nl := normalizedLevenshtein(p, NormalizeAnswer(a))
		score := 0.0
		if nl < ANLSThreshold {
			score = 1 - nl
		}
		if score > best {
			best = score
		}
	}
	return best
}

func normalizedLevenshtein(s1, s2 string) float64 {
	r1, r2 := []rune(s1), []rune(s2)
	maxLen := max(len(r1), len(r2))
	if maxLen == 0 {
		return 0
	}
	return float64(levenshteinDistance(r1, r2)) / float64(maxLen)
}

// levenshteinDistance calculates the Levenshtein distance between two rune slices
func levenshteinDistance(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
