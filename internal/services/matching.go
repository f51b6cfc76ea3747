package services

import "strings"

// NormalizeName strips whitespace and separator punctuation so "Zhang San",
// "zhang-san" and "张 三" compare by content only.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '\t', '\n', '.', ',', '-', '_', '·':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CalculateSimilarity scores two names in [0, 1] by normalized edit distance.
// Identical names score 1.0 and the score is symmetric.
func CalculateSimilarity(a, b string) float64 {
	na := []rune(NormalizeName(a))
	nb := []rune(NormalizeName(b))

	if len(na) == 0 || len(nb) == 0 {
		return 0
	}

	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}

	return 1 - float64(levenshtein(na, nb))/float64(maxLen)
}

// levenshtein computes edit distance over runes with a two-row table
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// BestRosterMatch returns the roster name closest to the extracted name and
// its similarity score.
func BestRosterMatch(roster []string, extracted string) (string, float64) {
	bestName := ""
	bestScore := 0.0
	for _, name := range roster {
		if score := CalculateSimilarity(name, extracted); score > bestScore {
			bestName, bestScore = name, score
		}
	}
	return bestName, bestScore
}

// sentenceTerminators covers both ASCII and CJK-width punctuation since
// student compositions mix the two freely.
var sentenceTerminators = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '；': true, ';': true,
}

// SplitSentences is the deterministic fallback used when the model-based
// extraction fails: split on terminal punctuation, keep the terminator.
func SplitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	for _, r := range text {
		b.WriteRune(r)
		if sentenceTerminators[r] {
			flush()
		}
	}
	flush()

	return sentences
}
