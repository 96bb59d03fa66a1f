package tokenizer

// Select returns a Tokenizer for model, falling back to the
// character-count estimator if BPE encoder initialization fails. The
// second return value is true when the fallback was used, so callers
// can mark a derived token count as approximate per spec.md §4.4.
func Select(model string) (t Tokenizer, approximate bool) {
	bpe, err := NewBPETokenizer(model)
	if err != nil {
		return EstimatorTokenizer{}, true
	}
	return bpe, false
}

// CountCharsEstimate is the ceil(chars/4) fallback spec.md §4.4 names
// explicitly as the last resort when even the estimator tokenizer's
// CJK-aware path isn't available (e.g. a caller without a Tokenizer at
// all, counting a raw string for a budget check).
func CountCharsEstimate(text string) int {
	if text == "" {
		return 0
	}
	n := len([]rune(text))
	return (n + 3) / 4
}
