package tokenizer

import (
	"errors"
	"unicode/utf8"
)

// EstimatorTokenizer is a CJK-aware character-count estimator, used only
// when BPE initialization fails (spec.md §4.4: "never raise"). Grounded
// on the teacher's EstimatorTokenizer, including its CJK-vs-ASCII ratio.
type EstimatorTokenizer struct{}

func (e EstimatorTokenizer) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	total := utf8.RuneCountInString(text)
	cjk := 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		}
	}
	estimated := int(float64(cjk)/1.5 + float64(total-cjk)/4.0)
	if estimated == 0 && total > 0 {
		estimated = 1
	}
	return estimated, nil
}

func (e EstimatorTokenizer) CountMessages(messages []Message) (int, error) {
	total := assistantPriming
	for _, m := range messages {
		n, _ := e.CountTokens(m.Content)
		total += n + perMessageOverhead
		if m.Name != "" {
			nameTokens, _ := e.CountTokens(m.Name)
			total += nameTokens
		}
	}
	return total, nil
}

func (e EstimatorTokenizer) Encode(text string) ([]int, error) {
	n, _ := e.CountTokens(text)
	tokens := make([]int, n)
	for i := range tokens {
		tokens[i] = i
	}
	return tokens, nil
}

func (e EstimatorTokenizer) Decode(_ []int) (string, error) {
	return "", errUnsupportedDecode
}

func (e EstimatorTokenizer) Name() string { return "estimator" }

var errUnsupportedDecode = errors.New("estimator tokenizer does not support decode")

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x3000 && r <= 0x303F) ||
		(r >= 0xFF00 && r <= 0xFFEF)
}
