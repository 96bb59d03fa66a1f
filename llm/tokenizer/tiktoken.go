package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// encodingFor implements spec.md §4.4's selection rule.
func encodingFor(model string) string {
	switch {
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return "cl100k_base"
	case strings.HasPrefix(model, "text-davinci"), strings.HasPrefix(model, "text-curie"):
		return "p50k_base"
	default:
		return "cl100k_base"
	}
}

// encoderCache caches one *tiktoken.Tiktoken per encoding kind for the
// process lifetime, since construction is expensive (spec.md §5:
// "tokenizer encoder objects are expensive to construct; cache one per
// encoding kind for process lifetime").
var (
	encoderCacheMu sync.Mutex
	encoderCache   = map[string]*tiktoken.Tiktoken{}
)

func getEncoder(encoding string) (*tiktoken.Tiktoken, error) {
	encoderCacheMu.Lock()
	defer encoderCacheMu.Unlock()
	if enc, ok := encoderCache[encoding]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("init tiktoken encoding %s: %w", encoding, err)
	}
	encoderCache[encoding] = enc
	return enc, nil
}

// BPETokenizer is the tiktoken-backed Tokenizer implementation.
type BPETokenizer struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewBPETokenizer selects the encoding for model and eagerly
// initializes its encoder.
func NewBPETokenizer(model string) (*BPETokenizer, error) {
	encoding := encodingFor(model)
	enc, err := getEncoder(encoding)
	if err != nil {
		return nil, err
	}
	return &BPETokenizer{model: model, encoding: encoding, enc: enc}, nil
}

func (t *BPETokenizer) CountTokens(text string) (int, error) {
	return len(t.enc.Encode(text, nil, nil)), nil
}

// CountMessages applies spec.md §4.4's message-sequence overhead: 3
// tokens per message, 3 more for assistant priming, plus the name
// field's own tokens when present.
func (t *BPETokenizer) CountMessages(messages []Message) (int, error) {
	total := assistantPriming
	for _, m := range messages {
		total += perMessageOverhead
		total += len(t.enc.Encode(m.Content, nil, nil))
		if m.Name != "" {
			total += len(t.enc.Encode(m.Name, nil, nil))
		}
	}
	return total, nil
}

func (t *BPETokenizer) Encode(text string) ([]int, error) {
	return t.enc.Encode(text, nil, nil), nil
}

func (t *BPETokenizer) Decode(tokens []int) (string, error) {
	return t.enc.Decode(tokens), nil
}

func (t *BPETokenizer) Name() string { return fmt.Sprintf("tiktoken[%s]", t.encoding) }
