package contextmgr

import (
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/jordanhubbard/freebsd-src-on-mean-AI/internal/chat"
)

// Tokenizer 上下文压力核算：优先 tiktoken 精确计数，离线缺 BPE 缓存时
// 回退到启发式估算。
// Tokenizer accounts for context pressure: precise tiktoken counting when
// available, heuristic estimation when the BPE cache is missing offline.
type Tokenizer struct {
	encoder      *tiktoken.Tiktoken
	encodingName string
	fallback     bool
	mu           sync.RWMutex
}

// NewTokenizer creates a tokenizer, falling back to the heuristic when
// tiktoken initialization fails.
func NewTokenizer(encodingName string) *Tokenizer {
	t := &Tokenizer{encodingName: encodingName}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		t.fallback = true
		return t
	}
	t.encoder = enc
	return t
}

// NewTokenizerForModel auto-selects the encoding from the model name.
func NewTokenizerForModel(model string) *Tokenizer {
	return NewTokenizer(modelToEncoding(model))
}

// Count returns the total token estimate for a transcript.
func (t *Tokenizer) Count(messages []chat.Message) int {
	total := 0
	for _, msg := range messages {
		// ~4 tokens of per-message structural overhead.
		total += 4 + t.CountText(msg.Role) + t.CountText(msg.Content)
	}
	return total
}

// CountText counts tokens for one text string.
func (t *Tokenizer) CountText(text string) int {
	if text == "" {
		return 0
	}
	if t.fallback {
		return heuristicTokenCount(text)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.encoder.Encode(text, nil, nil))
}

// IsPrecise reports whether tiktoken counting is active.
func (t *Tokenizer) IsPrecise() bool {
	return !t.fallback
}

// heuristicTokenCount: ASCII ~4 chars/token, CJK ~1.5 tokens/char.
func heuristicTokenCount(text string) int {
	cjk := 0
	ascii := 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			ascii++
		}
	}
	estimate := int(float64(cjk)*1.5 + float64(ascii)*0.25)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x3000 && r <= 0x303F) ||
		(r >= 0xFF00 && r <= 0xFFEF) ||
		(r >= 0xAC00 && r <= 0xD7AF)
}

func modelToEncoding(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case m == "":
		return "cl100k_base"
	case strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"),
		strings.HasPrefix(m, "gpt-4o"), strings.HasPrefix(m, "chatgpt-4o"):
		return "o200k_base"
	default:
		return "cl100k_base"
	}
}
