package stats

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// TokenCounter counts tokens with a HuggingFace tokenizer.json model,
// so length reports can be read in the units the trainer actually sees.
type TokenCounter struct {
	tk *tokenizer.Tokenizer
}

// NewTokenCounter loads a tokenizer.json file.
func NewTokenCounter(path string) (*TokenCounter, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %s: %w", path, err)
	}
	return &TokenCounter{tk: tk}, nil
}

// Count returns the number of tokens in text, without special tokens.
func (c *TokenCounter) Count(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	en, err := c.tk.EncodeSingle(text)
	if err != nil {
		return 0, fmt.Errorf("encoding text: %w", err)
	}
	return len(en.Ids), nil
}
