package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/prodex"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ prodex.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts prompt tokens offline with the model's tokenizer.
type TokenCounter struct {
	local *tokenizer.LocalTokenizer
}

// NewTokenCounter returns a counter for model, or DefaultModel when empty.
func NewTokenCounter(model string) (*TokenCounter, error) {
	if model == "" {
		model = DefaultModel
	}
	local, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, fmt.Errorf("gemini tokenizer for %s: %w", model, err)
	}
	return &TokenCounter{local: local}, nil
}

// CountTokens returns the token count of text sent as one user turn.
func (c *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if text == "" {
		return 0, nil
	}
	res, err := c.local.CountTokens([]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil {
		return 0, err
	}
	return int(res.TotalTokens), nil
}

// maxTrimPasses caps the count-and-cut loop in TrimToBudget.
const maxTrimPasses = 4

// TrimToBudget cuts text from the end until counter reports at most budget
// tokens. Each pass cuts proportionally with a 10% margin, so the result
// is usually under budget after one or two passes; after maxTrimPasses the
// last cut is returned as is.
func TrimToBudget(ctx context.Context, counter prodex.TokenCounter, text string, budget int) (string, error) {
	for range maxTrimPasses {
		n, err := counter.CountTokens(ctx, text)
		if err != nil {
			return "", fmt.Errorf("counting prompt tokens: %w", err)
		}
		if n <= budget {
			return text, nil
		}
		text = strings.ToValidUTF8(text[:len(text)*budget/n*9/10], "")
	}
	return text, nil
}
