// Package anthropic implements the ground truth oracle on the Anthropic
// Messages API. Page cleaning, the prompt and answer parsing are shared
// with the gemini oracle so both backends produce the same ground truth
// and patterns.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/fwojciec/prodex"
	"github.com/fwojciec/prodex/gemini"
)

// DefaultModel is the model used for ground truth calls.
const DefaultModel = "claude-haiku-4-5-20251001"

// DefaultMaxTokens bounds the answer length.
const DefaultMaxTokens = 4096

// maxPromptBytes bounds the cleaned page when no token counter is set.
const maxPromptBytes = 400_000

var _ prodex.Oracle = (*Oracle)(nil)

// systemPrompt spells out the answer shape, since the Messages API has no
// response schema.
var systemPrompt = "You extract product data from e-commerce product pages. " +
	"Report only values present on the page. Use an empty string or 0 for anything absent. " +
	"Prices are numbers in major units. Currency is an ISO 4217 code. " +
	"Answer with one JSON object and nothing else, shaped as " +
	`{"product":{"name":"","price":0,"currency":"","description":"","brand":"","sku":"","category":"",` +
	`"images":[""],"variants":[{"size":"","color":"","sku":"","price":0,"available":true}]},` +
	`"selectors":{"<field>":{"css":"","attr":""}}}. ` +
	"Selector fields are name, price, currency, description, brand, sku, category and images. " +
	"Give attr only when the value is not the element's text."

// Oracle implements prodex.Oracle with Claude. Each call reserves one unit
// from the context's prodex.OracleUsage and records token usage.
type Oracle struct {
	client  sdk.Client
	counter prodex.TokenCounter

	// Model defaults to DefaultModel.
	Model string

	// MaxTokens defaults to DefaultMaxTokens.
	MaxTokens int64

	// MaxPromptTokens applies when a counter is set. Defaults to
	// gemini.DefaultMaxPromptTokens.
	MaxPromptTokens int
}

// NewOracle returns an Oracle authenticated with apiKey. The counter may
// be nil, in which case pages are bounded by size.
func NewOracle(apiKey string, counter prodex.TokenCounter, opts ...option.RequestOption) *Oracle {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Oracle{
		client:          sdk.NewClient(opts...),
		counter:         counter,
		Model:           DefaultModel,
		MaxTokens:       DefaultMaxTokens,
		MaxPromptTokens: gemini.DefaultMaxPromptTokens,
	}
}

// GroundTruth asks Claude for the product on page and the selectors that
// locate its fields.
func (o *Oracle) GroundTruth(ctx context.Context, url string, page *prodex.PageData) (*prodex.GroundTruth, error) {
	if page == nil || strings.TrimSpace(page.HTML) == "" {
		return nil, prodex.Errorf(prodex.EINVALID, "page markup required")
	}

	cleaned, err := gemini.CleanHTML(page.HTML)
	if err != nil {
		return nil, err
	}
	if o.counter != nil {
		if cleaned, err = gemini.TrimToBudget(ctx, o.counter, cleaned, o.MaxPromptTokens); err != nil {
			return nil, err
		}
	} else if len(cleaned) > maxPromptBytes {
		cleaned = strings.ToValidUTF8(cleaned[:maxPromptBytes], "")
	}

	usage := prodex.OracleUsageFrom(ctx)
	if err := usage.Reserve(); err != nil {
		return nil, err
	}

	msg, err := o.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(o.Model),
		MaxTokens:   o.MaxTokens,
		Temperature: sdk.Float(0),
		System:      []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(gemini.BuildPrompt(url, cleaned))),
		},
	})
	if err != nil {
		return nil, apiError(err)
	}
	usage.AddTokens(int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens))

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, prodex.Errorf(prodex.EINTERNAL, "anthropic returned no text")
	}
	return gemini.ParseResponse(url, text.String())
}

// apiError marks throttling and server failures as EUNAVAILABLE so callers
// treat them as a missing oracle rather than a bug.
func apiError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return prodex.Errorf(prodex.EUNAVAILABLE, "anthropic: status %d", apiErr.StatusCode)
		}
	}
	return fmt.Errorf("anthropic: %w", err)
}
