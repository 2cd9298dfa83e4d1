package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/prodex"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for ground truth extraction.
const DefaultModel = "gemini-2.5-flash"

// DefaultMaxPromptTokens bounds the cleaned page sent with each call.
const DefaultMaxPromptTokens = 100_000

// maxPromptBytes bounds the page when no token counter is configured.
const maxPromptBytes = 400_000

// Ensure Oracle implements prodex.Oracle at compile time.
var _ prodex.Oracle = (*Oracle)(nil)

// Oracle implements prodex.Oracle using Google Gemini in JSON mode. Each
// call reserves one unit from the context's prodex.OracleUsage and
// records the reported token usage.
type Oracle struct {
	client  *genai.Client
	counter prodex.TokenCounter

	// Model defaults to DefaultModel.
	Model string

	// MaxPromptTokens defaults to DefaultMaxPromptTokens.
	MaxPromptTokens int
}

// NewOracle creates a new Oracle. The counter may be nil, in which case
// pages are bounded by size instead of tokens.
func NewOracle(client *genai.Client, counter prodex.TokenCounter) *Oracle {
	return &Oracle{
		client:          client,
		counter:         counter,
		Model:           DefaultModel,
		MaxPromptTokens: DefaultMaxPromptTokens,
	}
}

// GroundTruth asks Gemini for the product on page and for CSS selectors
// that locate each field.
func (o *Oracle) GroundTruth(ctx context.Context, url string, page *prodex.PageData) (*prodex.GroundTruth, error) {
	if page == nil || strings.TrimSpace(page.HTML) == "" {
		return nil, prodex.Errorf(prodex.EINVALID, "page markup required")
	}

	cleaned, err := CleanHTML(page.HTML)
	if err != nil {
		return nil, err
	}
	cleaned, err = o.bound(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	usage := prodex.OracleUsageFrom(ctx)
	if err := usage.Reserve(); err != nil {
		return nil, err
	}

	result, err := o.client.Models.GenerateContent(ctx, o.Model,
		[]*genai.Content{genai.NewContentFromText(BuildPrompt(url, cleaned), genai.RoleUser)},
		BuildConfig(),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if result == nil {
		return nil, prodex.Errorf(prodex.EINTERNAL, "gemini returned nil result")
	}
	if md := result.UsageMetadata; md != nil {
		usage.AddTokens(int(md.PromptTokenCount), int(md.CandidatesTokenCount))
	}

	return ParseResponse(url, result.Text())
}

// bound trims html until it fits the prompt budget.
func (o *Oracle) bound(ctx context.Context, html string) (string, error) {
	if o.counter == nil {
		if len(html) > maxPromptBytes {
			html = strings.ToValidUTF8(html[:maxPromptBytes], "")
		}
		return html, nil
	}
	limit := o.MaxPromptTokens
	if limit <= 0 {
		limit = DefaultMaxPromptTokens
	}
	return TrimToBudget(ctx, o.counter, html, limit)
}

// BuildConfig returns the GenerateContentConfig for ground truth calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You extract product data from e-commerce product pages. " +
					"Report only values present on the page. Use an empty string or 0 for anything absent. " +
					"Prices are numbers in major units. Currency is an ISO 4217 code. " +
					"For each field also give the CSS selector of the element holding it on this page, " +
					"and the attribute to read when the value is not the element's text.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
}

func responseSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	num := &genai.Schema{Type: genai.TypeNumber}
	selector := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"css":  str,
			"attr": str,
		},
		Required: []string{"css"},
	}
	selectors := make(map[string]*genai.Schema)
	for _, f := range patternFields {
		selectors[string(f)] = selector
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"product": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":        str,
					"price":       num,
					"currency":    str,
					"description": str,
					"brand":       str,
					"sku":         str,
					"category":    str,
					"images":      {Type: genai.TypeArray, Items: str},
					"variants": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"size":      str,
								"color":     str,
								"sku":       str,
								"price":     num,
								"available": {Type: genai.TypeBoolean},
							},
						},
					},
				},
				Required: []string{"name", "price", "currency", "description", "images"},
			},
			"selectors": {
				Type:       genai.TypeObject,
				Properties: selectors,
			},
		},
		Required: []string{"product", "selectors"},
	}
}

// patternFields are the fields the oracle describes with selectors.
var patternFields = []prodex.Field{
	prodex.FieldName,
	prodex.FieldPrice,
	prodex.FieldCurrency,
	prodex.FieldDescription,
	prodex.FieldBrand,
	prodex.FieldSKU,
	prodex.FieldCategory,
	prodex.FieldImages,
}

// BuildPrompt builds the user prompt for a cleaned product page.
func BuildPrompt(url, html string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<url>%s</url>\n", url)
	sb.WriteString("<page>\n")
	sb.WriteString(html)
	sb.WriteString("\n</page>\n\n")
	sb.WriteString("Extract the main product of this page and the selectors that locate its fields.")
	return sb.String()
}

type response struct {
	Product struct {
		Name        string   `json:"name"`
		Price       float64  `json:"price"`
		Currency    string   `json:"currency"`
		Description string   `json:"description"`
		Brand       string   `json:"brand"`
		SKU         string   `json:"sku"`
		Category    string   `json:"category"`
		Images      []string `json:"images"`
		Variants    []struct {
			Size      string  `json:"size"`
			Color     string  `json:"color"`
			SKU       string  `json:"sku"`
			Price     float64 `json:"price"`
			Available *bool   `json:"available"`
		} `json:"variants"`
	} `json:"product"`
	Selectors map[prodex.Field]prodex.Selector `json:"selectors"`
}

// ParseResponse converts a JSON answer into ground truth for url. The
// pattern is nil when the answer carries no usable selector.
func ParseResponse(url, text string) (*prodex.GroundTruth, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var resp response
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, prodex.Errorf(prodex.EINVALID, "malformed oracle response: %s", err)
	}

	rp := resp.Product
	p := &prodex.Product{
		Name:               strings.TrimSpace(rp.Name),
		Currency:           prodex.ParseCurrency(rp.Currency),
		Description:        strings.TrimSpace(rp.Description),
		Brand:              strings.TrimSpace(rp.Brand),
		SKU:                strings.TrimSpace(rp.SKU),
		Category:           strings.TrimSpace(rp.Category),
		URL:                url,
		ExtractionStrategy: prodex.StrategyOracle,
	}
	if rp.Price > 0 {
		p.Price = rp.Price
	}
	for _, img := range rp.Images {
		if img = strings.TrimSpace(img); img != "" {
			p.Images = append(p.Images, img)
		}
	}
	for _, v := range rp.Variants {
		variant := prodex.Variant{
			Size:      strings.TrimSpace(v.Size),
			Color:     strings.TrimSpace(v.Color),
			SKU:       strings.TrimSpace(v.SKU),
			Available: v.Available,
		}
		if v.Price > 0 {
			price := v.Price
			variant.Price = &price
		}
		p.Variants = append(p.Variants, variant)
	}
	if !p.Has(prodex.FieldName) && !p.Has(prodex.FieldPrice) {
		return nil, prodex.Errorf(prodex.ENOTFOUND, "oracle found no product on %s", url)
	}

	gt := &prodex.GroundTruth{Product: p}
	selectors := make(map[prodex.Field]prodex.Selector)
	for f, sel := range resp.Selectors {
		if css := strings.TrimSpace(sel.CSS); css != "" {
			selectors[f] = prodex.Selector{CSS: css, Attr: strings.TrimSpace(sel.Attr)}
		}
	}
	if len(selectors) > 0 {
		gt.Pattern = &prodex.Pattern{
			Domain:    prodex.DomainOf(url),
			Selectors: selectors,
		}
	}
	return gt, nil
}
