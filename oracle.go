package prodex

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Oracle is the expensive, trusted extractor used to validate cheaper
// strategies. Every call has a real unit cost.
type Oracle interface {
	// GroundTruth extracts a fully populated product from page, together
	// with a selector pattern that reproduces it on similar pages.
	GroundTruth(ctx context.Context, url string, page *PageData) (*GroundTruth, error)
}

// GroundTruth is an oracle answer.
type GroundTruth struct {
	Product *Product

	// Pattern is nil when the oracle could not describe the page layout.
	Pattern *Pattern
}

// OracleUsage accumulates oracle calls and tokens for one run. A positive
// Limit caps the number of calls; a child usage counts against its parent
// as well as its own limit. All methods are safe on a nil receiver, which
// means "unlimited and untracked".
type OracleUsage struct {
	RunID string
	Limit int

	parent *OracleUsage

	mu           sync.Mutex
	calls        int
	inputTokens  int
	outputTokens int
}

// NewOracleUsage returns an accumulator with a fresh run ID.
func NewOracleUsage(limit int) *OracleUsage {
	return &OracleUsage{RunID: uuid.New().String(), Limit: limit}
}

// Child returns an accumulator that shares u's run ID and also counts
// against u.
func (u *OracleUsage) Child(limit int) *OracleUsage {
	if u == nil {
		return NewOracleUsage(limit)
	}
	return &OracleUsage{RunID: u.RunID, Limit: limit, parent: u}
}

// Reserve records one oracle call. It returns EUNAVAILABLE without
// recording anything when the call would exceed a limit.
func (u *OracleUsage) Reserve() error {
	if u == nil {
		return nil
	}
	var chain []*OracleUsage
	for p := u; p != nil; p = p.parent {
		p.mu.Lock()
		chain = append(chain, p)
	}
	defer func() {
		for _, p := range chain {
			p.mu.Unlock()
		}
	}()
	for _, p := range chain {
		if p.Limit > 0 && p.calls >= p.Limit {
			return Errorf(EUNAVAILABLE, "oracle budget of %d call(s) exhausted", p.Limit)
		}
	}
	for _, p := range chain {
		p.calls++
	}
	return nil
}

// AddTokens records token usage for a call.
func (u *OracleUsage) AddTokens(input, output int) {
	for p := u; p != nil; p = p.parent {
		p.mu.Lock()
		p.inputTokens += input
		p.outputTokens += output
		p.mu.Unlock()
	}
}

// Calls returns the number of reserved calls.
func (u *OracleUsage) Calls() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

// Tokens returns the recorded input and output token counts.
func (u *OracleUsage) Tokens() (input, output int) {
	if u == nil {
		return 0, 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inputTokens, u.outputTokens
}

type oracleUsageKey struct{}

// WithOracleUsage returns a context carrying u.
func WithOracleUsage(ctx context.Context, u *OracleUsage) context.Context {
	return context.WithValue(ctx, oracleUsageKey{}, u)
}

// OracleUsageFrom returns the accumulator carried by ctx, or nil.
func OracleUsageFrom(ctx context.Context) *OracleUsage {
	u, _ := ctx.Value(oracleUsageKey{}).(*OracleUsage)
	return u
}
