package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/fwojciec/prodex"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ prodex.PatternStore = (*PatternStore)(nil)

// PatternStore implements prodex.PatternStore using SQLite. A domain keeps
// only its latest pattern.
type PatternStore struct {
	db *DB
}

// NewPatternStore creates a new PatternStore.
func NewPatternStore(db *DB) *PatternStore {
	return &PatternStore{db: db}
}

// SavePattern creates or replaces the pattern for p.Domain.
func (s *PatternStore) SavePattern(ctx context.Context, p *prodex.Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	selectors, err := json.Marshal(p.Selectors)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patterns (domain, id, selectors, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			id = excluded.id,
			selectors = excluded.selectors,
			created_at = excluded.created_at
	`, p.Domain, p.ID, string(selectors), p.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// FindPattern retrieves the pattern for domain.
func (s *PatternStore) FindPattern(ctx context.Context, domain string) (*prodex.Pattern, error) {
	p := &prodex.Pattern{Domain: domain}
	var selectors, createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, selectors, created_at FROM patterns WHERE domain = ?
	`, domain).Scan(&p.ID, &selectors, &createdAt)

	if err == sql.ErrNoRows {
		return nil, prodex.Errorf(prodex.ENOTFOUND, "no pattern for %s", domain)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(selectors), &p.Selectors); err != nil {
		return nil, prodex.Errorf(prodex.EINVALID, "corrupt pattern for %s: %s", domain, err)
	}
	if p.CreatedAt, err = parseTimestamp(createdAt, "created_at"); err != nil {
		return nil, err
	}

	return p, nil
}
