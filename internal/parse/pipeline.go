// Package parse extracts structured (polymer, price) pairs from free-text
// trade-chat messages. The deterministic pattern path handles well-formed
// quote sheets; an external oracle covers the long tail of free-form
// phrasing, with its output re-checked by the same rejection rules.
package parse

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/lueurxax/polymer-price-bot/internal/core/domain"
	"github.com/lueurxax/polymer-price-bot/internal/observability"
)

// ErrAuth marks oracle failures that retries cannot fix (bad credentials or
// configuration). Unlike transient oracle errors, these propagate to the
// caller immediately.
var ErrAuth = errors.New("oracle authentication failed")

// Parser is the two-tier extraction cascade: deterministic first, oracle
// only when pattern matching is not confident. The two sources are never
// merged within one call.
type Parser struct {
	extractor  *Extractor
	oracle     Oracle
	minResults int
	logger     *zerolog.Logger
}

// NewParser builds the cascade. minResults is the confidence threshold: the
// oracle runs only when the deterministic path yields that many candidates
// or fewer.
func NewParser(extractor *Extractor, oracle Oracle, minResults int, logger *zerolog.Logger) *Parser {
	return &Parser{
		extractor:  extractor,
		oracle:     oracle,
		minResults: minResults,
		logger:     logger,
	}
}

// ParseMessage extracts priced entities from one message. Messages with no
// extractable prices yield an empty slice, not an error. Transient oracle
// failures degrade to an empty result; only ErrAuth is returned.
func (p *Parser) ParseMessage(ctx context.Context, text string) ([]domain.PricedEntity, error) {
	results := p.extractor.Extract(text)
	if len(results) > p.minResults {
		observability.EntriesExtracted.WithLabelValues("pattern").Add(float64(len(results)))

		return results, nil
	}

	if p.oracle == nil {
		return results, nil
	}

	candidates, err := p.oracle.Extract(ctx, text)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			return nil, err
		}

		p.logger.Warn().Err(err).Msg("oracle extraction failed, degrading to empty result")

		return nil, nil
	}

	results = p.revalidate(candidates)
	observability.EntriesExtracted.WithLabelValues("oracle").Add(float64(len(results)))

	return results, nil
}

// revalidate applies the deterministic rejection rules to oracle output.
// The oracle's judgment is never trusted unchecked.
func (p *Parser) revalidate(candidates []Candidate) []domain.PricedEntity {
	var results []domain.PricedEntity

	seen := make(map[string]struct{})

	for _, c := range candidates {
		entity, ok := p.extractor.Validate(c.Name, c.Price)
		if !ok {
			p.logger.Debug().Str("name", c.Name).Str("price", c.Price).Msg("oracle candidate rejected")
			continue
		}

		if _, dup := seen[entity.NormalizedName]; dup {
			continue
		}

		seen[entity.NormalizedName] = struct{}{}
		results = append(results, entity)
	}

	return results
}
