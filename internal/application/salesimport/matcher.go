package salesimport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/marketplace"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// MatchType names the rule that linked an order line to a listing
type MatchType string

const (
	MatchMapping     MatchType = "MAPPING"
	MatchTitle       MatchType = "TITLE"
	MatchSKU         MatchType = "SKU"
	MatchInternalSKU MatchType = "INTERNAL_SKU"
)

// Match is a resolved listing
type Match struct {
	ListingID uuid.UUID
	Type      MatchType
}

// Matcher links order lines to listings. Rules are tried in order: manual
// mapping, store title, external product code, internal product SKU.
type Matcher struct {
	mappings catalog.ListingMappingRepository
	listings catalog.ListingRepository
}

// NewMatcher creates a Matcher
func NewMatcher(mappings catalog.ListingMappingRepository, listings catalog.ListingRepository) *Matcher {
	return &Matcher{mappings: mappings, listings: listings}
}

// Match returns the first listing found for title and sku on platform, or
// nil when no rule applies. Lookup failures other than not-found are returned.
func (m *Matcher) Match(ctx context.Context, platform marketplace.Platform, title, sku string) (*Match, error) {
	title = strings.TrimSpace(title)
	sku = strings.TrimSpace(sku)

	if title != "" || sku != "" {
		mapping, err := m.mappings.FindMatch(ctx, platform, title, sku)
		if ok, err := found(err, "mapping"); err != nil {
			return nil, err
		} else if ok {
			return &Match{ListingID: mapping.ListingID, Type: MatchMapping}, nil
		}
	}

	rules := []struct {
		value string
		typ   MatchType
		find  func(context.Context, marketplace.Platform, string) (*catalog.Listing, error)
	}{
		{title, MatchTitle, m.listings.FindByStoreTitle},
		{sku, MatchSKU, m.listings.FindByProductCode},
		{sku, MatchInternalSKU, m.listings.FindByProductSKU},
	}
	for _, rule := range rules {
		if rule.value == "" {
			continue
		}
		listing, err := rule.find(ctx, platform, rule.value)
		if ok, err := found(err, string(rule.typ)); err != nil {
			return nil, err
		} else if ok {
			return &Match{ListingID: listing.ID, Type: rule.typ}, nil
		}
	}
	return nil, nil
}

func found(err error, rule string) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, shared.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("match by %s: %w", strings.ToLower(rule), err)
	}
}

type matchKey struct {
	title string
	sku   string
}

// memoMatcher caches matches for the duration of one preview, where many
// lines share the same product
type memoMatcher struct {
	matcher  *Matcher
	platform marketplace.Platform
	seen     map[matchKey]*Match
}

func (m *Matcher) forPlatform(platform marketplace.Platform) *memoMatcher {
	return &memoMatcher{matcher: m, platform: platform, seen: make(map[matchKey]*Match)}
}

func (mm *memoMatcher) match(ctx context.Context, title, sku string) (*Match, error) {
	key := matchKey{strings.TrimSpace(title), strings.TrimSpace(sku)}
	if match, ok := mm.seen[key]; ok {
		return match, nil
	}
	match, err := mm.matcher.Match(ctx, mm.platform, key.title, key.sku)
	if err != nil {
		return nil, err
	}
	mm.seen[key] = match
	return match, nil
}
