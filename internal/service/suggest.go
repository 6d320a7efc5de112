package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/johnnyy06/ComputerBazaar-sub000/internal/engine"
	"github.com/johnnyy06/ComputerBazaar-sub000/internal/query"
)

// Suggestion limits.
const (
	MinSuggestLength    = 2
	MaxNameSuggestions  = 5
	MaxBrandSuggestions = 3
	MaxSuggestions      = 8
	MaxRelatedPerKind   = 3
)

// SuggestionService produces autocomplete and related-term lists. Every
// method is best effort: store failures are logged and yield fewer or no
// terms, never an error.
type SuggestionService struct {
	catalog engine.Catalog
	popular []string
	logger  *slog.Logger
}

// NewSuggestionService creates a suggestion service. popular is the
// editorial list returned by Popular.
func NewSuggestionService(catalog engine.Catalog, popular []string, logger *slog.Logger) *SuggestionService {
	return &SuggestionService{
		catalog: catalog,
		popular: append([]string(nil), popular...),
		logger:  logger,
	}
}

// Suggest completes a partial keyword with up to 5 product names and up to
// 3 brands sharing its prefix, deduplicated and capped at 8.
func (s *SuggestionService) Suggest(ctx context.Context, partial string) []string {
	partial = strings.TrimSpace(partial)
	if utf8.RuneCountInString(partial) < MinSuggestLength {
		return []string{}
	}

	var names, brands []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := query.New().
			Where(query.HasPrefix(partial, query.FieldName)).
			Limit(MaxNameSuggestions).
			Build()
		products, _, err := s.catalog.Find(gctx, q)
		if err != nil {
			s.logger.WarnContext(ctx, "name suggestions failed", slog.String("error", err.Error()))
			return nil
		}
		for _, p := range products {
			names = append(names, p.Name)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		brands, err = s.catalog.Distinct(gctx, query.FieldBrand,
			[]query.Condition{query.HasPrefix(partial, query.FieldBrand)}, MaxBrandSuggestions)
		if err != nil {
			s.logger.WarnContext(ctx, "brand suggestions failed", slog.String("error", err.Error()))
			brands = nil
		}
		return nil
	})
	_ = g.Wait()

	return dedupe(MaxSuggestions, names, brands)
}

// RelatedTerms returns up to 3 categories then up to 3 brands among the
// products whose name, category or brand contains keyword.
func (s *SuggestionService) RelatedTerms(ctx context.Context, keyword string) []string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []string{}
	}

	conds := []query.Condition{
		query.Contains(keyword, query.FieldName, query.FieldCategory, query.FieldBrand),
	}

	var categories, brands []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.catalog.Distinct(gctx, query.FieldCategory, conds, MaxRelatedPerKind)
		return err
	})
	g.Go(func() error {
		var err error
		brands, err = s.catalog.Distinct(gctx, query.FieldBrand, conds, MaxRelatedPerKind)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "related terms failed",
			slog.String("keyword", keyword),
			slog.String("error", err.Error()),
		)
		return []string{}
	}

	return dedupe(2*MaxRelatedPerKind, categories, brands)
}

// Popular returns the editorial list of popular searches.
func (s *SuggestionService) Popular() []string {
	return append([]string{}, s.popular...)
}

// dedupe concatenates lists, keeps the first occurrence of each term and
// truncates the result to limit.
func dedupe(limit int, lists ...[]string) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, term := range list {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			out = append(out, term)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}
