package service

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"canokart/internal/domain"
	"canokart/internal/repository"
)

const (
	suggestionMinLength = 2
	suggestionLimit     = 8
	suggestionScan      = 200
)

// SearchQuery параметры поиска
type SearchQuery struct {
	Query     string
	Category  string
	Brand     string
	MinPrice  *float64
	MaxPrice  *float64
	InStock   bool
	SortBy    repository.SortMode
	Page      int
	Limit     int
	UserID    string
	SessionID string
}

// SearchResult страница результатов поиска
type SearchResult struct {
	Products   []domain.Product `json:"products"`
	TotalCount int64            `json:"totalCount"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	Query      string           `json:"query"`
}

// SearchService полнотекстовый поиск по каталогу с фильтрами
type SearchService struct {
	products     repository.ProductRepository
	logs         repository.SearchLogRepository
	log          *zap.Logger
	defaultLimit int
	maxLimit     int
}

func NewSearchService(products repository.ProductRepository, logs repository.SearchLogRepository, log *zap.Logger, defaultLimit, maxLimit int) *SearchService {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &SearchService{products: products, logs: logs, log: log, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Search sorts the whole match set before cutting the requested page
func (s *SearchService) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return nil, errors.Wrap(ErrInvalidInput, "search query is required")
	}
	if q.SortBy == "" {
		q.SortBy = repository.SortRelevance
	}
	if !q.SortBy.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "unknown sort %q", q.SortBy)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, errors.Wrap(ErrInvalidInput, "minPrice exceeds maxPrice")
	}
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	f := repository.ProductFilter{
		Search:   query,
		Category: q.Category,
		Brand:    q.Brand,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		InStock:  q.InStock,
		Sort:     q.SortBy,
		Skip:     (page - 1) * limit,
		Limit:    limit,
	}
	total, err := s.products.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	list, err := s.products.List(ctx, f)
	if err != nil {
		return nil, err
	}

	entry := domain.SearchLog{
		Query:        query,
		UserID:       q.UserID,
		SessionID:    q.SessionID,
		ResultsCount: len(list),
	}
	if err := s.logs.Create(ctx, &entry); err != nil {
		s.log.Warn("search log write failed", zap.String("query", query), zap.Error(err))
	}

	return &SearchResult{
		Products:   list,
		TotalCount: total,
		Page:       page,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		Query:      query,
	}, nil
}

// Suggestions returns distinct names, categories and brands containing q
func (s *SearchService) Suggestions(ctx context.Context, q string) ([]string, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < suggestionMinLength {
		return []string{}, nil
	}
	list, err := s.products.List(ctx, repository.ProductFilter{Search: q, Limit: suggestionScan})
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(q)
	seen := make(map[string]struct{})
	out := make([]string, 0, suggestionLimit)
	add := func(v string) {
		if len(out) >= suggestionLimit || v == "" || !strings.Contains(strings.ToLower(v), needle) {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, p := range list {
		add(p.Name)
	}
	for _, p := range list {
		add(p.Category)
	}
	for _, p := range list {
		add(p.Brand)
	}
	return out, nil
}
