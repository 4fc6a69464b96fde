package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Service orchestrates validation, caching, gate admission and the provider
// client for every search operation.
type Service struct {
	client    Client
	gate      Gate
	cache     Cache
	profiles  TopicProfiles
	minUnique int
}

// NewService wires the search service. cache may be nil to disable caching.
func NewService(client Client, gate Gate, cache Cache, profiles TopicProfiles, minUnique int) *Service {
	if len(profiles) == 0 {
		profiles = DefaultTopicProfiles()
	}
	if minUnique <= 0 {
		minUnique = 8
	}
	return &Service{
		client:    client,
		gate:      gate,
		cache:     cache,
		profiles:  profiles,
		minUnique: minUnique,
	}
}

// Profiles returns the immutable topic profile table.
func (s *Service) Profiles() TopicProfiles {
	return s.profiles
}

// Search validates the request, consults the cache and runs one gated
// provider call. Validation failures are rejected before any network call.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	req, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	key := cacheKey(req)
	if s.cache != nil {
		if resp, ok := s.cache.Get(key); ok {
			log.Debug().Str("query", req.Query).Msg("search served from cache")
			return resp, nil
		}
	}

	if err := s.gate.Acquire(ctx); err != nil {
		return nil, NewError("tavily_search", KindUnavailable, "admission gate rejected request", err)
	}
	defer s.gate.Release()

	resp, err := s.client.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, resp)
	}
	return resp, nil
}

// ComprehensiveSearch fans one search per topic profile out concurrently,
// deduplicates hits by URL and requires a minimum number of unique results.
// Each fan-out leg passes the admission gate on its own.
func (s *Service) ComprehensiveSearch(ctx context.Context, query string) (*CombinedResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, NewValidationError("query must not be empty")
	}

	names := s.profiles.Names()
	responses := make([]*SearchResponse, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for idx, name := range names {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()
			profile := s.profiles[name]
			resp, err := s.Search(ctx, profile.Request(query, name))
			if err != nil {
				log.Warn().Err(err).Str("topic", name).Str("query", query).Msg("topic search failed")
				errs[idx] = err
				return
			}
			responses[idx] = resp
		}(idx, name)
	}
	wg.Wait()

	combined, lastErr := s.combine(query, names, responses, errs)
	if combined == nil {
		return nil, lastErr
	}
	return combined, nil
}

// Extract runs one gated provider extract call for a single page.
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, NewValidationError("url must not be empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, NewValidationError("url must use http or https")
	}
	req.URL = url

	if err := s.gate.Acquire(ctx); err != nil {
		return nil, NewError("tavily_extract", KindUnavailable, "admission gate rejected request", err)
	}
	defer s.gate.Release()

	return s.client.Extract(ctx, req)
}

func (s *Service) combine(query string, names []string, responses []*SearchResponse, errs []error) (*CombinedResponse, error) {
	seen := make(map[string]struct{})
	combined := make([]SearchResult, 0, s.minUnique)
	answers := make([]string, 0, len(responses))
	succeeded := 0
	var lastErr error

	for idx, resp := range responses {
		if resp == nil {
			if errs[idx] != nil {
				lastErr = errs[idx]
			}
			continue
		}
		succeeded++
		if strings.TrimSpace(resp.Answer) != "" {
			answers = append(answers, resp.Answer)
		}
		for _, result := range resp.Results {
			if len(seen) >= s.minUnique {
				break
			}
			if _, dup := seen[result.URL]; dup {
				continue
			}
			seen[result.URL] = struct{}{}
			combined = append(combined, result)
		}
	}

	if succeeded == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, NewError("comprehensive_search", KindUpstream, "all topic searches failed", nil)
	}
	if len(combined) < s.minUnique {
		return nil, NewError("comprehensive_search", KindUpstream,
			fmt.Sprintf("could not find minimum %d unique results (got %d)", s.minUnique, len(combined)), nil)
	}

	return &CombinedResponse{
		Query:   query,
		Answer:  strings.Join(answers, "\n\n"),
		Results: combined,
		Topics:  names,
	}, nil
}

func normalizeRequest(req SearchRequest) (SearchRequest, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, NewValidationError("query must not be empty")
	}

	if req.MaxResults == 0 {
		req.MaxResults = DefaultMaxResults
	}
	if req.MaxResults < MinResults || req.MaxResults > MaxResults {
		return req, NewValidationError(fmt.Sprintf("max_results must be between %d and %d", MinResults, MaxResults))
	}

	switch req.SearchDepth {
	case "":
		req.SearchDepth = DepthBasic
	case DepthBasic, DepthAdvanced:
	default:
		return req, NewValidationError(fmt.Sprintf("invalid search_depth %q", req.SearchDepth))
	}

	switch req.Topic {
	case "":
		req.Topic = TopicGeneral
	case TopicGeneral, TopicNews, TopicFinance:
	default:
		return req, NewValidationError(fmt.Sprintf("invalid topic %q", req.Topic))
	}

	if req.Days < 0 {
		return req, NewValidationError("days must not be negative")
	}

	return req, nil
}

// cacheKey normalizes the fields that change the provider answer.
func cacheKey(req SearchRequest) string {
	return fmt.Sprintf("%s|%s|%s|%d|%d|%t|%t|%t",
		strings.ToLower(req.Query), req.Topic, req.SearchDepth,
		req.MaxResults, req.Days,
		req.IncludeAnswer, req.IncludeImages, req.IncludeRawContent)
}
