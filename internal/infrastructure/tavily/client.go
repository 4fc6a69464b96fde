package tavily

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/metrics"
)

const (
	searchEndpointDefault  = "https://api.tavily.com/search"
	extractEndpointDefault = "https://api.tavily.com/extract"

	opSearch  = "tavily_search"
	opExtract = "tavily_extract"
)

// ClientConfig captures the knobs exposed to operators for the provider client.
type ClientConfig struct {
	APIKey          string
	SearchEndpoint  string
	ExtractEndpoint string

	// HTTP Client Settings
	HTTPTimeout     time.Duration
	MaxConnsPerHost int
	MaxIdleConns    int
	IdleConnTimeout time.Duration

	// Retry Settings
	RetryMaxAttempts   int
	RetryInitialDelay  time.Duration
	RetryMaxDelay      time.Duration
	RetryBackoffFactor float64

	// Circuit Breaker Settings
	CBEnabled          bool
	CBFailureThreshold int
	CBSuccessThreshold int
	CBTimeout          time.Duration
	CBMaxHalfOpen      int
}

// Client is the single-attempt-per-call Tavily adapter. Retries wrap the
// attempts here via WithRetry, and the breaker guards the provider as a whole.
type Client struct {
	cfg            ClientConfig
	httpClient     *resty.Client
	fallbackClient *resty.Client
	retryConfig    RetryConfig
	breaker        *CircuitBreaker
}

var _ domainsearch.Client = (*Client)(nil)

// NewClient wires the HTTP clients and resiliency policies.
func NewClient(cfg ClientConfig) *Client {
	if strings.TrimSpace(cfg.SearchEndpoint) == "" {
		cfg.SearchEndpoint = searchEndpointDefault
	}
	if strings.TrimSpace(cfg.ExtractEndpoint) == "" {
		cfg.ExtractEndpoint = extractEndpointDefault
	}

	httpTimeout := 30 * time.Second
	if cfg.HTTPTimeout > 0 {
		httpTimeout = cfg.HTTPTimeout
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}
	maxConnsPerHost := cfg.MaxConnsPerHost
	if maxConnsPerHost == 0 {
		maxConnsPerHost = 50
	}
	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     maxConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	httpClient := resty.New().
		SetHeader("User-Agent", "Tavily-MCP-Server/1.0").
		SetTimeout(httpTimeout).
		SetRetryCount(0).
		SetTransport(transport)

	// Fallback client with browser-like headers for direct page fetches
	fallbackClient := resty.New().
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetTimeout(httpTimeout).
		SetRetryCount(0)

	retryConfig := DefaultRetryConfig()
	if cfg.RetryMaxAttempts > 0 {
		retryConfig.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryInitialDelay > 0 {
		retryConfig.InitialDelay = cfg.RetryInitialDelay
	}
	if cfg.RetryMaxDelay > 0 {
		retryConfig.MaxDelay = cfg.RetryMaxDelay
	}
	if cfg.RetryBackoffFactor > 0 {
		retryConfig.BackoffFactor = cfg.RetryBackoffFactor
	}

	cbConfig := DefaultCircuitBreakerConfig()
	cbConfig.Enabled = cfg.CBEnabled
	if cfg.CBFailureThreshold > 0 {
		cbConfig.FailureThreshold = cfg.CBFailureThreshold
	}
	if cfg.CBSuccessThreshold > 0 {
		cbConfig.SuccessThreshold = cfg.CBSuccessThreshold
	}
	if cfg.CBTimeout > 0 {
		cbConfig.Timeout = cfg.CBTimeout
	}
	if cfg.CBMaxHalfOpen > 0 {
		cbConfig.MaxHalfOpenCalls = cfg.CBMaxHalfOpen
	}

	return &Client{
		cfg:            cfg,
		httpClient:     httpClient,
		fallbackClient: fallbackClient,
		retryConfig:    retryConfig,
		breaker:        NewCircuitBreaker(cbConfig),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

// Search runs the provider query with retry, backoff and circuit breaking.
func (c *Client) Search(ctx context.Context, req domainsearch.SearchRequest) (*domainsearch.SearchResponse, error) {
	if !c.breaker.Allow(opSearch) {
		log.Error().Str("operation", opSearch).Msg("circuit breaker is open, skipping")
		return nil, domainsearch.NewError(opSearch, domainsearch.KindUnavailable, "circuit breaker is open", nil)
	}

	startTime := time.Now()
	defer func() {
		metrics.RecordProviderLatency(opSearch, time.Since(startTime).Seconds())
	}()

	result, err := WithRetry(ctx, c.retryConfig, opSearch, func() (*domainsearch.SearchResponse, error) {
		return c.doSearch(ctx, req)
	})

	c.breaker.RecordResult(opSearch, err)

	if err != nil {
		log.Error().Err(err).Str("operation", opSearch).Str("query", req.Query).Msg("search failed after retries")
		return nil, err
	}
	return result, nil
}

// Extract fetches page text via the provider, with a direct HTTP fallback
// when the provider cannot serve the page.
func (c *Client) Extract(ctx context.Context, req domainsearch.ExtractRequest) (*domainsearch.ExtractResponse, error) {
	if !c.breaker.Allow(opExtract) {
		log.Error().Str("operation", opExtract).Msg("circuit breaker is open, skipping")
		return nil, domainsearch.NewError(opExtract, domainsearch.KindUnavailable, "circuit breaker is open", nil)
	}

	startTime := time.Now()
	defer func() {
		metrics.RecordProviderLatency(opExtract, time.Since(startTime).Seconds())
	}()

	result, err := WithRetry(ctx, c.retryConfig, opExtract, func() (*domainsearch.ExtractResponse, error) {
		return c.doExtract(ctx, req)
	})

	c.breaker.RecordResult(opExtract, err)

	if err == nil {
		return result, nil
	}

	if domainsearch.KindOf(err) == domainsearch.KindAuthentication {
		return nil, err
	}

	log.Warn().Err(err).Str("url", req.URL).Msg("provider extract failed, trying direct fetch")
	fallback, fbErr := c.fetchDirect(ctx, req.URL)
	if fbErr != nil {
		log.Error().Err(fbErr).Str("url", req.URL).Msg("direct fetch fallback failed")
		return nil, err
	}
	return fallback, nil
}

func (c *Client) doSearch(ctx context.Context, req domainsearch.SearchRequest) (*domainsearch.SearchResponse, error) {
	body := searchRequestBody{
		Query:             req.Query,
		Topic:             string(req.Topic),
		SearchDepth:       string(req.SearchDepth),
		MaxResults:        req.MaxResults,
		Days:              req.Days,
		IncludeAnswer:     req.IncludeAnswer,
		IncludeImages:     req.IncludeImages,
		IncludeRawContent: req.IncludeRawContent,
	}

	var res searchResponseBody
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&res).
		Post(c.cfg.SearchEndpoint)

	if err != nil {
		return nil, classifyTransportError(opSearch, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("operation", opSearch).Str("response", resp.String()).Msg("Tavily search API error")
		return nil, classifyStatus(opSearch, resp.StatusCode(), resp.String())
	}

	out := &domainsearch.SearchResponse{
		Query:        res.Query,
		Answer:       res.Answer,
		Results:      make([]domainsearch.SearchResult, 0, len(res.Results)),
		Images:       res.Images,
		ResponseTime: res.ResponseTime,
	}
	for _, item := range res.Results {
		out.Results = append(out.Results, domainsearch.SearchResult{
			Title:         item.Title,
			URL:           item.URL,
			Content:       item.Content,
			RawContent:    item.RawContent,
			Score:         item.Score,
			PublishedDate: item.PublishedDate,
		})
	}
	return out, nil
}

func (c *Client) doExtract(ctx context.Context, req domainsearch.ExtractRequest) (*domainsearch.ExtractResponse, error) {
	var res extractResponseBody
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(extractRequestBody{URLs: []string{req.URL}}).
		SetResult(&res).
		Post(c.cfg.ExtractEndpoint)

	if err != nil {
		return nil, classifyTransportError(opExtract, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("operation", opExtract).Str("response", resp.String()).Msg("Tavily extract API error")
		return nil, classifyStatus(opExtract, resp.StatusCode(), resp.String())
	}

	if len(res.Results) == 0 {
		return nil, domainsearch.NewError(opExtract, domainsearch.KindUpstream, "extract returned no results", nil)
	}

	text := firstNonEmpty(res.Results[0].RawContent, res.Results[0].Content)
	return &domainsearch.ExtractResponse{
		URL:  req.URL,
		Text: text,
		Metadata: map[string]any{
			"source":   req.URL,
			"provider": "tavily",
		},
	}, nil
}

func (c *Client) fetchDirect(ctx context.Context, url string) (*domainsearch.ExtractResponse, error) {
	resp, err := c.fallbackClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, classifyTransportError(opExtract, err)
	}
	if resp.IsError() {
		return nil, classifyStatus(opExtract, resp.StatusCode(), resp.Status())
	}

	bodyBytes := resp.Body()
	text := extractVisibleText(bodyBytes)
	if text == "" {
		text = string(bodyBytes)
	}

	return &domainsearch.ExtractResponse{
		URL:  url,
		Text: text,
		Metadata: map[string]any{
			"source":        url,
			"contentType":   resp.Header().Get("Content-Type"),
			"fallback_mode": true,
		},
	}, nil
}

// classifyTransportError maps connection-level failures into the typed taxonomy.
func classifyTransportError(op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domainsearch.NewError(op, domainsearch.KindTimeout, "request aborted", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return domainsearch.NewError(op, domainsearch.KindTimeout, "request timed out", err)
	default:
		return domainsearch.NewError(op, domainsearch.KindNetwork, "request failed", err)
	}
}

// classifyStatus maps upstream HTTP statuses into the typed taxonomy.
func classifyStatus(op string, status int, body string) error {
	body = truncateBody(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domainsearch.NewStatusError(op, domainsearch.KindAuthentication, status, body)
	case status == http.StatusTooManyRequests:
		return domainsearch.NewStatusError(op, domainsearch.KindRateLimited, status, body)
	case status == http.StatusRequestTimeout:
		return domainsearch.NewStatusError(op, domainsearch.KindTimeout, status, body)
	case status >= 500:
		return domainsearch.NewStatusError(op, domainsearch.KindUpstream, status, body)
	default:
		return domainsearch.NewStatusError(op, domainsearch.KindInvalidRequest, status, body)
	}
}

func truncateBody(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 512 {
		return body[:512]
	}
	return body
}

// --- Wire types ---

type searchRequestBody struct {
	Query             string `json:"query"`
	Topic             string `json:"topic,omitempty"`
	SearchDepth       string `json:"search_depth,omitempty"`
	MaxResults        int    `json:"max_results,omitempty"`
	Days              int    `json:"days,omitempty"`
	IncludeAnswer     bool   `json:"include_answer,omitempty"`
	IncludeImages     bool   `json:"include_images,omitempty"`
	IncludeRawContent bool   `json:"include_raw_content,omitempty"`
}

type searchResponseBody struct {
	Query        string             `json:"query"`
	Answer       string             `json:"answer"`
	Images       []string           `json:"images"`
	Results      []searchResultBody `json:"results"`
	ResponseTime float64            `json:"response_time"`
}

type searchResultBody struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	RawContent    string  `json:"raw_content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

type extractRequestBody struct {
	URLs []string `json:"urls"`
}

type extractResponseBody struct {
	Results []extractResultBody `json:"results"`
}

type extractResultBody struct {
	URL        string `json:"url"`
	Content    string `json:"content"`
	RawContent string `json:"raw_content"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func extractVisibleText(htmlBytes []byte) string {
	doc, err := html.Parse(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return ""
	}

	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			val := strings.TrimSpace(n.Data)
			if val != "" {
				if builder.Len() > 0 {
					builder.WriteString(" ")
				}
				builder.WriteString(val)
			}
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return builder.String()
}
