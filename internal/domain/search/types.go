package search

import "context"

// Depth selects how much work the provider spends on a query.
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

// Topic is the provider-side topic vertical. Tavily only understands these
// three; the richer research topics (business, politics, ...) are mapped onto
// them by TopicProfile.
type Topic string

const (
	TopicGeneral Topic = "general"
	TopicNews    Topic = "news"
	TopicFinance Topic = "finance"
)

const (
	// MinResults and MaxResults bound the max_results request parameter.
	MinResults = 1
	MaxResults = 20

	// DefaultMaxResults applies when the caller leaves max_results unset.
	DefaultMaxResults = 5
)

// SearchRequest describes a single provider query. It is created per tool
// invocation, consumed once and discarded.
type SearchRequest struct {
	Query             string `json:"query"`
	Topic             Topic  `json:"topic,omitempty"`
	SearchDepth       Depth  `json:"search_depth,omitempty"`
	MaxResults        int    `json:"max_results,omitempty"`
	Days              int    `json:"days,omitempty"` // freshness window, news topic only
	IncludeAnswer     bool   `json:"include_answer,omitempty"`
	IncludeImages     bool   `json:"include_images,omitempty"`
	IncludeRawContent bool   `json:"include_raw_content,omitempty"`
}

// SearchResult is a single provider hit, in provider order.
type SearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	RawContent    string  `json:"raw_content,omitempty"`
	Score         float64 `json:"score,omitempty"`
	PublishedDate string  `json:"published_date,omitempty"`
}

// SearchResponse is the parsed provider payload.
type SearchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer,omitempty"`
	Results      []SearchResult `json:"results"`
	Images       []string       `json:"images,omitempty"`
	ResponseTime float64        `json:"response_time,omitempty"`
}

// CombinedResponse aggregates per-topic searches for comprehensive_search.
type CombinedResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Results []SearchResult `json:"results"`
	Topics  []string       `json:"topics"`
}

// ExtractRequest asks the provider for the text content of a page.
type ExtractRequest struct {
	URL string `json:"url"`
}

// ExtractResponse carries extracted page text.
type ExtractResponse struct {
	URL      string         `json:"url"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Client is the single-attempt provider adapter. Retry, backoff and circuit
// breaking live in the infrastructure implementation, not behind this
// interface's contract per call.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)
}

// Gate bounds the number of concurrent outbound provider calls.
// Release must be called exactly once per successful Acquire.
type Gate interface {
	Acquire(ctx context.Context) error
	Release()
}

// Cache holds recent search responses for a short TTL. Implementations must
// be safe for concurrent use. A nil Cache disables caching.
type Cache interface {
	Get(key string) (*SearchResponse, bool)
	Set(key string, resp *SearchResponse)
}
