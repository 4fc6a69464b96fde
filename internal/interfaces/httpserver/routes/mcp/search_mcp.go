package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/metrics"
)

// Tool key constants
const (
	ToolKeyTavilySearch        = "tavily_search"
	ToolKeyComprehensiveSearch = "comprehensive_search"
	ToolKeyTavilyExtract       = "tavily_extract"
)

var toolDescriptions = map[string]string{
	ToolKeyTavilySearch:        "Search the web via the Tavily API. Supports topic (general/news/finance), search depth (basic/advanced), result limits, recency windows and optional AI answer, images and raw page content.",
	ToolKeyComprehensiveSearch: "Run one research query across multiple topic areas (business, news, finance, politics) in parallel, deduplicate sources and return a combined markdown report.",
	ToolKeyTavilyExtract:       "Fetch a single web page and return its readable text content.",
}

// TavilySearchArgs defines the arguments for the tavily_search tool
type TavilySearchArgs struct {
	Query             string `json:"query"`
	Topic             string `json:"topic,omitempty"`
	SearchDepth       string `json:"search_depth,omitempty"`
	MaxResults        int    `json:"max_results,omitempty"`
	Days              int    `json:"days,omitempty"`
	IncludeAnswer     *bool  `json:"include_answer,omitempty"`
	IncludeImages     bool   `json:"include_images,omitempty"`
	IncludeRawContent bool   `json:"include_raw_content,omitempty"`
}

// ComprehensiveSearchArgs defines the arguments for the comprehensive_search tool
type ComprehensiveSearchArgs struct {
	Query string `json:"query"`
}

// TavilyExtractArgs defines the arguments for the tavily_extract tool
type TavilyExtractArgs struct {
	URL string `json:"url"`
}

type searchToolPayload struct {
	Query        string  `json:"query"`
	Report       string  `json:"report"`
	ResultCount  int     `json:"result_count"`
	DroppedCount int     `json:"dropped_count"`
	ResponseTime float64 `json:"response_time,omitempty"`
	Error        string  `json:"error,omitempty"`
}

type comprehensiveToolPayload struct {
	Query        string   `json:"query"`
	Report       string   `json:"report"`
	Topics       []string `json:"topics"`
	ResultCount  int      `json:"result_count"`
	DroppedCount int      `json:"dropped_count"`
	Error        string   `json:"error,omitempty"`
}

type extractToolPayload struct {
	SourceURL string         `json:"source_url"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata"`
	FetchedAt string         `json:"fetched_at"`
	Error     string         `json:"error,omitempty"`
}

// SearchMCP handles MCP tool registration for the Tavily search tooling.
type SearchMCP struct {
	searchService       *domainsearch.Service
	maxSnippetChars     int
	maxExtractTextChars int
}

// SearchMCPConfig contains configuration for SearchMCP.
type SearchMCPConfig struct {
	MaxSnippetChars     int
	MaxExtractTextChars int
}

// NewSearchMCP creates a new search MCP handler.
func NewSearchMCP(searchService *domainsearch.Service, cfg SearchMCPConfig) *SearchMCP {
	maxSnippet := cfg.MaxSnippetChars
	if maxSnippet <= 0 {
		maxSnippet = 300
	}
	maxText := cfg.MaxExtractTextChars
	if maxText <= 0 {
		maxText = 50000
	}

	return &SearchMCP{
		searchService:       searchService,
		maxSnippetChars:     maxSnippet,
		maxExtractTextChars: maxText,
	}
}

// RegisterTools registers search tools with the MCP server
func (s *SearchMCP) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeyTavilySearch,
		Description: toolDescriptions[ToolKeyTavilySearch],
	}, s.handleTavilySearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeyComprehensiveSearch,
		Description: toolDescriptions[ToolKeyComprehensiveSearch],
	}, s.handleComprehensiveSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeyTavilyExtract,
		Description: toolDescriptions[ToolKeyTavilyExtract],
	}, s.handleTavilyExtract)
}

func (s *SearchMCP) handleTavilySearch(ctx context.Context, req *mcp.CallToolRequest, input TavilySearchArgs) (*mcp.CallToolResult, searchToolPayload, error) {
	startTime := time.Now()

	log.Info().
		Str("tool", ToolKeyTavilySearch).
		Str("query", input.Query).
		Str("topic", input.Topic).
		Str("search_depth", input.SearchDepth).
		Int("max_results", input.MaxResults).
		Msg("MCP tool call received")

	includeAnswer := true
	if input.IncludeAnswer != nil {
		includeAnswer = *input.IncludeAnswer
	}

	searchReq := domainsearch.SearchRequest{
		Query:             input.Query,
		Topic:             domainsearch.Topic(input.Topic),
		SearchDepth:       domainsearch.Depth(input.SearchDepth),
		MaxResults:        input.MaxResults,
		Days:              input.Days,
		IncludeAnswer:     includeAnswer,
		IncludeImages:     input.IncludeImages,
		IncludeRawContent: input.IncludeRawContent,
	}

	searchResp, err := s.searchService.Search(ctx, searchReq)
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolKeyTavilySearch).Str("query", input.Query).Msg("search service failed")
		metrics.RecordToolCall(ToolKeyTavilySearch, "error", time.Since(startTime).Seconds())
		payload := searchToolPayload{
			Query: input.Query,
			Error: err.Error(),
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			IsError: true,
		}, payload, nil
	}

	formatted := formatSearchResults(ToolKeyTavilySearch, input.Query, searchResp.Answer, searchResp.Results, searchResp.Images, FormatOptions{
		MaxSnippetChars:   s.maxSnippetChars,
		IncludeImages:     input.IncludeImages,
		IncludeRawContent: input.IncludeRawContent,
	})

	metrics.RecordToolCall(ToolKeyTavilySearch, "success", time.Since(startTime).Seconds())

	payload := searchToolPayload{
		Query:        input.Query,
		Report:       formatted.Markdown,
		ResultCount:  formatted.ResultCount,
		DroppedCount: formatted.DroppedCount,
		ResponseTime: searchResp.ResponseTime,
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatted.Markdown}},
	}, payload, nil
}

func (s *SearchMCP) handleComprehensiveSearch(ctx context.Context, req *mcp.CallToolRequest, input ComprehensiveSearchArgs) (*mcp.CallToolResult, comprehensiveToolPayload, error) {
	startTime := time.Now()

	log.Info().
		Str("tool", ToolKeyComprehensiveSearch).
		Str("query", input.Query).
		Msg("MCP tool call received")

	combined, err := s.searchService.ComprehensiveSearch(ctx, input.Query)
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolKeyComprehensiveSearch).Str("query", input.Query).Msg("comprehensive search failed")
		metrics.RecordToolCall(ToolKeyComprehensiveSearch, "error", time.Since(startTime).Seconds())
		payload := comprehensiveToolPayload{
			Query: input.Query,
			Error: err.Error(),
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error performing research: " + err.Error()}},
			IsError: true,
		}, payload, nil
	}

	formatted := formatSearchResults(ToolKeyComprehensiveSearch, input.Query, combined.Answer, combined.Results, nil, FormatOptions{
		MaxSnippetChars: s.maxSnippetChars,
	})

	metrics.RecordToolCall(ToolKeyComprehensiveSearch, "success", time.Since(startTime).Seconds())

	payload := comprehensiveToolPayload{
		Query:        input.Query,
		Report:       formatted.Markdown,
		Topics:       combined.Topics,
		ResultCount:  formatted.ResultCount,
		DroppedCount: formatted.DroppedCount,
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatted.Markdown}},
	}, payload, nil
}

func (s *SearchMCP) handleTavilyExtract(ctx context.Context, req *mcp.CallToolRequest, input TavilyExtractArgs) (*mcp.CallToolResult, extractToolPayload, error) {
	startTime := time.Now()

	log.Info().
		Str("tool", ToolKeyTavilyExtract).
		Str("url", input.URL).
		Msg("MCP tool call received")

	extractResp, err := s.searchService.Extract(ctx, domainsearch.ExtractRequest{URL: input.URL})
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolKeyTavilyExtract).Str("url", input.URL).Msg("extract service failed")
		metrics.RecordToolCall(ToolKeyTavilyExtract, "error", time.Since(startTime).Seconds())
		payload := extractToolPayload{
			SourceURL: input.URL,
			Metadata:  map[string]any{"error": err.Error()},
			FetchedAt: time.Now().UTC().Format(time.RFC3339),
			Error:     err.Error(),
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			IsError: true,
		}, payload, nil
	}

	text := extractResp.Text
	if len(text) > s.maxExtractTextChars {
		text = text[:s.maxExtractTextChars]
	}

	metrics.RecordToolCall(ToolKeyTavilyExtract, "success", time.Since(startTime).Seconds())

	payload := extractToolPayload{
		SourceURL: extractResp.URL,
		Text:      text,
		Metadata:  extractResp.Metadata,
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, payload, nil
}
