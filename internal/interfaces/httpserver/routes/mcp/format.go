package mcp

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/metrics"
)

// FormatOptions controls which optional sections the renderer emits.
type FormatOptions struct {
	MaxSnippetChars   int
	IncludeImages     bool
	IncludeRawContent bool
}

// formattedResults carries the rendered markdown plus bookkeeping for the
// tool payload.
type formattedResults struct {
	Markdown     string
	ResultCount  int
	DroppedCount int
}

// formatSearchResults renders provider results as markdown. Provider ordering
// is preserved. Entries missing a title or URL are dropped rather than
// failing the whole response; the dropped count is reported back.
func formatSearchResults(toolName, query, answer string, results []domainsearch.SearchResult, images []string, opts FormatOptions) formattedResults {
	maxSnippet := opts.MaxSnippetChars
	if maxSnippet <= 0 {
		maxSnippet = 300
	}

	var parts []string
	parts = append(parts, "## Research Results\n")

	if strings.TrimSpace(answer) != "" {
		parts = append(parts, fmt.Sprintf("### Summary\n%s\n", answer))
	}

	parts = append(parts, "### Detailed Sources")

	dropped := 0
	idx := 0
	for _, result := range results {
		if strings.TrimSpace(result.Title) == "" || strings.TrimSpace(result.URL) == "" {
			dropped++
			continue
		}
		idx++

		entry := fmt.Sprintf("%d. [%s](%s)\n   - %s\n",
			idx, result.Title, result.URL, truncateSnippet(result.Content, maxSnippet))
		if result.PublishedDate != "" {
			entry += fmt.Sprintf("   - Published: %s\n", result.PublishedDate)
		}
		if opts.IncludeRawContent && strings.TrimSpace(result.RawContent) != "" {
			entry += fmt.Sprintf("   - Raw content: %s\n", truncateSnippet(result.RawContent, maxSnippet))
		}
		parts = append(parts, entry)
	}

	if opts.IncludeImages && len(images) > 0 {
		parts = append(parts, "### Images")
		for _, image := range images {
			if strings.TrimSpace(image) == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("- %s", image))
		}
	}

	if dropped > 0 {
		log.Warn().
			Str("tool", toolName).
			Str("query", query).
			Int("dropped", dropped).
			Msg("dropped malformed result entries")
		metrics.RecordDroppedResults(toolName, dropped)
	}

	return formattedResults{
		Markdown:     strings.Join(parts, "\n"),
		ResultCount:  idx,
		DroppedCount: dropped,
	}
}

func truncateSnippet(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	// Cut on a rune boundary so multibyte snippets stay valid UTF-8
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
