package tavily_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	domainsearch "tavily-mcp-server/internal/domain/search"
	"tavily-mcp-server/internal/infrastructure/tavily"
)

func testClientConfig(searchURL, extractURL string) tavily.ClientConfig {
	return tavily.ClientConfig{
		APIKey:          "test-key",
		SearchEndpoint:  searchURL,
		ExtractEndpoint: extractURL,
		HTTPTimeout:     2 * time.Second,

		RetryMaxAttempts:   3,
		RetryInitialDelay:  time.Millisecond,
		RetryMaxDelay:      2 * time.Millisecond,
		RetryBackoffFactor: 2.0,

		CBEnabled: false,
	}
}

func TestClientSearchSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"query":  "climate policy",
			"answer": "the answer",
			"results": []map[string]any{
				{"title": "First", "url": "https://example.com/1", "content": "snippet one", "score": 0.93},
				{"title": "Second", "url": "https://example.com/2", "content": "snippet two", "score": 0.81},
			},
			"response_time": 0.42,
		})
	}))
	defer srv.Close()

	client := tavily.NewClient(testClientConfig(srv.URL, srv.URL))

	resp, err := client.Search(context.Background(), domainsearch.SearchRequest{
		Query:         "climate policy",
		Topic:         domainsearch.TopicNews,
		SearchDepth:   domainsearch.DepthBasic,
		MaxResults:    5,
		IncludeAnswer: true,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer key", gotAuth)
	}
	if gotBody["query"] != "climate policy" {
		t.Errorf("request query = %v", gotBody["query"])
	}
	if gotBody["topic"] != "news" {
		t.Errorf("request topic = %v", gotBody["topic"])
	}
	if gotBody["search_depth"] != "basic" {
		t.Errorf("request search_depth = %v", gotBody["search_depth"])
	}
	if gotBody["max_results"] != float64(5) {
		t.Errorf("request max_results = %v", gotBody["max_results"])
	}

	if resp.Answer != "the answer" {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].Title != "First" || resp.Results[1].URL != "https://example.com/2" {
		t.Errorf("result ordering not preserved: %+v", resp.Results)
	}
	if resp.ResponseTime != 0.42 {
		t.Errorf("ResponseTime = %v", resp.ResponseTime)
	}
}

func TestClientSearchAuthFailureNoRetry(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := tavily.NewClient(testClientConfig(srv.URL, srv.URL))

	_, err := client.Search(context.Background(), domainsearch.SearchRequest{Query: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := domainsearch.KindOf(err); kind != domainsearch.KindAuthentication {
		t.Errorf("KindOf() = %v, want authentication", kind)
	}
	// Authentication failures must observe exactly one attempt
	if n := requests.Load(); n != 1 {
		t.Errorf("provider saw %d requests, want 1", n)
	}
}

func TestClientSearchRetriesTransientFailures(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n <= 2 {
			http.Error(w, "upstream hiccup", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"query":   "q",
			"results": []map[string]any{{"title": "T", "url": "https://example.com", "content": "c"}},
		})
	}))
	defer srv.Close()

	client := tavily.NewClient(testClientConfig(srv.URL, srv.URL))

	resp, err := client.Search(context.Background(), domainsearch.SearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("Search() error = %v, want success on third attempt", err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("got %d results, want 1", len(resp.Results))
	}
	if n := requests.Load(); n != 3 {
		t.Errorf("provider saw %d requests, want 3", n)
	}
}

func TestClientSearchStatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantKind  domainsearch.ErrorKind
		wantCalls int64
	}{
		{"rate limited retries until exhaustion", http.StatusTooManyRequests, domainsearch.KindRateLimited, 3},
		{"server error retries until exhaustion", http.StatusBadGateway, domainsearch.KindUpstream, 3},
		{"bad request fails fast", http.StatusUnprocessableEntity, domainsearch.KindInvalidRequest, 1},
		{"forbidden fails fast", http.StatusForbidden, domainsearch.KindAuthentication, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int64
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			client := tavily.NewClient(testClientConfig(srv.URL, srv.URL))

			_, err := client.Search(context.Background(), domainsearch.SearchRequest{Query: "q"})
			if err == nil {
				t.Fatal("expected error")
			}
			if kind := domainsearch.KindOf(err); kind != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v", kind, tt.wantKind)
			}
			if n := requests.Load(); n != tt.wantCalls {
				t.Errorf("provider saw %d requests, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestClientCircuitBreakerRejectsWhenOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testClientConfig(srv.URL, srv.URL)
	cfg.CBEnabled = true
	cfg.CBFailureThreshold = 1
	cfg.CBTimeout = time.Minute
	client := tavily.NewClient(cfg)

	if _, err := client.Search(context.Background(), domainsearch.SearchRequest{Query: "q"}); err == nil {
		t.Fatal("expected upstream error")
	}

	_, err := client.Search(context.Background(), domainsearch.SearchRequest{Query: "q"})
	if err == nil {
		t.Fatal("expected breaker rejection")
	}
	if kind := domainsearch.KindOf(err); kind != domainsearch.KindUnavailable {
		t.Errorf("KindOf() = %v, want unavailable while breaker is open", kind)
	}
}

func TestClientExtract(t *testing.T) {
	t.Run("provider extract", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"url": "https://example.com/page", "raw_content": "full page text"},
				},
			})
		}))
		defer srv.Close()

		client := tavily.NewClient(testClientConfig(srv.URL, srv.URL))

		resp, err := client.Extract(context.Background(), domainsearch.ExtractRequest{URL: "https://example.com/page"})
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if resp.Text != "full page text" {
			t.Errorf("Text = %q", resp.Text)
		}
	})

	t.Run("falls back to direct fetch", func(t *testing.T) {
		page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><head><style>body{}</style></head><body><h1>Headline</h1><p>Visible text.</p><script>ignored()</script></body></html>"))
		}))
		defer page.Close()

		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "cannot extract", http.StatusBadGateway)
		}))
		defer provider.Close()

		client := tavily.NewClient(testClientConfig(provider.URL, provider.URL))

		resp, err := client.Extract(context.Background(), domainsearch.ExtractRequest{URL: page.URL})
		if err != nil {
			t.Fatalf("Extract() fallback error = %v", err)
		}
		if resp.Text == "" {
			t.Fatal("expected fallback text")
		}
		if want := "Headline Visible text."; resp.Text != want {
			t.Errorf("Text = %q, want %q (scripts and styles stripped)", resp.Text, want)
		}
	})

	t.Run("auth failure does not fall back", func(t *testing.T) {
		var pageHits atomic.Int64
		page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pageHits.Add(1)
		}))
		defer page.Close()

		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad key", http.StatusUnauthorized)
		}))
		defer provider.Close()

		client := tavily.NewClient(testClientConfig(provider.URL, provider.URL))

		_, err := client.Extract(context.Background(), domainsearch.ExtractRequest{URL: page.URL})
		if err == nil {
			t.Fatal("expected error")
		}
		if kind := domainsearch.KindOf(err); kind != domainsearch.KindAuthentication {
			t.Errorf("KindOf() = %v, want authentication", kind)
		}
		if n := pageHits.Load(); n != 0 {
			t.Errorf("fallback fetched the page %d times, want 0", n)
		}
	})
}
