package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func chatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"1","object":"chat.completion","model":"test-model",
			"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`, reply)
	}))
}

func testDateParser(t *testing.T, baseURL string) *DateParser {
	t.Helper()
	emb := NewEmbedder(&Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
	return NewDateParser(emb.Client(), "test-model", zap.NewNop())
}

func TestExtractDates_WithFilter(t *testing.T) {
	server := chatServer(t, `{"has_time_filter": true, "start_date": "2026-08-01", "end_date": "2026-08-15"}`)
	defer server.Close()

	p := testDateParser(t, server.URL)
	start, end, ok, err := p.ExtractDates(context.Background(), "what happened in early august", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a time filter")
	}
	if start.Format(dateLayout) != "2026-08-01" || end.Format(dateLayout) != "2026-08-15" {
		t.Errorf("unexpected range: %v .. %v", start, end)
	}
}

func TestExtractDates_NoFilter(t *testing.T) {
	server := chatServer(t, `{"has_time_filter": false}`)
	defer server.Close()

	p := testDateParser(t, server.URL)
	_, _, ok, err := p.ExtractDates(context.Background(), "how do deploys work", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no time filter")
	}
}

func TestExtractDates_MalformedReply(t *testing.T) {
	server := chatServer(t, `sure! here is the answer you asked for`)
	defer server.Close()

	p := testDateParser(t, server.URL)
	_, _, _, err := p.ExtractDates(context.Background(), "last week", time.Now())
	if err == nil {
		t.Fatal("expected error on malformed reply")
	}
}

func TestExtractDates_BadDate(t *testing.T) {
	server := chatServer(t, `{"has_time_filter": true, "start_date": "August 1st", "end_date": "2026-08-15"}`)
	defer server.Close()

	p := testDateParser(t, server.URL)
	_, _, _, err := p.ExtractDates(context.Background(), "last week", time.Now())
	if err == nil {
		t.Fatal("expected error on unparseable date")
	}
}

func TestExtractDates_EndBeforeStart(t *testing.T) {
	server := chatServer(t, `{"has_time_filter": true, "start_date": "2026-08-15", "end_date": "2026-08-01"}`)
	defer server.Close()

	p := testDateParser(t, server.URL)
	_, _, _, err := p.ExtractDates(context.Background(), "last week", time.Now())
	if err == nil {
		t.Fatal("expected error on inverted range")
	}
}

func TestExtractDates_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := testDateParser(t, server.URL)
	_, _, _, err := p.ExtractDates(context.Background(), "last week", time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
}
