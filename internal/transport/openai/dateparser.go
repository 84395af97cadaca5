package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

const dateSystemPrompt = `You extract time filters from search queries.
Today's date is %s.
Decide whether the query restricts results to a time period (e.g. "last week",
"in March", "yesterday", "since 2024"). Reply with ONLY one of these JSON objects
and nothing else:
{"has_time_filter": true, "start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD"}
{"has_time_filter": false}`

// DateParser asks a chat model whether a query carries a time filter.
// Implements the extractor consumed by the temporal interpreter.
type DateParser struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewDateParser creates a date extractor on an existing API client.
func NewDateParser(client *openai.Client, model string, logger *zap.Logger) *DateParser {
	return &DateParser{client: client, model: model, logger: logger}
}

type dateReply struct {
	HasTimeFilter bool   `json:"has_time_filter"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
}

// ExtractDates returns the calendar days a query is bounded by.
// ok is false when the model decides the query has no time filter.
// Any reply outside the strict JSON contract is an error; callers fall back.
func (p *DateParser) ExtractDates(ctx context.Context, query string, now time.Time) (
	start, end time.Time, ok bool, err error,
) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(dateSystemPrompt, now.UTC().Format(dateLayout)),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: query,
			},
		},
	})
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("date extraction request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return time.Time{}, time.Time{}, false, fmt.Errorf("date extraction: empty response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	var reply dateReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("date extraction: malformed reply %q: %w", content, err)
	}

	if !reply.HasTimeFilter {
		return time.Time{}, time.Time{}, false, nil
	}

	start, err = time.ParseInLocation(dateLayout, reply.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("date extraction: bad start_date %q: %w", reply.StartDate, err)
	}
	end, err = time.ParseInLocation(dateLayout, reply.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("date extraction: bad end_date %q: %w", reply.EndDate, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false, fmt.Errorf("date extraction: end %s before start %s", reply.EndDate, reply.StartDate)
	}

	return start, end, true, nil
}
