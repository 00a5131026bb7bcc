package constraint

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mellowtone/tunescout/plugin/ai"
	"github.com/mellowtone/tunescout/plugin/ai/timeout"
	"github.com/mellowtone/tunescout/server/song"
)

const extractPromptTemplate = `You are analyzing a request to modify a music playlist.
Here is the current playlist:
%s

User message: "%s"

Extract and return strict JSON:
{
  "exclude_artists": [],
  "exclude_decades": [],
  "exclude_genres": [],
  "exclude_moods": []
}

Only output JSON, nothing else.`

// Extractor converts modification requests into exclusion filters via an
// external structured-extraction service.
type Extractor struct {
	llm    ai.LLMService
	logger *slog.Logger
}

// NewExtractor creates a constraint extractor.
func NewExtractor(llm ai.LLMService, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{llm: llm, logger: logger}
}

// Extract derives an exclusion filter from the message, supplying the
// current playlist as context so exclusions can reference its contents.
//
// Malformed or non-JSON model output degrades to the zero Filter: for this
// feature "no changes applied" is a better user experience than an error,
// so extraction failures are logged and swallowed rather than surfaced.
func (e *Extractor) Extract(ctx context.Context, message string, playlist song.Playlist) Filter {
	ctx, cancel := context.WithTimeout(ctx, timeout.ExtractTimeout)
	defer cancel()

	playlistText := strings.Join(playlist.Labels(), "\n")
	prompt := fmt.Sprintf(extractPromptTemplate, playlistText, message)

	raw, err := e.llm.Chat(ctx, []ai.Message{ai.UserMessage(prompt)})
	if err != nil {
		e.logger.Warn("constraint extraction call failed, applying no constraints", "error", err)
		return Filter{}
	}

	filter, err := parseFilter(raw)
	if err != nil {
		e.logger.Warn("constraint extraction returned malformed JSON, applying no constraints",
			"error", err, "raw", truncate(raw, timeout.MaxTruncateLength))
		return Filter{}
	}
	return filter
}

// parseFilter parses model output into a Filter, tolerating markdown code
// fences and surrounding prose around the JSON object.
func parseFilter(raw string) (Filter, error) {
	jsonText, err := extractJSONObject(raw)
	if err != nil {
		return Filter{}, err
	}

	var f Filter
	if err := json.Unmarshal([]byte(jsonText), &f); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func extractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return s[start : end+1], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
