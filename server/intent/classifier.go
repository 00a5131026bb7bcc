// Package intent classifies raw conversational turns into the fixed intent
// set the orchestrator dispatches on.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mellowtone/tunescout/plugin/ai"
	"github.com/mellowtone/tunescout/plugin/ai/timeout"
)

// Intent represents the type of user intent.
type Intent string

const (
	IntentRecommendation Intent = "recommendation"
	IntentModifyPlaylist Intent = "modify_playlist"
	IntentDownload       Intent = "download"
	IntentOther          Intent = "other"
)

// Valid reports whether the intent is a member of the fixed label set.
func (i Intent) Valid() bool {
	switch i {
	case IntentRecommendation, IntentModifyPlaylist, IntentDownload, IntentOther:
		return true
	}
	return false
}

const classifyPromptTemplate = `Classify the user's intent into one of these categories:
- recommendation
- modify_playlist
- download
- other

User message: "%s"
Respond with only one word: recommendation, modify_playlist, download, or other.`

// Classifier determines user intent via an external text-classification
// service constrained to a fixed label set.
type Classifier struct {
	llm    ai.LLMService
	logger *slog.Logger
}

// NewClassifier creates an intent classifier.
func NewClassifier(llm ai.LLMService, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{llm: llm, logger: logger}
}

// Classify categorizes a message into the intent label set.
//
// The returned label is validated against the enum; a response outside the
// set degrades to IntentOther so the orchestrator falls back to generic
// conversation instead of propagating an arbitrary string.
func (c *Classifier) Classify(ctx context.Context, message string) Intent {
	ctx, cancel := context.WithTimeout(ctx, timeout.ClassifyTimeout)
	defer cancel()

	prompt := fmt.Sprintf(classifyPromptTemplate, message)
	raw, err := c.llm.Chat(ctx, []ai.Message{ai.UserMessage(prompt)})
	if err != nil {
		c.logger.Warn("intent classification call failed, falling back to other", "error", err)
		return IntentOther
	}

	label := Intent(strings.ToLower(strings.TrimSpace(raw)))
	if !label.Valid() {
		c.logger.Warn("intent classification returned an unknown label, falling back to other",
			"label", truncate(string(label), timeout.MaxTruncateLength))
		return IntentOther
	}
	return label
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
