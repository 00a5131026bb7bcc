// Package timeout defines centralized timeout constants for engine operations.
package timeout

import "time"

const (
	// ClassifyTimeout is the timeout for intent classification calls.
	ClassifyTimeout = 10 * time.Second

	// ExtractTimeout is the timeout for constraint extraction calls.
	ExtractTimeout = 15 * time.Second

	// ChatTimeout is the timeout for generic conversational replies.
	ChatTimeout = 60 * time.Second

	// RetrievalTimeout is the timeout for similarity-search calls.
	RetrievalTimeout = 20 * time.Second

	// EmbeddingTimeout is the timeout for embedding generation.
	EmbeddingTimeout = 30 * time.Second

	// DownloadItemTimeout is the timeout for a single download item.
	DownloadItemTimeout = 3 * time.Minute

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
