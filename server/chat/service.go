// Package chat implements the conversation orchestrator: it classifies each
// turn, dispatches to recommend / modify / download / fallback handling,
// updates session state and renders the reply.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mellowtone/tunescout/internal/observability"
	"github.com/mellowtone/tunescout/plugin/ai"
	"github.com/mellowtone/tunescout/plugin/ai/timeout"
	"github.com/mellowtone/tunescout/server/constraint"
	"github.com/mellowtone/tunescout/server/download"
	"github.com/mellowtone/tunescout/server/intent"
	"github.com/mellowtone/tunescout/server/playlist"
	"github.com/mellowtone/tunescout/server/retrieval"
	"github.com/mellowtone/tunescout/server/session"
	"github.com/mellowtone/tunescout/server/song"
)

// DefaultTopK is the playlist size policy for recommend and modify turns.
const DefaultTopK = 10

const (
	warnNoPlaylist    = "⚠️ No playlist to modify yet."
	warnNoStoredSongs = "⚠️ No songs stored for this session."
)

// Recommender is the retrieval contract the orchestrator depends on.
type Recommender interface {
	Recommend(ctx context.Context, query string, topK int, filters *retrieval.Filters) ([]song.Record, error)
}

// Reply is the outcome of one conversational turn.
type Reply struct {
	Text      string            `json:"reply"`
	Downloads []download.Result `json:"downloads,omitempty"`
}

// Service orchestrates conversational turns over per-session playlist state.
type Service struct {
	classifier *intent.Classifier
	extractor  *constraint.Extractor
	retriever  Recommender
	ops        *playlist.Engine
	sessions   *session.Store
	downloader download.Downloader
	llm        ai.LLMService
	logger     *slog.Logger
	topK       int
}

// Options configures a Service.
type Options struct {
	Classifier *intent.Classifier
	Extractor  *constraint.Extractor
	Retriever  Recommender
	Ops        *playlist.Engine
	Sessions   *session.Store
	Downloader download.Downloader
	LLM        ai.LLMService
	Logger     *slog.Logger
	TopK       int // defaults to DefaultTopK
}

// NewService creates the orchestrator. All collaborators are injected
// explicitly; the service holds no process-global state.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{
		classifier: opts.Classifier,
		extractor:  opts.Extractor,
		retriever:  opts.Retriever,
		ops:        opts.Ops,
		sessions:   opts.Sessions,
		downloader: opts.Downloader,
		llm:        opts.LLM,
		logger:     logger,
		topK:       topK,
	}
}

// Ask handles one conversational turn for the session. A turn either
// completes or fails atomically: on error no session state has changed.
func (s *Service) Ask(ctx context.Context, message, sessionID string) (*Reply, error) {
	req := observability.NewRequestContext(s.logger, sessionID)
	logger := req.With(slog.Int(observability.LogFieldMessageLen, len(message)))

	label := s.classifier.Classify(ctx, message)
	logger = logger.With(slog.String(observability.LogFieldIntent, string(label)))

	var reply *Reply
	var err error
	switch label {
	case intent.IntentRecommendation:
		reply, err = s.handleRecommend(ctx, message, sessionID)
	case intent.IntentModifyPlaylist:
		reply, err = s.handleModify(ctx, message, sessionID)
	case intent.IntentDownload:
		reply, err = s.handleDownload(ctx, sessionID)
	default:
		reply, err = s.handleChat(ctx, message, sessionID)
	}

	if err != nil {
		logger.Error("turn failed",
			slog.Int64(observability.LogFieldDuration, req.ElapsedMs()),
			"error", err)
		return nil, err
	}
	logger.Info("turn completed",
		slog.Int64(observability.LogFieldDuration, req.ElapsedMs()))
	return reply, nil
}

// handleRecommend builds a fresh playlist from the raw message, replacing
// the session's playlist and song memory wholesale.
func (s *Service) handleRecommend(ctx context.Context, message, sessionID string) (*Reply, error) {
	var text string
	err := s.sessions.Update(sessionID, func(sess *session.Session) error {
		recs, err := s.retriever.Recommend(ctx, message, s.topK, deriveFilters(message))
		if err != nil {
			return err
		}
		p := song.Playlist(recs)
		sess.Playlist = p
		sess.SongMemory = p.Labels()
		text = song.FormatPlaylist(p)
		sess.AppendHistory(message, text)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Text: text}, nil
}

// handleModify applies the extracted exclusion filter to the current
// playlist and refills it back to the target size.
func (s *Service) handleModify(ctx context.Context, message, sessionID string) (*Reply, error) {
	var text string
	err := s.sessions.Update(sessionID, func(sess *session.Session) error {
		if len(sess.Playlist) == 0 {
			text = warnNoPlaylist
			return nil
		}

		filter := s.extractor.Extract(ctx, message, sess.Playlist)

		filtered := make(song.Playlist, 0, len(sess.Playlist))
		for _, r := range sess.Playlist {
			if !filter.Matches(r) {
				filtered = append(filtered, r)
			}
		}

		updated, err := s.ops.RefillToTarget(ctx, filtered, filter, s.topK)
		if err != nil {
			return err
		}

		sess.Playlist = updated
		sess.SongMemory = updated.Labels()
		text = song.FormatPlaylist(updated)
		sess.AppendHistory(message, text)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Text: text}, nil
}

// handleDownload hands the session's song memory to the download bridge and
// reports per-item results.
func (s *Service) handleDownload(ctx context.Context, sessionID string) (*Reply, error) {
	sess := s.sessions.Get(sessionID)
	if len(sess.SongMemory) == 0 {
		return &Reply{Text: warnNoStoredSongs}, nil
	}

	results := s.downloader.DownloadBatch(ctx, sess.SongMemory)
	return &Reply{
		Text:      formatDownloadResults(results),
		Downloads: results,
	}, nil
}

// handleChat is the generic conversational fallback for turns outside the
// playlist flows.
func (s *Service) handleChat(ctx context.Context, message, sessionID string) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.ChatTimeout)
	defer cancel()

	sess := s.sessions.Get(sessionID)
	messages := ai.FormatMessages(
		"You are a friendly music assistant. Keep replies short and conversational.",
		message, sess.History)

	text, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	_ = s.sessions.Update(sessionID, func(sess *session.Session) error {
		sess.AppendHistory(message, text)
		return nil
	})
	return &Reply{Text: text}, nil
}

// DownloadStored downloads the session's stored songs, independent of Ask.
// An empty result means nothing is stored for the session.
func (s *Service) DownloadStored(ctx context.Context, sessionID string) []download.Result {
	sess := s.sessions.Get(sessionID)
	if len(sess.SongMemory) == 0 {
		return nil
	}
	return s.downloader.DownloadBatch(ctx, sess.SongMemory)
}

func formatDownloadResults(results []download.Result) string {
	lines := make([]string, 0, len(results)+1)
	lines = append(lines, "✅ Downloaded songs:")
	for _, r := range results {
		if r.Status == download.StatusOK {
			lines = append(lines, r.Path)
			continue
		}
		lines = append(lines, fmt.Sprintf("Error downloading '%s': %s", r.Query, r.Err))
	}
	return strings.Join(lines, "\n")
}
