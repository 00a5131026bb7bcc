package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mellowtone/tunescout/internal/errors"
	"github.com/mellowtone/tunescout/plugin/ai"
	"github.com/mellowtone/tunescout/server/constraint"
	"github.com/mellowtone/tunescout/server/download"
	"github.com/mellowtone/tunescout/server/intent"
	"github.com/mellowtone/tunescout/server/playlist"
	"github.com/mellowtone/tunescout/server/retrieval"
	"github.com/mellowtone/tunescout/server/session"
	"github.com/mellowtone/tunescout/server/song"
)

// stubRetriever mimics the retrieval engine's filter-then-fallback contract
// for a fixed candidate set.
type stubRetriever struct {
	mu    sync.Mutex
	songs []song.Record
	err   error
	calls int
}

func (s *stubRetriever) Recommend(_ context.Context, _ string, topK int, filters *retrieval.Filters) ([]song.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var filtered []song.Record
	if filters != nil && filters.Decade != "" {
		for _, r := range s.songs {
			if r.Decade == filters.Decade {
				filtered = append(filtered, r)
			}
		}
	}
	if len(filtered) == 0 {
		filtered = s.songs // fallback to the unfiltered set
	}
	if topK > len(filtered) {
		topK = len(filtered)
	}
	return append([]song.Record(nil), filtered[:topK]...), nil
}

func (s *stubRetriever) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fixture struct {
	svc        *Service
	retriever  *stubRetriever
	sessions   *session.Store
	downloader *download.MockDownloader
	classifier *ai.MockLLMService
	extractor  *ai.MockLLMService
	chatLLM    *ai.MockLLMService
}

func newFixture(t *testing.T, songs []song.Record) *fixture {
	t.Helper()

	retriever := &stubRetriever{songs: songs}
	classifierLLM := ai.NewMockLLMService("other")
	extractorLLM := ai.NewMockLLMService("{}")
	chatLLM := ai.NewMockLLMService("hello there")
	sessions := session.NewStore()
	downloader := download.NewMockDownloader()

	ops := playlist.NewEngine(playlist.RecommenderFunc(
		func(ctx context.Context, query string, topK int) ([]song.Record, error) {
			return retriever.Recommend(ctx, query, topK, nil)
		}), nil)

	svc := NewService(Options{
		Classifier: intent.NewClassifier(classifierLLM, nil),
		Extractor:  constraint.NewExtractor(extractorLLM, nil),
		Retriever:  retriever,
		Ops:        ops,
		Sessions:   sessions,
		Downloader: downloader,
		LLM:        chatLLM,
	})

	return &fixture{
		svc:        svc,
		retriever:  retriever,
		sessions:   sessions,
		downloader: downloader,
		classifier: classifierLLM,
		extractor:  extractorLLM,
		chatLLM:    chatLLM,
	}
}

func corpus() []song.Record {
	return []song.Record{
		{Artist: "Queen", Title: "Bohemian Rhapsody", Decade: "1970s", Genre: "rock", Mood: "epic"},
		{Artist: "AC/DC", Title: "Thunderstruck", Decade: "1990s", Genre: "hard rock", Mood: "energetic"},
	}
}

func TestAsk_RecommendationEndToEnd(t *testing.T) {
	f := newFixture(t, corpus())
	f.classifier.Replies = []string{"recommendation"}

	reply, err := f.svc.Ask(context.Background(), "I want 80s rock songs", "s1")
	require.NoError(t, err)

	// No corpus entry is from the 1980s: the derived decade filter falls
	// back to the unfiltered candidate set.
	assert.Equal(t, "1. Queen – Bohemian Rhapsody (1970s)\n2. AC/DC – Thunderstruck (1990s)", reply.Text)

	sess := f.sessions.Get("s1")
	require.Len(t, sess.Playlist, 2)
	assert.Equal(t, []string{"Queen – Bohemian Rhapsody", "AC/DC – Thunderstruck"}, sess.SongMemory)
}

func TestAsk_RecommendationOverwritesWholesale(t *testing.T) {
	f := newFixture(t, corpus())
	f.classifier.Replies = []string{"recommendation", "recommendation"}

	_, err := f.svc.Ask(context.Background(), "rock songs", "s1")
	require.NoError(t, err)

	f.retriever.mu.Lock()
	f.retriever.songs = []song.Record{{Artist: "Adele", Title: "Someone Like You", Decade: "2010s"}}
	f.retriever.mu.Unlock()

	_, err = f.svc.Ask(context.Background(), "sad songs", "s1")
	require.NoError(t, err)

	sess := f.sessions.Get("s1")
	require.Len(t, sess.Playlist, 1)
	assert.Equal(t, []string{"Adele – Someone Like You"}, sess.SongMemory)
}

func TestAsk_RetrievalFailureLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t, corpus())
	f.classifier.Replies = []string{"recommendation", "recommendation"}

	_, err := f.svc.Ask(context.Background(), "rock songs", "s1")
	require.NoError(t, err)

	f.retriever.mu.Lock()
	f.retriever.err = errors.New(errors.ErrCodeRetrievalUnavailable, "index down")
	f.retriever.mu.Unlock()

	_, err = f.svc.Ask(context.Background(), "more songs", "s1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRetrievalUnavailable, errors.CodeOf(err))

	// The failed turn must not have mutated the playlist.
	sess := f.sessions.Get("s1")
	assert.Len(t, sess.Playlist, 2)
}

func TestAsk_ModifyWithoutPlaylist(t *testing.T) {
	f := newFixture(t, corpus())
	f.classifier.Replies = []string{"modify_playlist"}

	reply, err := f.svc.Ask(context.Background(), "remove the slow ones", "s-empty")
	require.NoError(t, err)

	assert.Equal(t, "⚠️ No playlist to modify yet.", reply.Text)
	assert.Empty(t, f.sessions.Get("s-empty").Playlist)
	assert.Equal(t, 0, f.retriever.callCount(), "no retrieval call expected")
	assert.Equal(t, 0, f.extractor.CallCount(), "no extraction call expected")
}

func TestAsk_ModifyExcludesAndRefills(t *testing.T) {
	f := newFixture(t, corpus())
	f.classifier.Replies = []string{"recommendation", "modify_playlist"}
	f.extractor.Replies = []string{`{"exclude_artists": ["Queen"]}`}

	_, err := f.svc.Ask(context.Background(), "rock songs", "s1")
	require.NoError(t, err)

	// Refill candidates for the modify turn.
	f.retriever.mu.Lock()
	f.retriever.songs = []song.Record{
		{Artist: "AC/DC", Title: "Thunderstruck", Decade: "1990s"}, // already present
		{Artist: "Survivor", Title: "Eye of the Tiger", Decade: "1980s"},
	}
	f.retriever.mu.Unlock()

	reply, err := f.svc.Ask(context.Background(), "no Queen please", "s1")
	require.NoError(t, err)

	sess := f.sessions.Get("s1")
	require.Len(t, sess.Playlist, 2)
	for _, r := range sess.Playlist {
		assert.NotEqual(t, "Queen", r.Artist)
	}
	// The surviving entry keeps its slot; the duplicate candidate is skipped.
	assert.Equal(t, "AC/DC", sess.Playlist[0].Artist)
	assert.Equal(t, "Survivor", sess.Playlist[1].Artist)
	assert.Contains(t, reply.Text, "1. AC/DC – Thunderstruck (1990s)")
	assert.Equal(t, sess.SongMemory, sess.Playlist.Labels())
}

func TestAsk_DownloadWithNoMemory(t *testing.T) {
	f := newFixture(t, corpus())
	f.classifier.Replies = []string{"download"}

	reply, err := f.svc.Ask(context.Background(), "download", "s2")
	require.NoError(t, err)

	assert.Equal(t, "⚠️ No songs stored for this session.", reply.Text)
	assert.Empty(t, reply.Downloads)
	assert.Equal(t, 0, f.downloader.CallCount(), "no download call expected")
}

func TestAsk_DownloadReportsPerItemResults(t *testing.T) {
	f := newFixture(t, corpus())
	f.classifier.Replies = []string{"recommendation", "download"}
	f.downloader.FailQueries["AC/DC – Thunderstruck"] = true

	_, err := f.svc.Ask(context.Background(), "rock songs", "s1")
	require.NoError(t, err)

	reply, err := f.svc.Ask(context.Background(), "download them", "s1")
	require.NoError(t, err)

	require.Len(t, reply.Downloads, 2)
	assert.Equal(t, download.StatusOK, reply.Downloads[0].Status)
	assert.Equal(t, download.StatusError, reply.Downloads[1].Status)
	assert.Contains(t, reply.Text, "Error downloading 'AC/DC – Thunderstruck'")
}

func TestAsk_FallbackChat(t *testing.T) {
	f := newFixture(t, corpus())
	f.classifier.Replies = []string{"other"}
	f.chatLLM.Replies = []string{"I love talking about music!"}

	reply, err := f.svc.Ask(context.Background(), "what's your favorite band?", "s1")
	require.NoError(t, err)
	assert.Equal(t, "I love talking about music!", reply.Text)

	// The exchange lands in the session history for later turns.
	sess := f.sessions.Get("s1")
	require.Len(t, sess.History, 2)
	assert.Equal(t, "what's your favorite band?", sess.History[0].Content)
}

func TestAsk_UnknownIntentLabelFallsBackToChat(t *testing.T) {
	f := newFixture(t, corpus())
	f.classifier.Replies = []string{"some nonsense label"}
	f.chatLLM.Replies = []string{"happy to help"}

	reply, err := f.svc.Ask(context.Background(), "hm", "s1")
	require.NoError(t, err)
	assert.Equal(t, "happy to help", reply.Text)
	assert.Equal(t, 0, f.retriever.callCount())
}

func TestDownloadStored(t *testing.T) {
	f := newFixture(t, corpus())
	f.classifier.Replies = []string{"recommendation"}

	_, err := f.svc.Ask(context.Background(), "rock songs", "s1")
	require.NoError(t, err)

	results := f.svc.DownloadStored(context.Background(), "s1")
	require.Len(t, results, 2)
	assert.Equal(t, "Queen – Bohemian Rhapsody", results[0].Query)

	assert.Empty(t, f.svc.DownloadStored(context.Background(), "fresh-session"))
}

func TestDeriveFilters(t *testing.T) {
	tests := []struct {
		message string
		decade  string
	}{
		{message: "I want 80s rock songs", decade: "1980s"},
		{message: "play 1970s ballads", decade: "1970s"},
		{message: "some 00s pop", decade: "2000s"},
		{message: "fresh 2010s hits", decade: "2010s"},
		{message: "just good music", decade: ""},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			f := deriveFilters(tt.message)
			if tt.decade == "" {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.decade, f.Decade)
		})
	}
}
