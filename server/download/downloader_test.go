package download

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadBatch_PerItemFailuresDoNotAbortBatch(t *testing.T) {
	d := NewYTDLPDownloader(t.TempDir(), nil)
	d.Binary = "definitely-not-a-real-binary"

	queries := []string{"Queen – Bohemian Rhapsody", "AC/DC – Thunderstruck"}
	results := d.DownloadBatch(context.Background(), queries)

	require.Len(t, results, 2)
	for i, r := range results {
		assert.Equal(t, queries[i], r.Query, "results must preserve input order")
		assert.Equal(t, StatusError, r.Status)
		assert.NotEmpty(t, r.Err)
	}
}

func TestDownloadBatch_Empty(t *testing.T) {
	d := NewYTDLPDownloader(t.TempDir(), nil)
	assert.Empty(t, d.DownloadBatch(context.Background(), nil))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "AC_DC – Thunderstruck", sanitizeFilename("AC/DC – Thunderstruck"))
	assert.Equal(t, "what_ why_", sanitizeFilename("what? why?"))
}
