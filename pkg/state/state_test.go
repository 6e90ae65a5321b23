package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, s.Load())
	require.Equal(t, 0, s.Len())
}

func TestLoad_CorruptedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	s := NewStore(path)
	require.Error(t, s.Load())
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	s := NewStoreWithClock(path, mock)
	require.NoError(t, s.Load())
	s.MarkProcessed([]string{"b/argus.2024.06.01.11.00.00.out", "a/argus.2024.06.01.10.00.00.out.gz"})
	require.NoError(t, s.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var parsed struct {
		UpdatedAtUTC   string   `json:"updated_at_utc"`
		ProcessedFiles []string `json:"processed_files"`
	}
	require.NoError(t, jsoniter.Unmarshal(raw, &parsed))
	require.Equal(t, "2024-06-01T12:00:00Z", parsed.UpdatedAtUTC)
	// sorted for stable diffs
	require.Equal(t, []string{
		"a/argus.2024.06.01.10.00.00.out.gz",
		"b/argus.2024.06.01.11.00.00.out",
	}, parsed.ProcessedFiles)

	reloaded := NewStore(path)
	require.NoError(t, reloaded.Load())
	require.Equal(t, 2, reloaded.Len())
	require.True(t, reloaded.Contains("b/argus.2024.06.01.11.00.00.out"))
	require.False(t, reloaded.Contains("c/other.out"))
}

func TestSave_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path)
	s.MarkProcessed([]string{"x.out", "x.out"})
	require.NoError(t, s.Save())
	require.Equal(t, 1, s.Len())
}
