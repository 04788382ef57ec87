package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articlefeed/internal/config"
	"articlefeed/internal/feed"
	"articlefeed/internal/graphql"
	"articlefeed/internal/logger"
	"articlefeed/internal/normalizer"
)

const scenarioResponse = `{
  "data": {
    "articles": {
      "nodes": [
        {
          "id": "b",
          "displayName": "Printer offline",
          "author": {"id": "u2", "fullName": "Bob  Builder"},
          "bodySummary": "<p></p><p>Fixed by a reboot</p><br/>",
          "discussionStatus": {"isClosed": true},
          "addedAt": "2024-01-01T09:00:00Z",
          "thread": {"entryCount": 5, "lastEntryAt": "2024-01-01T09:30:00Z"},
          "type": {"slug": "question"},
          "slug": "printer-offline",
          "isArchived": false
        },
        {
          "id": "a",
          "displayName": "Release notes",
          "author": {"id": "u1", "fullName": "Alice"},
          "bodySummary": "<p>Version 2 is out</p>",
          "discussionStatus": null,
          "addedAt": "2024-01-01T10:00:00Z",
          "thread": null,
          "type": {"slug": "article"},
          "slug": "release-notes",
          "isArchived": false
        },
        {
          "id": "old",
          "displayName": "Archived",
          "author": {"id": "u3", "fullName": "Carol"},
          "bodySummary": "",
          "addedAt": "2023-01-01T10:00:00Z",
          "type": {"slug": "article"},
          "slug": "archived",
          "isArchived": true
        }
      ]
    }
  }
}`

func fastRetry() *graphql.RetryPolicy {
	return &graphql.RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func newServer(t *testing.T, handler http.HandlerFunc) *config.Config {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Source.BaseURL = srv.URL
	require.NoError(t, cfg.Validate())

	return cfg
}

func serve(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func parse(t *testing.T, path string) *gofeed.Feed {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	parsed, err := gofeed.NewParser().Parse(file)
	require.NoError(t, err)

	return parsed
}

func TestRun_EndToEnd(t *testing.T) {
	var request graphql.Request

	var headers http.Header

	cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.Equal(t, "/api/graphql", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))

		serve(scenarioResponse)(w, r)
	})

	dir := t.TempDir()
	atomPath := filepath.Join(dir, "atom.xml")
	rssPath := filepath.Join(dir, "rss.xml")

	f, err := Run(context.Background(), Options{
		Config:      cfg,
		Logger:      logger.Discard(),
		AtomPath:    atomPath,
		RSSPath:     rssPath,
		Version:     "1.2.3",
		RetryPolicy: fastRetry(),
	})
	require.NoError(t, err)

	assert.Equal(t, "ArticleFeedList", request.OperationName)
	assert.Equal(t, "articlefeed/1.2.3", headers.Get("User-Agent"))
	assert.Equal(t, cfg.Source.BaseURL+"/", headers.Get("Referer"))

	require.Len(t, f.Entries, 2)
	assert.Equal(t, "Release notes", f.Entries[0].Title)
	assert.Equal(t, normalizer.SolvedPrefix+"Printer offline (5)", f.Entries[1].Title)
	assert.Equal(t, "Bob Builder", f.Entries[1].Author)
	assert.Equal(t, "<p>Fixed by a reboot</p>", f.Entries[1].Content)
	assert.Equal(t, cfg.Source.BaseURL+"/feed/article/b-20240101093001", f.Entries[1].ID)
	assert.Equal(t, cfg.Source.BaseURL+"/discussions/question/printer-offline", f.Entries[1].Link)
	assert.Equal(t, feed.FeedID(cfg.Source.BaseURL, f.EntryIDs()), f.ID)
	assert.True(t, f.Updated.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))

	atom := parse(t, atomPath)
	assert.Equal(t, "atom", atom.FeedType)
	assert.Equal(t, "articlefeed 1.2.3", atom.Generator)
	require.Len(t, atom.Items, 2)
	assert.Equal(t, "Release notes", atom.Items[0].Title)
	assert.Equal(t, f.Entries[1].ID, atom.Items[1].GUID)

	rss := parse(t, rssPath)
	assert.Equal(t, "rss", rss.FeedType)
	require.Len(t, rss.Items, 2)
	assert.Equal(t, normalizer.SolvedPrefix+"Printer offline (5)", rss.Items[1].Title)
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32

	cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		serve(scenarioResponse)(w, r)
	})

	path := filepath.Join(t.TempDir(), "atom.xml")

	_, err := Run(context.Background(), Options{Config: cfg, AtomPath: path, RetryPolicy: fastRetry()})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, parse(t, path).Items, 2)
}

func TestRun_FetchFailureLeavesOutputUntouched(t *testing.T) {
	cfg := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad query"}]}`))
	})

	path := filepath.Join(t.TempDir(), "atom.xml")
	previous := []byte("previous")
	require.NoError(t, os.WriteFile(path, previous, 0o644))

	_, err := Run(context.Background(), Options{Config: cfg, AtomPath: path, RetryPolicy: fastRetry()})
	require.ErrorIs(t, err, graphql.ErrUnexpectedStatusCode)
	assert.Contains(t, err.Error(), "bad query")
	assert.Contains(t, err.Error(), "/api/graphql")

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, previous, data)
}

func TestRun_InvalidRecordFailsRun(t *testing.T) {
	cfg := newServer(t, serve(`{"data":{"articles":{"nodes":[
		{"id":"x","displayName":"No date","author":{"fullName":"A"},"type":{"slug":"article"},"slug":"x","addedAt":"yesterday"}
	]}}}`))

	path := filepath.Join(t.TempDir(), "rss.xml")

	_, err := Run(context.Background(), Options{Config: cfg, RSSPath: path, RetryPolicy: fastRetry()})
	require.ErrorIs(t, err, normalizer.ErrInvalidTimestamp)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_EmptyResult(t *testing.T) {
	cfg := newServer(t, serve(`{"data":{"articles":{"nodes":[]}}}`))
	path := filepath.Join(t.TempDir(), "atom.xml")

	f, err := Run(context.Background(), Options{Config: cfg, AtomPath: path})
	require.NoError(t, err)
	assert.Empty(t, f.Entries)
	assert.Empty(t, parse(t, path).Items)
}

func TestRun_RequiresOutputAndConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{Config: config.Default()})
	require.ErrorIs(t, err, feed.ErrNoOutput)

	_, err = Run(context.Background(), Options{AtomPath: "atom.xml"})
	require.ErrorIs(t, err, ErrNoConfig)
}
