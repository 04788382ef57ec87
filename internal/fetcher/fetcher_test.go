package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articlefeed/internal/graphql"
	"articlefeed/internal/logger"
)

// MockExecutor implements graphql.Executor for testing.
type MockExecutor struct {
	ExecuteFunc func(ctx context.Context, req graphql.Request) (*graphql.Response, error)
	Requests    []graphql.Request
}

func (m *MockExecutor) Execute(ctx context.Context, req graphql.Request) (*graphql.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, req)
	}

	return nil, nil
}

func respondWith(data string) *MockExecutor {
	return &MockExecutor{
		ExecuteFunc: func(context.Context, graphql.Request) (*graphql.Response, error) {
			return &graphql.Response{Data: json.RawMessage(data)}, nil
		},
	}
}

func TestFetcher_FetchArticles(t *testing.T) {
	mock := respondWith(`{"articles":{"nodes":[
		{
			"id":"a1","displayName":"First","author":{"id":"u1","fullName":"Ann"},
			"bodySummary":"<p>hi</p>","discussionStatus":{"isClosed":true},
			"addedAt":"2024-01-01T09:00:00Z",
			"thread":{"entryCount":5,"lastEntryAt":"2024-01-01T09:30:00Z"},
			"type":{"slug":"question"},"slug":"first","isArchived":false
		},
		{
			"id":"a2","displayName":"Second","author":{"id":"u2","fullName":"Bo"},
			"addedAt":"2024-01-01T10:00:00Z","type":{"slug":"discussion"},"slug":"second"
		}
	]}}`)

	articles, err := NewFetcher(mock, logger.Discard()).FetchArticles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)

	first := articles[0]
	assert.Equal(t, "a1", first.ID)
	assert.Equal(t, "Ann", first.Author.FullName)
	assert.True(t, first.IsClosed())
	assert.Equal(t, 5, first.EntryCount())
	require.NotNil(t, first.Thread.LastEntryAt)
	assert.Equal(t, "2024-01-01T09:30:00Z", *first.Thread.LastEntryAt)
	assert.Equal(t, "question", first.Type.Slug)

	second := articles[1]
	assert.Nil(t, second.Thread)
	assert.Nil(t, second.DiscussionStatus)
	assert.False(t, second.IsClosed())
	assert.Equal(t, 0, second.EntryCount())
}

func TestFetcher_SendsFixedRequest(t *testing.T) {
	mock := respondWith(`{"articles":{"nodes":[]}}`)
	f := NewFetcher(mock, logger.Discard())

	_, err := f.FetchArticles(context.Background())
	require.NoError(t, err)
	_, err = f.FetchArticles(context.Background())
	require.NoError(t, err)

	require.Len(t, mock.Requests, 2)
	assert.Equal(t, mock.Requests[0], mock.Requests[1])

	req := mock.Requests[0]
	assert.Equal(t, "ArticleFeedList", req.OperationName)
	assert.Equal(t, FetchPageSize, req.Variables["limit"])
	assert.Equal(t, "EXCLUDE", req.Variables["archived"])
	assert.Equal(t, "LAST_ACTIVITY", req.Variables["sortBy"])
	assert.Contains(t, req.Query, "query ArticleFeedList")
}

func TestFetcher_PropagatesTransportError(t *testing.T) {
	mock := &MockExecutor{
		ExecuteFunc: func(context.Context, graphql.Request) (*graphql.Response, error) {
			return nil, errors.Join(graphql.ErrUnexpectedStatusCode, errors.New("POST /api/graphql: 500"))
		},
	}

	_, err := NewFetcher(mock, logger.Discard()).FetchArticles(context.Background())
	assert.ErrorIs(t, err, graphql.ErrUnexpectedStatusCode)
}

func TestFetcher_MalformedShapes(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing articles", `{"somethingElse":{}}`},
		{"wrong field type", `{"articles":{"nodes":[{"id":"a","thread":{"entryCount":"many"}}]}}`},
		{"nodes not a list", `{"articles":{"nodes":{}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFetcher(respondWith(tt.data), logger.Discard()).FetchArticles(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, graphql.ErrMalformedResponse)
			assert.Contains(t, err.Error(), APIPath)
		})
	}
}
