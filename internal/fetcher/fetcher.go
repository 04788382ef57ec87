// Package fetcher retrieves the article list the feed is built from.
package fetcher

import (
	"context"
	"fmt"

	"articlefeed/internal/graphql"
	"articlefeed/internal/logger"
	"articlefeed/internal/models"
)

// FetchPageSize is the number of articles requested from the API in one call.
const FetchPageSize = 50

// APIPath is the GraphQL endpoint path below the site base URL.
const APIPath = "/api/graphql"

// articleListQuery fetches the most recently active, non-archived articles.
const articleListQuery = `
query ArticleFeedList($limit: Int!, $archived: ArchivedMode!, $sortBy: ArticleSort!, $typeIds: [ID!]!) {
  articles(limit: $limit, archived: $archived, sortBy: $sortBy, typeIds: $typeIds) {
    nodes {
      id
      displayName
      author {
        id
        fullName
      }
      bodySummary
      discussionStatus {
        isClosed
      }
      addedAt
      thread {
        entryCount
        lastEntryAt
      }
      type {
        slug
      }
      slug
      isArchived
    }
  }
}
`

// articleListRequest is sent unchanged on every run.
var articleListRequest = graphql.Request{
	OperationName: "ArticleFeedList",
	Query:         articleListQuery,
	Variables: map[string]any{
		"limit":    FetchPageSize,
		"archived": "EXCLUDE",
		"sortBy":   "LAST_ACTIVITY",
		"typeIds":  []string{"discussion", "question", "article"},
	},
}

// articleListData is the tolerant decode target for the response data.
type articleListData struct {
	Articles *struct {
		Nodes []models.RawArticle `json:"nodes"`
	} `json:"articles"`
}

// Fetcher loads raw articles through a GraphQL executor.
type Fetcher struct {
	client graphql.Executor
	logger *logger.Logger
}

// NewFetcher creates a fetcher using the given executor.
func NewFetcher(client graphql.Executor, log *logger.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: log,
	}
}

// FetchArticles issues the fixed article query and returns the records in API order.
func (f *Fetcher) FetchArticles(ctx context.Context) ([]models.RawArticle, error) {
	resp, err := f.client.Execute(ctx, articleListRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}

	data, err := graphql.UnmarshalData[articleListData](resp)
	if err != nil {
		return nil, fmt.Errorf("failed to decode articles from %s: %w", APIPath, err)
	}

	if data.Articles == nil {
		return nil, fmt.Errorf("failed to decode articles from %s: %w: missing articles field",
			APIPath, graphql.ErrMalformedResponse)
	}

	f.logger.Debug("fetched articles", "count", len(data.Articles.Nodes))

	return data.Articles.Nodes, nil
}
