// Package pipeline runs one feed generation: fetch, normalize, assemble and write.
package pipeline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"articlefeed/internal/config"
	"articlefeed/internal/feed"
	"articlefeed/internal/fetcher"
	"articlefeed/internal/graphql"
	"articlefeed/internal/logger"
	"articlefeed/internal/models"
	"articlefeed/internal/normalizer"
	"articlefeed/pkg/utils"
)

// ErrNoConfig is returned when Run is called without a configuration.
var ErrNoConfig = errors.New("pipeline requires a configuration")

// Name identifies the program in request headers and generated documents.
const Name = "articlefeed"

// Options controls a single run.
type Options struct {
	Config   *config.Config
	Logger   *logger.Logger
	AtomPath string
	RSSPath  string
	Version  string

	// HTTPClient and RetryPolicy override the transport defaults when set.
	HTTPClient  *http.Client
	RetryPolicy *graphql.RetryPolicy
}

// Run generates the feed and writes every requested format. The assembled feed is
// returned only when all writes succeeded.
func Run(ctx context.Context, opts Options) (models.Feed, error) {
	if opts.Config == nil {
		return models.Feed{}, ErrNoConfig
	}

	if opts.AtomPath == "" && opts.RSSPath == "" {
		return models.Feed{}, feed.ErrNoOutput
	}

	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	cfg := opts.Config
	startTime := time.Now()

	// Phase 1: fetch
	log.Info("fetching articles", "source", cfg.Source.BaseURL+fetcher.APIPath)

	phaseStart := time.Now()

	raws, err := newFetcher(opts, log).FetchArticles(ctx)
	if err != nil {
		return models.Feed{}, err
	}

	log.Info("fetched articles", "count", len(raws), "duration", time.Since(phaseStart))

	// Phase 2: normalize
	phaseStart = time.Now()

	articles, err := normalizer.NewNormalizer(log).NormalizeAll(raws)
	if err != nil {
		return models.Feed{}, err
	}

	log.Info("normalized articles", "count", len(articles), "skipped", len(raws)-len(articles),
		"duration", time.Since(phaseStart))

	// Phase 3: assemble
	assembled := feed.NewAssembler(cfg.Source.BaseURL, feed.Metadata{
		Title:       cfg.Feed.Title,
		Description: cfg.Feed.Description,
		Language:    cfg.Feed.Language,
	}).Assemble(articles)

	log.Info("assembled feed", "entries", len(assembled.Entries), "id", assembled.ID)

	// Phase 4: write
	phaseStart = time.Now()

	writer := feed.NewWriter(Name+" "+opts.Version, log)
	if err := writer.Write(&assembled, opts.AtomPath, opts.RSSPath); err != nil {
		return models.Feed{}, err
	}

	log.Info("feed generation complete", "write_duration", time.Since(phaseStart),
		"total_duration", time.Since(startTime))

	return assembled, nil
}

func newFetcher(opts Options, log *logger.Logger) *fetcher.Fetcher {
	base := opts.Config.Source.BaseURL
	headers := utils.NewHTTPHelper(Name+"/"+opts.Version, base+"/").BuildHeaders(nil)

	var clientOpts []graphql.Option
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, graphql.WithHTTPClient(opts.HTTPClient))
	}

	if opts.RetryPolicy != nil {
		clientOpts = append(clientOpts, graphql.WithRetryPolicy(*opts.RetryPolicy))
	}

	client := graphql.NewClient(base+fetcher.APIPath, headers, log.With("component", "graphql"), clientOpts...)

	return fetcher.NewFetcher(client, log)
}
