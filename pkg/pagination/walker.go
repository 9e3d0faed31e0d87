package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PageFetcher is the interface a client must implement for single-page
// fetching. FetchPage returns the page's items in order plus whether the
// response announced a further page.
type PageFetcher interface {
	FetchPage(ctx context.Context, resource string, page int) (items []json.RawMessage, hasNext bool, err error)
}

// Walker aggregates a paginated list endpoint into one ordered slice.
type Walker struct {
	fetcher PageFetcher
	logger  zerolog.Logger
}

// NewWalker creates a new sequential page walker.
func NewWalker(fetcher PageFetcher, logger zerolog.Logger) *Walker {
	return &Walker{
		fetcher: fetcher,
		logger:  logger,
	}
}

// FetchAll fetches pages starting at 1 and concatenates their items. A
// positive limit bounds the result: the page that crosses the limit is
// still fetched in full, then the accumulator is truncated to exactly
// limit items. A zero or negative limit fetches everything available.
func (w *Walker) FetchAll(ctx context.Context, resource string, limit int) ([]json.RawMessage, error) {
	start := time.Now()

	var items []json.RawMessage
	page := 1
	for {
		pageItems, hasNext, err := w.fetcher.FetchPage(ctx, resource, page)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		items = append(items, pageItems...)

		w.logger.Debug().
			Str("resource", resource).
			Int("page", page).
			Int("page_items", len(pageItems)).
			Int("accumulated", len(items)).
			Msg("Page fetched")

		if !hasNext {
			break
		}
		if limit > 0 && len(items) >= limit {
			break
		}
		page++
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	w.logger.Info().
		Str("resource", resource).
		Int("pages", page).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}
