package ingestion

import (
	"context"
	"fmt"

	"github.com/jonathan/recruit-search/internal/fetch"
)

// Source fetches the text of a job posting.
type Source interface {
	Fetch(ctx context.Context, pageURL string) (*fetch.Document, error)
}

// FromURL fetches a job posting and builds a query from its text.
func FromURL(ctx context.Context, src Source, pageURL string) (*Query, error) {
	doc, err := src.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch job posting: %w", err)
	}
	q, err := FromText(doc.Text, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pageURL, err)
	}
	q.Metadata.Platform = string(doc.Platform)
	q.Metadata.Rendered = doc.Rendered
	return q, nil
}
