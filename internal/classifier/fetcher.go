package classifier

import (
	"context"

	"github.com/alimgiray/botscope/internal/models"
)

// MetadataFetcher resolves a login to its account metadata. One call is one
// query unit. A login that does not exist is reported with Exists=false, not
// an error.
type MetadataFetcher interface {
	Resolve(ctx context.Context, login string) (models.AccountMetadata, error)
}

// EventFetcher returns the next page of public events for a login. One call
// is one query unit. Cursor 0 requests the first page.
type EventFetcher interface {
	FetchNextBatch(ctx context.Context, login string, cursor int) (models.EventBatch, error)
}
