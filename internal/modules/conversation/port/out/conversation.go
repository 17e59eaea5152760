package out

import (
	"context"

	"tobetutor/internal/modules/conversation/domain"
)

// SentenceValidator returns the verdict for one sentence. An error means the
// sentence could not be checked at all, not that it was rejected.
type SentenceValidator interface {
	Validate(ctx context.Context, sentence string) (string, error)
}

type TranscriptArchive interface {
	Save(ctx context.Context, session domain.Session) error
	List(ctx context.Context, limit int) ([]domain.Summary, error)
	Get(ctx context.Context, sessionID string) (domain.Session, error)
}

type TranscriptExporter interface {
	Export(ctx context.Context, session domain.Session, dir string) (string, error)
}
