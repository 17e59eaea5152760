package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"tobetutor/internal/modules/conversation/domain"
	conversationdto "tobetutor/internal/modules/conversation/dto"
	conversationin "tobetutor/internal/modules/conversation/port/in"
	conversationout "tobetutor/internal/modules/conversation/port/out"
	"tobetutor/internal/modules/conversation/service"
	apperrors "tobetutor/internal/platform/errors"
)

const defaultListLimit = 20

// Interactor owns the live session. At most one submission is processed at a
// time; a second one arriving while a sentence is being checked is refused.
type Interactor struct {
	svc      *service.ConversationService
	archive  conversationout.TranscriptArchive
	exporter conversationout.TranscriptExporter
	logger   zerolog.Logger

	busy atomic.Bool

	mu       sync.Mutex
	session  *domain.Session
	archived bool
}

// NewInteractor wires the controller. archive and exporter may be nil when
// transcripts are not kept.
func NewInteractor(svc *service.ConversationService, archive conversationout.TranscriptArchive, exporter conversationout.TranscriptExporter, logger zerolog.Logger) conversationin.Usecase {
	return &Interactor{svc: svc, archive: archive, exporter: exporter, logger: logger}
}

func (i *Interactor) Start(ctx context.Context) (conversationdto.SessionOutput, error) {
	if !i.busy.CompareAndSwap(false, true) {
		return conversationdto.SessionOutput{}, apperrors.ErrSubmissionInFlight
	}
	defer i.busy.Store(false)

	i.mu.Lock()
	defer i.mu.Unlock()
	_ = i.archiveLocked(ctx)
	i.session = i.svc.NewSession()
	i.archived = false
	return sessionOutput(i.session), nil
}

func (i *Interactor) Submit(ctx context.Context, input conversationdto.SubmitInput) (conversationdto.SubmitOutput, error) {
	if !i.busy.CompareAndSwap(false, true) {
		return conversationdto.SubmitOutput{}, apperrors.ErrSubmissionInFlight
	}
	defer i.busy.Store(false)

	i.mu.Lock()
	base := i.session
	i.mu.Unlock()
	if base == nil {
		return conversationdto.SubmitOutput{}, apperrors.ErrNoSession
	}

	// The validator call happens on a working copy so Snapshot never blocks
	// on the network and never sees a half-applied turn.
	working := base.Clone()
	entries, err := i.svc.Submit(ctx, working, input.Text)
	if err != nil {
		return conversationdto.SubmitOutput{}, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.session != base {
		return conversationdto.SubmitOutput{}, apperrors.ErrNoSession
	}
	i.session = working
	if working.Phase == domain.Ended {
		_ = i.archiveLocked(ctx)
	}

	out := conversationdto.SubmitOutput{
		Entries:  entryOutputs(entries),
		Phase:    working.Phase.String(),
		UserName: working.UserName,
		Ended:    working.Phase == domain.Ended,
	}
	return out, nil
}

func (i *Interactor) Snapshot(_ context.Context) (conversationdto.SessionOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.session == nil {
		return conversationdto.SessionOutput{}, apperrors.ErrNoSession
	}
	return sessionOutput(i.session), nil
}

// Close archives the live session, if it has anything worth keeping, and
// forgets it.
func (i *Interactor) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.session == nil {
		return nil
	}
	err := i.archiveLocked(ctx)
	i.session = nil
	return err
}

func (i *Interactor) ListArchived(ctx context.Context, input conversationdto.ListArchivedInput) ([]conversationdto.ArchivedSummary, error) {
	if i.archive == nil {
		return nil, apperrors.ErrArchiveDisabled
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	summaries, err := i.archive.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]conversationdto.ArchivedSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, conversationdto.ArchivedSummary{
			SessionID: s.ID,
			UserName:  s.UserName,
			Phase:     s.Phase.String(),
			StartedAt: s.StartedAt,
			EndedAt:   s.EndedAt,
			Entries:   s.Entries,
			Accepted:  s.Accepted,
		})
	}
	return out, nil
}

func (i *Interactor) GetArchived(ctx context.Context, sessionID string) (conversationdto.SessionOutput, error) {
	if strings.TrimSpace(sessionID) == "" {
		return conversationdto.SessionOutput{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if i.archive == nil {
		return conversationdto.SessionOutput{}, apperrors.ErrArchiveDisabled
	}
	session, err := i.archive.Get(ctx, sessionID)
	if err != nil {
		return conversationdto.SessionOutput{}, err
	}
	return sessionOutput(&session), nil
}

func (i *Interactor) ExportArchived(ctx context.Context, input conversationdto.ExportInput) (conversationdto.ExportOutput, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return conversationdto.ExportOutput{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if i.archive == nil || i.exporter == nil {
		return conversationdto.ExportOutput{}, apperrors.ErrArchiveDisabled
	}
	session, err := i.archive.Get(ctx, input.SessionID)
	if err != nil {
		return conversationdto.ExportOutput{}, err
	}
	dir := input.Dir
	if dir == "" {
		dir = "."
	}
	path, err := i.exporter.Export(ctx, session, dir)
	if err != nil {
		return conversationdto.ExportOutput{}, err
	}
	return conversationdto.ExportOutput{SessionID: session.ID, Path: path}, nil
}

// archiveLocked saves the live session once. Failures are logged and
// returned but never interrupt the conversation. Callers hold i.mu.
func (i *Interactor) archiveLocked(ctx context.Context) error {
	if i.archive == nil || i.session == nil || i.archived || len(i.session.Transcript) == 0 {
		return nil
	}
	if err := i.archive.Save(ctx, *i.session); err != nil {
		i.logger.Error().Err(err).Str("session_id", i.session.ID).Msg("archive transcript")
		return fmt.Errorf("archive transcript: %w", err)
	}
	i.logger.Info().Str("session_id", i.session.ID).Int("entries", len(i.session.Transcript)).Msg("transcript archived")
	i.archived = i.session.Phase == domain.Ended
	return nil
}

func sessionOutput(s *domain.Session) conversationdto.SessionOutput {
	return conversationdto.SessionOutput{
		SessionID: s.ID,
		UserName:  s.UserName,
		Phase:     s.Phase.String(),
		Ended:     s.Phase == domain.Ended,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Entries:   entryOutputs(s.Transcript),
	}
}

func entryOutputs(entries []domain.Entry) []conversationdto.EntryOutput {
	out := make([]conversationdto.EntryOutput, 0, len(entries))
	for _, e := range entries {
		out = append(out, conversationdto.EntryOutput{Seq: e.Seq, Speaker: string(e.Speaker), Text: e.Text, At: e.At})
	}
	return out
}
