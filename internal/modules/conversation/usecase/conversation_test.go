package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tobetutor/internal/modules/conversation/domain"
	"tobetutor/internal/modules/conversation/dto"
	"tobetutor/internal/modules/conversation/service"
	"tobetutor/internal/modules/conversation/usecase"
	apperrors "tobetutor/internal/platform/errors"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "sess-" + string(rune('0'+s.n))
}

type scriptedValidator struct {
	mu       sync.Mutex
	verdicts []string
	err      error
	calls    []string
}

func (f *scriptedValidator) Validate(_ context.Context, sentence string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentence)
	if f.err != nil {
		return "", f.err
	}
	v := f.verdicts[0]
	f.verdicts = f.verdicts[1:]
	return v, nil
}

type blockingValidator struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingValidator) Validate(ctx context.Context, _ string) (string, error) {
	close(b.entered)
	select {
	case <-b.release:
		return "✅ Correct!", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type memoryArchive struct {
	mu    sync.Mutex
	saved map[string]domain.Session
	saves int
	err   error
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{saved: map[string]domain.Session{}}
}

func (m *memoryArchive) Save(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.saved[s.ID] = s
	return nil
}

func (m *memoryArchive) List(_ context.Context, limit int) ([]domain.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Summary
	for _, s := range m.saved {
		if len(out) == limit {
			break
		}
		out = append(out, s.Summary())
	}
	return out, nil
}

func (m *memoryArchive) Get(_ context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[id]
	if !ok {
		return domain.Session{}, apperrors.ErrNotFound
	}
	return s, nil
}

type fakeExporter struct {
	exported string
	dir      string
}

func (f *fakeExporter) Export(_ context.Context, s domain.Session, dir string) (string, error) {
	f.exported = s.ID
	f.dir = dir
	return dir + "/" + s.ID + ".md", nil
}

var now = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newInteractor(t *testing.T, validator *scriptedValidator, archive *memoryArchive) *usecase.Interactor {
	t.Helper()
	svc := service.NewConversationService(fakeClock{now: now}, &seqID{}, validator, zerolog.Nop())
	var uc *usecase.Interactor
	if archive == nil {
		uc = usecase.NewInteractor(svc, nil, nil, zerolog.Nop()).(*usecase.Interactor)
	} else {
		uc = usecase.NewInteractor(svc, archive, &fakeExporter{}, zerolog.Nop()).(*usecase.Interactor)
	}
	if _, err := uc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return uc
}

func submit(t *testing.T, uc *usecase.Interactor, text string) dto.SubmitOutput {
	t.Helper()
	out, err := uc.Submit(context.Background(), dto.SubmitInput{Text: text})
	if err != nil {
		t.Fatalf("submit %q: %v", text, err)
	}
	return out
}

func texts(entries []dto.EntryOutput) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Speaker+": "+e.Text)
	}
	return out
}

func equalTexts(t *testing.T, got []dto.EntryOutput, want ...string) {
	t.Helper()
	g := texts(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, want[i], g[i])
		}
	}
}

func TestHappyPathReachesContinueChoice(t *testing.T) {
	t.Parallel()
	validator := &scriptedValidator{verdicts: []string{"✅ Correct!"}}
	uc := newInteractor(t, validator, nil)

	start, err := uc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if start.Phase != "awaiting_name" || len(start.Entries) != 0 || start.SessionID == "" {
		t.Fatalf("unexpected fresh session %+v", start)
	}

	out := submit(t, uc, "Ana")
	equalTexts(t, out.Entries, "user: Ana", "bot: "+domain.Greeting("Ana"))
	if out.Phase != "awaiting_sentence" || out.UserName != "Ana" {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(validator.calls) != 0 {
		t.Fatalf("name capture must not call the validator")
	}

	out = submit(t, uc, "I am happy")
	equalTexts(t, out.Entries, "user: I am happy", "bot: ✅ Correct!", "bot: "+domain.MsgContinuePrompt)
	if out.Phase != "awaiting_continue_choice" {
		t.Fatalf("expected continue choice, got %s", out.Phase)
	}
	if len(validator.calls) != 1 || validator.calls[0] != "I am happy" {
		t.Fatalf("expected one validator call with the sentence, got %v", validator.calls)
	}
}

func TestInvalidNameWarnsOnce(t *testing.T) {
	t.Parallel()
	validator := &scriptedValidator{}
	uc := newInteractor(t, validator, nil)

	out := submit(t, uc, "ana")
	equalTexts(t, out.Entries, "user: ana", "bot: "+domain.MsgInvalidName)
	snap, _ := uc.Snapshot(context.Background())
	if snap.Phase != "awaiting_name" || snap.UserName != "" {
		t.Fatalf("invalid name must not advance, got %+v", snap)
	}
	if len(validator.calls) != 0 {
		t.Fatalf("no validator call expected")
	}
}

func TestRejectedSentenceKeepsPhase(t *testing.T) {
	t.Parallel()
	uc := newInteractor(t, &scriptedValidator{verdicts: []string{"❌ Missing verb"}}, nil)
	submit(t, uc, "Ana")

	out := submit(t, uc, "I happy")
	equalTexts(t, out.Entries, "user: I happy", "bot: ❌ Missing verb")
	if out.Phase != "awaiting_sentence" {
		t.Fatalf("expected awaiting_sentence, got %s", out.Phase)
	}
}

func TestDeclineEndsConversationAndArchives(t *testing.T) {
	t.Parallel()
	archive := newMemoryArchive()
	uc := newInteractor(t, &scriptedValidator{verdicts: []string{"✅ Correct!"}}, archive)
	submit(t, uc, "Ana")
	submit(t, uc, "I am happy.")

	out := submit(t, uc, "n")
	equalTexts(t, out.Entries, "user: n", "bot: "+domain.MsgFarewell)
	if !out.Ended || out.Phase != "ended" {
		t.Fatalf("expected ended, got %+v", out)
	}
	before, _ := uc.Snapshot(context.Background())

	out = submit(t, uc, "y")
	if len(out.Entries) != 0 || !out.Ended {
		t.Fatalf("input after end must be ignored, got %+v", out)
	}
	after, _ := uc.Snapshot(context.Background())
	if len(after.Entries) != len(before.Entries) || after.Phase != "ended" {
		t.Fatalf("transcript changed after end")
	}

	if archive.saves != 1 {
		t.Fatalf("expected one archive save, got %d", archive.saves)
	}
	if err := uc.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if archive.saves != 1 {
		t.Fatalf("ended session must not be archived twice, got %d", archive.saves)
	}
}

func TestAmbiguousChoiceIsRepeatable(t *testing.T) {
	t.Parallel()
	uc := newInteractor(t, &scriptedValidator{verdicts: []string{"✅ Correct!", "✅ Correct!"}}, nil)
	submit(t, uc, "Ana")
	submit(t, uc, "I am happy.")

	for i := 0; i < 3; i++ {
		out := submit(t, uc, "maybe")
		equalTexts(t, out.Entries, "user: maybe", "bot: "+domain.MsgInvalidChoice)
		if out.Phase != "awaiting_continue_choice" {
			t.Fatalf("round %d: phase changed to %s", i, out.Phase)
		}
	}

	out := submit(t, uc, "Y")
	equalTexts(t, out.Entries, "user: Y", "bot: "+domain.MsgNextSentence)
	if out.Phase != "awaiting_sentence" {
		t.Fatalf("expected awaiting_sentence, got %s", out.Phase)
	}
}

func TestBlankInputIsIgnored(t *testing.T) {
	t.Parallel()
	uc := newInteractor(t, &scriptedValidator{}, nil)
	out := submit(t, uc, "   \t ")
	if len(out.Entries) != 0 || out.Phase != "awaiting_name" {
		t.Fatalf("blank input must change nothing, got %+v", out)
	}
}

func TestValidatorFailureIsRecoverable(t *testing.T) {
	t.Parallel()
	validator := &scriptedValidator{err: apperrors.ErrValidatorUnavailable}
	uc := newInteractor(t, validator, nil)
	submit(t, uc, "Ana")

	out := submit(t, uc, "I am happy.")
	equalTexts(t, out.Entries, "user: I am happy.", "bot: "+domain.MsgValidatorFailed)
	if out.Phase != "awaiting_sentence" {
		t.Fatalf("failure must leave the user able to retry, got %s", out.Phase)
	}

	validator.err = nil
	validator.verdicts = []string{"✅ Correct!"}
	out = submit(t, uc, "I am happy.")
	if out.Phase != "awaiting_continue_choice" {
		t.Fatalf("retry should succeed, got %s", out.Phase)
	}
}

func TestSubmitIsSingleFlight(t *testing.T) {
	t.Parallel()
	blocking := &blockingValidator{entered: make(chan struct{}), release: make(chan struct{})}
	svc := service.NewConversationService(fakeClock{now: now}, &seqID{}, blocking, zerolog.Nop())
	uc := usecase.NewInteractor(svc, nil, nil, zerolog.Nop())
	ctx := context.Background()
	if _, err := uc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := uc.Submit(ctx, dto.SubmitInput{Text: "Ana"}); err != nil {
		t.Fatalf("name: %v", err)
	}

	done := make(chan dto.SubmitOutput)
	go func() {
		out, err := uc.Submit(ctx, dto.SubmitInput{Text: "I am happy."})
		if err != nil {
			t.Errorf("pending submit: %v", err)
		}
		done <- out
	}()
	<-blocking.entered

	if _, err := uc.Submit(ctx, dto.SubmitInput{Text: "y"}); !errors.Is(err, apperrors.ErrSubmissionInFlight) {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}
	if _, err := uc.Start(ctx); !errors.Is(err, apperrors.ErrSubmissionInFlight) {
		t.Fatalf("restart during a check must be refused, got %v", err)
	}
	snap, err := uc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot while pending: %v", err)
	}
	if len(snap.Entries) != 2 {
		t.Fatalf("pending turn must not be visible yet, got %v", texts(snap.Entries))
	}

	close(blocking.release)
	out := <-done
	equalTexts(t, out.Entries, "user: I am happy.", "bot: ✅ Correct!", "bot: "+domain.MsgContinuePrompt)

	snap, _ = uc.Snapshot(ctx)
	for i, e := range snap.Entries {
		if e.Seq != i+1 {
			t.Fatalf("entry %d out of order: seq %d", i, e.Seq)
		}
	}
}

func TestSubmitWithoutSession(t *testing.T) {
	t.Parallel()
	svc := service.NewConversationService(fakeClock{now: now}, &seqID{}, &scriptedValidator{}, zerolog.Nop())
	uc := usecase.NewInteractor(svc, nil, nil, zerolog.Nop())
	if _, err := uc.Submit(context.Background(), dto.SubmitInput{Text: "Ana"}); !errors.Is(err, apperrors.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := uc.Snapshot(context.Background()); !errors.Is(err, apperrors.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestRestartArchivesUnfinishedSession(t *testing.T) {
	t.Parallel()
	archive := newMemoryArchive()
	uc := newInteractor(t, &scriptedValidator{}, archive)
	first, _ := uc.Snapshot(context.Background())
	submit(t, uc, "Ana")

	second, err := uc.Start(context.Background())
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if second.SessionID == first.SessionID || second.Phase != "awaiting_name" {
		t.Fatalf("expected a fresh session, got %+v", second)
	}
	saved, err := uc.GetArchived(context.Background(), first.SessionID)
	if err != nil {
		t.Fatalf("get archived: %v", err)
	}
	if saved.UserName != "Ana" || len(saved.Entries) != 2 {
		t.Fatalf("unexpected archived session %+v", saved)
	}

	// empty sessions are not worth keeping
	if err := uc.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := uc.GetArchived(context.Background(), second.SessionID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestArchiveQueriesAndExport(t *testing.T) {
	t.Parallel()
	archive := newMemoryArchive()
	uc := newInteractor(t, &scriptedValidator{verdicts: []string{"✅ Correct!"}}, archive)
	submit(t, uc, "Ana")
	submit(t, uc, "I am happy.")
	submit(t, uc, "n")
	snap, _ := uc.Snapshot(context.Background())

	list, err := uc.ListArchived(context.Background(), dto.ListArchivedInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Accepted != 1 || list[0].Phase != "ended" || list[0].Entries != 7 {
		t.Fatalf("unexpected summaries %+v", list)
	}

	exported, err := uc.ExportArchived(context.Background(), dto.ExportInput{SessionID: snap.SessionID, Dir: "/tmp/out"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.Path != "/tmp/out/"+snap.SessionID+".md" {
		t.Fatalf("unexpected export %+v", exported)
	}

	if _, err := uc.ExportArchived(context.Background(), dto.ExportInput{}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := uc.GetArchived(context.Background(), "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestArchiveFailureDoesNotInterruptConversation(t *testing.T) {
	t.Parallel()
	archive := newMemoryArchive()
	archive.err = errors.New("disk full")
	uc := newInteractor(t, &scriptedValidator{verdicts: []string{"✅ Correct!"}}, archive)
	submit(t, uc, "Ana")
	submit(t, uc, "I am happy.")
	out := submit(t, uc, "n")
	if !out.Ended {
		t.Fatalf("conversation must end even when archiving fails")
	}
}

func TestArchiveDisabled(t *testing.T) {
	t.Parallel()
	uc := newInteractor(t, &scriptedValidator{}, nil)
	if _, err := uc.ListArchived(context.Background(), dto.ListArchivedInput{}); !errors.Is(err, apperrors.ErrArchiveDisabled) {
		t.Fatalf("expected ErrArchiveDisabled, got %v", err)
	}
}
