package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tobetutor/internal/modules/conversation/domain"
	conversationout "tobetutor/internal/modules/conversation/port/out"
	"tobetutor/internal/platform/clock"
	"tobetutor/internal/platform/id"
)

// ConversationService drives a session through its phases, one submitted
// line at a time.
type ConversationService struct {
	clock     clock.Clock
	idGen     id.Generator
	validator conversationout.SentenceValidator
	logger    zerolog.Logger
}

func NewConversationService(clock clock.Clock, idGen id.Generator, validator conversationout.SentenceValidator, logger zerolog.Logger) *ConversationService {
	return &ConversationService{clock: clock, idGen: idGen, validator: validator, logger: logger}
}

func (s *ConversationService) NewSession() *domain.Session {
	session := domain.NewSession(s.idGen.New(), s.clock.Now())
	s.logger.Info().Str("session_id", session.ID).Msg("conversation started")
	return session
}

// Submit applies one line of user input and returns the entries it appended.
// Blank input and input after the conversation ended change nothing.
func (s *ConversationService) Submit(ctx context.Context, session *domain.Session, text string) ([]domain.Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" || session.Phase == domain.Ended {
		return nil, nil
	}
	before := len(session.Transcript)
	from := session.Phase
	session.Echo(text, s.clock.Now())

	var err error
	switch session.Phase {
	case domain.AwaitingContinueChoice:
		err = session.AcceptChoice(text, s.clock.Now())
	case domain.AwaitingName:
		err = session.AcceptName(text, s.clock.Now())
	case domain.AwaitingSentence:
		err = s.checkSentence(ctx, session, text)
	}
	if err != nil {
		return nil, err
	}

	if session.Phase != from {
		s.logger.Debug().
			Str("session_id", session.ID).
			Stringer("from", from).
			Stringer("to", session.Phase).
			Msg("phase transition")
	}
	appended := make([]domain.Entry, len(session.Transcript)-before)
	copy(appended, session.Transcript[before:])
	return appended, nil
}

func (s *ConversationService) checkSentence(ctx context.Context, session *domain.Session, sentence string) error {
	start := time.Now()
	verdict, err := s.validator.Validate(ctx, sentence)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("session_id", session.ID).
			Dur("duration", time.Since(start)).
			Msg("sentence validation failed")
		return session.AcceptValidatorFailure(s.clock.Now())
	}
	s.logger.Info().
		Str("session_id", session.ID).
		Bool("accepted", domain.IsSuccessVerdict(verdict)).
		Dur("duration", time.Since(start)).
		Msg("sentence validated")
	return session.AcceptVerdict(verdict, s.clock.Now())
}
