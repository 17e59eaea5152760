package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const SchemaVersion = 1

var ErrWrongPhase = errors.New("input not expected in this phase")

type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Entry is one transcript line. Entries are never modified once appended.
type Entry struct {
	Seq     int
	Speaker Speaker
	Text    string
	At      time.Time
}

// Session is the single live conversation: who the user is, where the
// dialogue stands, and everything said so far.
type Session struct {
	ID         string
	UserName   string
	Phase      Phase
	Transcript []Entry
	StartedAt  time.Time
	EndedAt    time.Time
}

func NewSession(id string, startedAt time.Time) *Session {
	return &Session{ID: id, Phase: AwaitingName, StartedAt: startedAt}
}

// Clone returns a copy whose transcript can grow without touching s.
func (s *Session) Clone() *Session {
	c := *s
	c.Transcript = append([]Entry(nil), s.Transcript...)
	return &c
}

func (s *Session) append(speaker Speaker, text string, at time.Time) Entry {
	e := Entry{Seq: len(s.Transcript) + 1, Speaker: speaker, Text: text, At: at}
	s.Transcript = append(s.Transcript, e)
	return e
}

// Echo records what the user typed.
func (s *Session) Echo(text string, at time.Time) Entry {
	return s.append(SpeakerUser, text, at)
}

// AcceptChoice handles the y/n answer after an accepted sentence.
func (s *Session) AcceptChoice(answer string, at time.Time) error {
	if s.Phase != AwaitingContinueChoice {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.Phase)
	}
	switch strings.ToLower(answer) {
	case "y":
		s.append(SpeakerBot, MsgNextSentence, at)
		s.Phase = AwaitingSentence
	case "n":
		s.append(SpeakerBot, MsgFarewell, at)
		s.Phase = Ended
		s.EndedAt = at
	default:
		s.append(SpeakerBot, MsgInvalidChoice, at)
	}
	return nil
}

func (s *Session) AcceptName(name string, at time.Time) error {
	if s.Phase != AwaitingName {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.Phase)
	}
	if !IsValidName(name) {
		s.append(SpeakerBot, MsgInvalidName, at)
		return nil
	}
	s.UserName = name
	s.append(SpeakerBot, Greeting(name), at)
	s.Phase = AwaitingSentence
	return nil
}

// AcceptVerdict shows the validator's verdict verbatim and asks to continue
// only when the sentence was accepted.
func (s *Session) AcceptVerdict(verdict string, at time.Time) error {
	if s.Phase != AwaitingSentence {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.Phase)
	}
	s.append(SpeakerBot, verdict, at)
	if IsSuccessVerdict(verdict) {
		s.append(SpeakerBot, MsgContinuePrompt, at)
		s.Phase = AwaitingContinueChoice
	}
	return nil
}

// AcceptValidatorFailure tells the user the sentence could not be checked;
// they stay in AwaitingSentence and may resend it.
func (s *Session) AcceptValidatorFailure(at time.Time) error {
	if s.Phase != AwaitingSentence {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.Phase)
	}
	s.append(SpeakerBot, MsgValidatorFailed, at)
	return nil
}

// CheckInvariant verifies that a name is known exactly when the session has
// left AwaitingName.
func (s *Session) CheckInvariant() error {
	named := s.UserName != ""
	if named != (s.Phase != AwaitingName) {
		return fmt.Errorf("session %s: phase %s with user name %q", s.ID, s.Phase, s.UserName)
	}
	return nil
}

// Summary condenses a session for listings.
type Summary struct {
	ID        string
	UserName  string
	Phase     Phase
	StartedAt time.Time
	EndedAt   time.Time
	Entries   int
	Accepted  int
}

func (s *Session) Summary() Summary {
	accepted := 0
	for _, e := range s.Transcript {
		if e.Speaker == SpeakerBot && IsSuccessVerdict(e.Text) {
			accepted++
		}
	}
	return Summary{
		ID:        s.ID,
		UserName:  s.UserName,
		Phase:     s.Phase,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Entries:   len(s.Transcript),
		Accepted:  accepted,
	}
}
