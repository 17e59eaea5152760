package domain

import "fmt"

// Phase is the controller's position in the scripted conversation.
type Phase int

const (
	AwaitingName Phase = iota
	AwaitingSentence
	AwaitingContinueChoice
	Ended
)

func (p Phase) String() string {
	switch p {
	case AwaitingName:
		return "awaiting_name"
	case AwaitingSentence:
		return "awaiting_sentence"
	case AwaitingContinueChoice:
		return "awaiting_continue_choice"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func ParsePhase(s string) (Phase, error) {
	for _, p := range []Phase{AwaitingName, AwaitingSentence, AwaitingContinueChoice, Ended} {
		if p.String() == s {
			return p, nil
		}
	}
	return AwaitingName, fmt.Errorf("unknown phase %q", s)
}
