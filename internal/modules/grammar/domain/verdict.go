package domain

import (
	"fmt"
	"strings"
)

const (
	SuccessMarker = "✅"
	FailureMarker = "❌"
)

var (
	msgBadShape = FailureMarker + " Invalid sentence. Remember: Start with uppercase and end with '.' or '?'"
	msgNoMatch  = FailureMarker + " Invalid sentence."
)

// Form is the grammatical form of a sentence built on "to be".
type Form int

const (
	FormNone Form = iota
	PresentNegative
	PresentAffirmative
	PresentQuestion
	PastNegative
	PastAffirmative
	PastQuestion
)

// formOrder is the order forms are tried in; the first match names the verdict.
var formOrder = []Form{
	PresentNegative,
	PresentAffirmative,
	PresentQuestion,
	PastNegative,
	PastAffirmative,
	PastQuestion,
}

func (f Form) String() string {
	switch f {
	case PresentNegative:
		return "present negative"
	case PresentAffirmative:
		return "present affirmative"
	case PresentQuestion:
		return "present question"
	case PastNegative:
		return "past negative"
	case PastAffirmative:
		return "past affirmative"
	case PastQuestion:
		return "past question"
	default:
		return "none"
	}
}

func (f Form) question() bool {
	return f == PresentQuestion || f == PastQuestion
}

type Verdict struct {
	Text     string
	Accepted bool
	Form     Form
}

// Check grades one sentence. It never fails: anything it cannot place is
// reported as an invalid sentence.
func Check(sentence string) Verdict {
	s := Normalize(sentence)
	if !hasSentenceShape(s) {
		return Verdict{Text: msgBadShape}
	}
	for _, form := range formOrder {
		if matchForm(form, s) {
			return Verdict{
				Text:     fmt.Sprintf("%s Correct sentence in %s", SuccessMarker, form),
				Accepted: true,
				Form:     form,
			}
		}
	}
	return Verdict{Text: msgNoMatch}
}

// Normalize trims the sentence and collapses every whitespace run to one space.
func Normalize(sentence string) string {
	return strings.Join(strings.Fields(sentence), " ")
}

// hasSentenceShape: starts with an uppercase ASCII letter, ends with '.' or '?'.
func hasSentenceShape(s string) bool {
	if len(s) < 2 {
		return false
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	last := s[len(s)-1]
	return last == '.' || last == '?'
}
