package domain

import (
	"regexp"
	"strings"
)

// SuccessMarker opens every verdict that accepts a sentence. Nothing else in
// a verdict is interpreted.
const SuccessMarker = "✅"

const (
	MsgInvalidName     = "Please enter a valid name (start with uppercase, letters only, no spaces or special characters)."
	MsgNextSentence    = "Great! Type your next sentence."
	MsgFarewell        = "Thanks for practicing! See you next time."
	MsgInvalidChoice   = "Please type 'y' for yes or 'n' for no."
	MsgContinuePrompt  = "Do you want to continue? (y/n)"
	MsgValidatorFailed = "Sorry, I could not check that sentence right now. Please try again."
)

var namePattern = regexp.MustCompile(`^[A-Z][A-Za-z]*$`)

// IsValidName: an uppercase ASCII letter followed by ASCII letters only.
func IsValidName(name string) bool {
	return namePattern.MatchString(name)
}

func IsSuccessVerdict(verdict string) bool {
	return strings.HasPrefix(verdict, SuccessMarker)
}

func Greeting(name string) string {
	return "Nice to meet you, " + name + "! Please type a sentence in English using the verb TO BE (present or past)."
}
