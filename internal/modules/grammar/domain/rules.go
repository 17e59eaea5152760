package domain

import "strings"

// A sentence is matched token by token. Every part of a pattern reports the
// token counts it can consume, so multi-word names backtrack naturally.
type part interface {
	spans(tokens []string) []int
}

type literal []string

func (l literal) spans(tokens []string) []int {
	if len(tokens) == 0 {
		return nil
	}
	for _, w := range l {
		if tokens[0] == w {
			return []int{1}
		}
	}
	return nil
}

func lit(words ...string) part { return literal(words) }

// noun is any single word; plural nouns must end in "s" after at least one letter.
type noun struct{ plural bool }

func (n noun) spans(tokens []string) []int {
	if len(tokens) == 0 || !isWord(tokens[0]) {
		return nil
	}
	if n.plural && (len(tokens[0]) < 2 || !strings.HasSuffix(tokens[0], "s")) {
		return nil
	}
	return []int{1}
}

var subjectPronouns = map[string]bool{
	"I": true, "You": true, "He": true, "She": true, "It": true, "We": true, "They": true,
}

// properName is one or more capitalized words. Only the first word is
// checked against the subject pronouns.
type properName struct{}

func (properName) spans(tokens []string) []int {
	if len(tokens) == 0 || subjectPronouns[tokens[0]] {
		return nil
	}
	var out []int
	for i := 0; i < len(tokens) && isCapitalized(tokens[i]); i++ {
		out = append(out, i+1)
	}
	return out
}

var (
	theSingular  = []part{lit("The"), noun{}}
	thePlural    = []part{lit("The"), noun{plural: true}}
	thisThat     = []part{lit("This", "That"), noun{}}
	theseThose   = []part{lit("These", "Those"), noun{plural: true}}
	proper       = []part{properName{}}
	firstSingle  = lit("I")
	heSheIt      = lit("He", "She", "It")
	weThey       = lit("We", "They")
	iHeSheIt     = lit("I", "He", "She", "It")
	youWeThey    = lit("You", "We", "They")
	you          = lit("You")
	pronounFirst = lit("I'm")
)

func seq(groups ...any) []part {
	var out []part
	for _, g := range groups {
		switch v := g.(type) {
		case part:
			out = append(out, v)
		case []part:
			out = append(out, v...)
		case string:
			out = append(out, lit(v))
		}
	}
	return out
}

// heads lists, per form, the subject+verb openings that must precede the
// complement.
var heads = map[Form][][]part{
	PresentNegative: {
		seq(firstSingle, "am", "not"),
		seq(pronounFirst, "not"),
		seq(you, "are", "not"),
		seq(you, "aren't"),
		seq(heSheIt, "is", "not"),
		seq(heSheIt, "isn't"),
		seq(weThey, "are", "not"),
		seq(weThey, "aren't"),
		seq(theSingular, "is", "not"),
		seq(thePlural, "are", "not"),
		seq(proper, "is", "not"),
		seq(thisThat, "is", "not"),
		seq(theseThose, "are", "not"),
	},
	PresentAffirmative: {
		seq(firstSingle, "am"),
		seq(you, "are"),
		seq(heSheIt, "is"),
		seq(weThey, "are"),
		seq(theSingular, "is"),
		seq(thePlural, "are"),
		seq(proper, "is"),
		seq(thisThat, "is"),
		seq(theseThose, "are"),
	},
	PresentQuestion: {
		seq("Am", firstSingle),
		seq("Are", you),
		seq("Is", heSheIt),
		seq("Are", weThey),
		seq("Is", theSingular),
		seq("Are", thePlural),
		seq("Is", proper),
		seq("Is", thisThat),
		seq("Are", theseThose),
	},
	PastNegative: {
		seq(iHeSheIt, "was", "not"),
		seq(iHeSheIt, "wasn't"),
		seq(youWeThey, "were", "not"),
		seq(youWeThey, "weren't"),
		seq(theSingular, "was", "not"),
		seq(thePlural, "were", "not"),
		seq(proper, "was", "not"),
		seq(thisThat, "was", "not"),
		seq(theseThose, "were", "not"),
	},
	PastAffirmative: {
		seq(iHeSheIt, "was"),
		seq(youWeThey, "were"),
		seq(theSingular, "was"),
		seq(thePlural, "were"),
		seq(proper, "was"),
		seq(thisThat, "was"),
		seq(theseThose, "were"),
	},
	PastQuestion: {
		seq("Was", iHeSheIt),
		seq("Were", youWeThey),
		seq("Was", theSingular),
		seq("Was", proper),
		seq("Was", thisThat),
		seq("Were", thePlural),
		seq("Were", theseThose),
	},
}

// matchForm reports whether the normalized sentence s is an instance of form.
// Statements end in '.' directly after the last word; questions may leave a
// space before '?'.
func matchForm(form Form, s string) bool {
	body, term := s[:len(s)-1], s[len(s)-1]
	if form.question() {
		if term != '?' {
			return false
		}
		body = strings.TrimRight(body, " ")
	} else if term != '.' || strings.HasSuffix(body, " ") {
		return false
	}
	if body == "" {
		return false
	}
	tokens := strings.Split(body, " ")

	affirmative := form == PresentAffirmative || form == PastAffirmative
	complement := func(rest []string) bool {
		if len(rest) == 0 {
			return false
		}
		if affirmative && rest[0] == "not" {
			return false
		}
		for _, w := range rest {
			if !isWord(w) {
				return false
			}
		}
		return true
	}

	for _, head := range heads[form] {
		if matchParts(head, tokens, complement) {
			return true
		}
	}
	return false
}

func matchParts(parts []part, tokens []string, tail func([]string) bool) bool {
	if len(parts) == 0 {
		return tail(tokens)
	}
	for _, n := range parts[0].spans(tokens) {
		if matchParts(parts[1:], tokens[n:], tail) {
			return true
		}
	}
	return false
}

func isWord(w string) bool {
	if w == "" {
		return false
	}
	for i := 0; i < len(w); i++ {
		c := w[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

func isCapitalized(w string) bool {
	if len(w) < 2 || w[0] < 'A' || w[0] > 'Z' {
		return false
	}
	for i := 1; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}
