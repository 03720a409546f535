// Package register implements the registration-time validation pipeline:
// the password strength scorer, the debounced username-availability checker,
// and the submit-time validator composing both.
package register

import "strings"

// specialChars is the fixed set counted by the strength scorer.
const specialChars = `!@#$%^&*(),.?":{}|<>`

// Label is the qualitative strength bucket of a password.
type Label string

const (
	LabelNone     Label = "none"
	LabelVeryWeak Label = "very-weak"
	LabelWeak     Label = "weak"
	LabelFair     Label = "fair"
	LabelGood     Label = "good"
	LabelStrong   Label = "strong"
)

// Strength is the result of scoring a password. Score is 0..5, one point per
// satisfied criterion.
type Strength struct {
	Score int
	Label Label
}

// MinSubmitScore is the lowest score accepted at registration time.
const MinSubmitScore = 3

// Score rates a password against five independent criteria: length of at
// least 8, an uppercase letter, a lowercase letter, a digit, and a character
// from the fixed special set. It is a pure function: no side effects, no I/O,
// recomputed wholesale on every password change.
func Score(password string) Strength {
	if password == "" {
		return Strength{Score: 0, Label: LabelNone}
	}

	score := 0
	if len(password) >= 8 {
		score++
	}
	if strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		score++
	}
	if strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		score++
	}
	if strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		score++
	}
	if strings.ContainsAny(password, specialChars) {
		score++
	}

	return Strength{Score: score, Label: labelFor(score)}
}

func labelFor(score int) Label {
	switch score {
	case 0, 1:
		return LabelVeryWeak
	case 2:
		return LabelWeak
	case 3:
		return LabelFair
	case 4:
		return LabelGood
	default:
		return LabelStrong
	}
}

// Message returns the user-facing description shown next to the strength bar.
func (s Strength) Message() string {
	switch s.Label {
	case LabelNone:
		return ""
	case LabelVeryWeak:
		return "Very weak password"
	case LabelWeak:
		return "Weak password"
	case LabelFair:
		return "Fair password"
	case LabelGood:
		return "Good password"
	default:
		return "Strong password"
	}
}
