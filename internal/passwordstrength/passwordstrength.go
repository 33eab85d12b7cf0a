// Package passwordstrength implements the password-strength estimator
// used by the organization builder: a 0-4 score plus structured
// advice, the same contract as zxcvbn's score+feedback pair, scored
// against character-class diversity, length, and context words (the
// organization and user names) rather than a dictionary corpus.
package passwordstrength

import (
	"strings"
	"unicode"
)

// Threshold is the minimum score AddUser accepts. It must never be set
// below MinThreshold.
const Threshold = 4

// MinThreshold is the lowest value Threshold may ever be tuned to.
const MinThreshold = 3

// Result is the estimator's verdict: a 0-4 score and, when the score is
// low, human-readable advice. Result never carries the password itself.
type Result struct {
	Score       int
	Warning     string
	Suggestions []string
}

// Estimate scores password in the context of the given organization and
// user names: substrings of context words are penalized the same way a
// dictionary word would be, since they are the first guesses an attacker
// with access to the organization directory would try.
func Estimate(password string, context ...string) Result {
	length := len([]rune(password))

	classes := 0
	hasLower, hasUpper, hasDigit, hasSymbol := false, false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	for _, present := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if present {
			classes++
		}
	}

	score := lengthScore(length) + classes - 1
	score = applyContextPenalty(score, password, context)
	score = applyRepetitionPenalty(score, password)

	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}

	result := Result{Score: score}
	if score < Threshold {
		result.Warning, result.Suggestions = advice(length, classes, password, context)
	}
	return result
}

func lengthScore(length int) int {
	switch {
	case length >= 16:
		return 4
	case length >= 12:
		return 3
	case length >= 8:
		return 2
	case length >= 4:
		return 1
	default:
		return 0
	}
}

// applyContextPenalty halves the score, rounding down, whenever the
// password contains the organization name, a username, or their reverse
// as a substring: these are the first guesses available to anyone who
// can see the organization's member list.
func applyContextPenalty(score int, password string, context []string) int {
	lower := strings.ToLower(password)
	for _, word := range context {
		word = strings.ToLower(strings.TrimSpace(word))
		if len(word) < 3 {
			continue
		}
		if strings.Contains(lower, word) || strings.Contains(lower, reverseString(word)) {
			return score / 2
		}
	}
	return score
}

// applyRepetitionPenalty subtracts two from the score for passwords of at
// least four characters built from at most two distinct characters (such
// as "aaaa" or "abab"), which collapse the effective entropy length
// estimate above. Longer repeated patterns are not detected.
func applyRepetitionPenalty(score int, password string) int {
	if password == "" {
		return score
	}
	runes := []rune(password)
	distinct := map[rune]struct{}{}
	for _, r := range runes {
		distinct[r] = struct{}{}
	}
	if len(distinct) <= 2 && len(runes) >= 4 {
		return score - 2
	}
	return score
}

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func advice(length, classes int, password string, context []string) (string, []string) {
	warning := "This password is easy to guess."
	var suggestions []string

	if length < 12 {
		suggestions = append(suggestions, "Use a longer password, at least 12 characters.")
	}
	if classes < 3 {
		suggestions = append(suggestions, "Mix uppercase, lowercase, digits, and symbols.")
	}
	lower := strings.ToLower(password)
	for _, word := range context {
		word = strings.ToLower(strings.TrimSpace(word))
		if len(word) >= 3 && strings.Contains(lower, word) {
			warning = "This password contains your organization or user name."
			suggestions = append(suggestions, "Avoid using names that appear in the organization directory.")
			break
		}
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Avoid short or repetitive passwords.")
	}
	return warning, suggestions
}
