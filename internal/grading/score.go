// Package grading computes subject and semester averages on the 0–20 scale.
//
// Everything here is pure: functions read the subjects and marks they are
// given and never modify them, so results can be recomputed at will.
package grading

import (
	"math"
	"strconv"
	"strings"
)

const (
	// MinScore and MaxScore bound a committed score.
	MinScore = 0.0
	MaxScore = 20.0

	// PassMark is the average at or above which a subject or semester passes.
	PassMark = 10.0

	// ExamWeight and ContinuousWeight split a blended subject average
	// between the final exam and the mean of the remaining inputs.
	ExamWeight       = 0.7
	ContinuousWeight = 0.3
)

// ValidScore reports whether raw may be stored as a score entry. The empty
// string clears the entry and a lone "." is kept while a decimal is being
// typed; anything else must be a decimal number within [MinScore, MaxScore].
func ValidScore(raw string) bool {
	if raw == "" || raw == "." {
		return true
	}
	v, ok := parseDecimal(raw)
	return ok && v >= MinScore && v <= MaxScore
}

// Resolve turns a stored score entry into a number. Blank or unparseable
// entries count as 0.
func Resolve(raw string) float64 {
	v, ok := parseDecimal(raw)
	if !ok {
		return 0
	}
	return v
}

func parseDecimal(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || !isDecimal(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// isDecimal accepts [sign] digits [. digits] [e [sign] digits] with at least
// one mantissa digit, which keeps hex floats, "Inf" and digit separators out.
func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
